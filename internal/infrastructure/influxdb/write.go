package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Numeric codes for garage door states, so dashboards can graph the
// state as a step series.
var stateCodes = map[string]int{
	"closed":  0,
	"open":    1,
	"opening": 2,
	"closing": 3,
	"unknown": -1,
}

// WriteAccessDecision records one access decision.
//
// Tags carry only low-cardinality dimensions (outcome and reason); the
// identity goes into a field so it never inflates the tag index.
func (c *Client) WriteAccessDecision(identity string, allowed bool, reason string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"access_decisions",
		map[string]string{
			"allowed": strconv.FormatBool(allowed),
			"reason":  reason,
		},
		map[string]interface{}{
			"identity": identity,
			"count":    1,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteGarageState records a door state transition as a step series.
func (c *Client) WriteGarageState(state string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	code, ok := stateCodes[state]
	if !ok {
		code = stateCodes["unknown"]
	}

	point := write.NewPoint(
		"garage_state",
		map[string]string{
			"state": state,
		},
		map[string]interface{}{
			"code": code,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteGarageEvent counts one garage event by kind, with an optional
// source tag ("button", "api", "scan", "auto_close").
func (c *Client) WriteGarageEvent(kind string, source string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{"kind": kind}
	if source != "" {
		tags["source"] = source
	}

	point := write.NewPoint(
		"garage_events",
		tags,
		map[string]interface{}{
			"count": 1,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and
// fields. Keep tags low cardinality.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
