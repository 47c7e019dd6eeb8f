// Package influxdb provides optional time-series telemetry for access
// decisions and garage activity.
//
// This package wraps influxdata/influxdb-client-go with connection
// management and GateWise-specific write helpers. Writes go through the
// non-blocking batched WriteAPI; failures surface through an async
// error callback and never reach the hot path.
//
// # Measurements
//
//	access_decisions   decision counts tagged by outcome and reason
//	garage_state       door state as a step series (numeric code)
//	garage_events      event counts tagged by kind and source
//
// Telemetry adapts the client to the event recorder, so wiring it up is
// one extra sink on the recorder. The SQLite event log remains the
// system of record; InfluxDB holds derived data for dashboards.
package influxdb
