package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Pagination bounds for List queries.
const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Filter controls which events List returns.
type Filter struct {
	Category Category // optional: access or garage
	Kind     Kind     // optional: filter by kind
	Identity string   // optional: filter by scanned identity
	Limit    int      // default 50, max 200
	Offset   int      // pagination offset
}

// ListResult contains paginated event results.
type ListResult struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Repository defines the interface for event log persistence.
type Repository interface {
	Append(ctx context.Context, event *Event) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores events in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates an event repository over db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts an event. ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Append(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = newEventID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	detailJSON := "{}"
	if event.Detail != nil {
		b, err := json.Marshal(event.Detail)
		if err != nil {
			return fmt.Errorf("marshalling event detail: %w", err)
		}
		detailJSON = string(b)
	}

	allowed := 0
	if event.Allowed {
		allowed = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, category, kind, identity, allowed, reason, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Category), string(event.Kind),
		event.Identity, allowed, event.Reason, detailJSON,
		event.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// List returns events matching the filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// WHERE clause is assembled from parameterised conditions only.
	var conditions []string
	var args []any

	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Identity != "" {
		conditions = append(conditions, "identity = ?")
		args = append(args, filter.Identity)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM events " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}

	query := `SELECT id, category, kind, identity, allowed, reason, detail, created_at
	          FROM events ` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	result := &ListResult{
		Events: []Event{},
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result.Events = append(result.Events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return result, nil
}

// scanEvent reads one row into an Event.
func scanEvent(rows *sql.Rows) (Event, error) {
	var (
		event      Event
		category   string
		kind       string
		allowed    int
		detailJSON string
		createdAt  string
	)
	if err := rows.Scan(&event.ID, &category, &kind, &event.Identity,
		&allowed, &event.Reason, &detailJSON, &createdAt); err != nil {
		return Event{}, fmt.Errorf("scanning event row: %w", err)
	}

	event.Category = Category(category)
	event.Kind = Kind(kind)
	event.Allowed = allowed != 0

	if detailJSON != "" && detailJSON != "{}" {
		if err := json.Unmarshal([]byte(detailJSON), &event.Detail); err != nil {
			return Event{}, fmt.Errorf("parsing event detail: %w", err)
		}
	}

	// Timestamp format is controlled by Append.
	event.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled

	return event, nil
}
