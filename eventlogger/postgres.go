package eventlogger

import (
	"context"
	"database/sql"
	"encoding/json"
)

type postgresEventLogger struct {
	db *sql.DB
}

func NewPostgresEventLogger(db *sql.DB) *postgresEventLogger {
	return &postgresEventLogger{db: db}
}

func (el *postgresEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, jsonMetadata, err := marshalEvent(e)
	if err != nil {
		return err
	}
	// lib/pq encodes []byte as bytea; jsonb columns want text
	statement := `INSERT INTO events (id, event_type, event_data, event_metadata, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = el.db.ExecContext(ctx, statement, e.ID, e.Type, string(jsonData), string(jsonMetadata), e.CreatedAt)
	return err
}

func (el *postgresEventLogger) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	query := `SELECT id, event_type, event_data, event_metadata, created_at FROM events WHERE event_type = $1`
	rows, err := el.db.QueryContext(ctx, query, eventType)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func marshalEvent(e Event) (data, metadata []byte, err error) {
	data, err = json.Marshal(e.Data)
	if err != nil {
		return nil, nil, err
	}
	metadata, err = json.Marshal(e.Metadata)
	if err != nil {
		return nil, nil, err
	}
	return data, metadata, nil
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var event Event
		var jsonData, jsonMetadata []byte
		if err := rows.Scan(&event.ID, &event.Type, &jsonData, &jsonMetadata, &event.CreatedAt); err != nil {
			return events, err
		}
		if err := json.Unmarshal(jsonData, &event.Data); err != nil {
			return events, err
		}
		if err := json.Unmarshal(jsonMetadata, &event.Metadata); err != nil {
			return events, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return events, err
	}

	return events, nil
}
