package eventlogger

import (
	"context"
	"database/sql"
)

type sqliteEventLogger struct {
	db *sql.DB
}

func NewSQLiteEventLogger(db *sql.DB) *sqliteEventLogger {
	return &sqliteEventLogger{db: db}
}

func (el *sqliteEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, jsonMetadata, err := marshalEvent(e)
	if err != nil {
		return err
	}
	statement := `INSERT INTO events (id, event_type, event_data, event_metadata, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err = el.db.ExecContext(ctx, statement, e.ID, e.Type, string(jsonData), string(jsonMetadata), e.CreatedAt)
	return err
}

func (el *sqliteEventLogger) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	query := `SELECT id, event_type, event_data, event_metadata, created_at FROM events WHERE event_type = ?`
	rows, err := el.db.QueryContext(ctx, query, eventType)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}
