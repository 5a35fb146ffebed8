package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type sqliteRepository struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLiteRepository(db *sql.DB, ttl time.Duration) *sqliteRepository {
	return &sqliteRepository{db: db, ttl: ttl}
}

func (r *sqliteRepository) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	session, err := newSession(userID, r.ttl)
	if err != nil {
		return nil, err
	}

	query := `
        INSERT INTO sessions (id, user_id, token, expires_at, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (r *sqliteRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	query := `
        SELECT id, user_id, token, expires_at, created_at
        FROM sessions
        WHERE token = ?
    `
	return scanSession(r.db.QueryRowContext(ctx, query, token))
}

func (r *sqliteRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = ?`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

func (r *sqliteRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM sessions WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
