package session

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type postgresRepository struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgresRepository(db *sql.DB, ttl time.Duration) *postgresRepository {
	return &postgresRepository{db: db, ttl: ttl}
}

func (r *postgresRepository) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	session, err := newSession(userID, r.ttl)
	if err != nil {
		return nil, err
	}

	query := `
        INSERT INTO sessions (id, user_id, token, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
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

// GetByToken retrieves a session by token and validates it's not expired.
func (r *postgresRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	query := `
        SELECT id, user_id, token, expires_at, created_at
        FROM sessions
        WHERE token = $1
    `
	return scanSession(r.db.QueryRowContext(ctx, query, token))
}

// Delete removes a session (logout). Deleting an absent token is a no-op.
func (r *postgresRepository) Delete(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = $1`
	_, err := r.db.ExecContext(ctx, query, token)
	return err
}

// DeleteByUserID removes all sessions for a user.
func (r *postgresRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func scanSession(row *sql.Row) (*Session, error) {
	var session Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil && err == sql.ErrNoRows {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, ErrExpiredSession
	}

	return &session, nil
}
