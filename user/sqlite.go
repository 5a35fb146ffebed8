package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *sqliteRepository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) Register(ctx context.Context, email, password string) (*User, error) {
	user, err := newUser(email, password)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	return user, nil
}

func (r *sqliteRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, password_hash, COALESCE(avatar, ''), created_at FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *sqliteRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT id, email, password_hash, COALESCE(avatar, ''), created_at FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, filename string) error {
	query := `UPDATE users SET avatar = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, filename, id)
	return err
}

func (r *sqliteRepository) VerifyPassword(hashedPassword, password string) error {
	return verifyPassword(hashedPassword, password)
}
