package session_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarkussPinkovskis/ColorGen/config"
	"github.com/MarkussPinkovskis/ColorGen/session"
	"github.com/MarkussPinkovskis/ColorGen/store"
	"github.com/MarkussPinkovskis/ColorGen/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "test.db")}
	db, _, err := store.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func registerUser(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	u, err := user.NewSQLiteRepository(db).Register(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	return u.ID
}

func TestCreateAndGetByToken(t *testing.T) {
	db := newTestDB(t)
	repo := session.NewSQLiteRepository(db, time.Hour)
	userID := registerUser(t, db)

	sess, err := repo.Create(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	got, err := repo.GetByToken(context.Background(), sess.Token)
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)
}

func TestGetByTokenUnknown(t *testing.T) {
	db := newTestDB(t)
	repo := session.NewSQLiteRepository(db, time.Hour)

	_, err := repo.GetByToken(context.Background(), "no-such-token")
	require.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestGetByTokenExpired(t *testing.T) {
	db := newTestDB(t)
	repo := session.NewSQLiteRepository(db, -time.Second)
	userID := registerUser(t, db)

	sess, err := repo.Create(context.Background(), userID)
	require.NoError(t, err)

	_, err = repo.GetByToken(context.Background(), sess.Token)
	require.ErrorIs(t, err, session.ErrExpiredSession)
}

func TestDeleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := session.NewSQLiteRepository(db, time.Hour)
	userID := registerUser(t, db)

	sess, err := repo.Create(context.Background(), userID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), sess.Token))
	require.NoError(t, repo.Delete(context.Background(), sess.Token))

	_, err = repo.GetByToken(context.Background(), sess.Token)
	require.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestDeleteByUserID(t *testing.T) {
	db := newTestDB(t)
	repo := session.NewSQLiteRepository(db, time.Hour)
	userID := registerUser(t, db)

	first, err := repo.Create(context.Background(), userID)
	require.NoError(t, err)
	second, err := repo.Create(context.Background(), userID)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByUserID(context.Background(), userID))

	_, err = repo.GetByToken(context.Background(), first.Token)
	require.ErrorIs(t, err, session.ErrInvalidSession)
	_, err = repo.GetByToken(context.Background(), second.Token)
	require.ErrorIs(t, err, session.ErrInvalidSession)
}
