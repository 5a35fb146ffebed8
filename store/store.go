// Package store opens the backing database and applies the schema.
// The dialect is chosen once at startup: Postgres when DATABASE_URL is
// set, sqlite otherwise. Repositories are implemented per dialect; no
// query is ever rewritten between placeholder styles.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MarkussPinkovskis/ColorGen/config"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

//go:embed schema_postgres.sql schema_sqlite.sql
var schemaFS embed.FS

// Open connects to the configured database, verifies the connection and
// ensures the schema exists.
func Open(cfg *config.Config) (*sql.DB, Dialect, error) {
	if cfg.DatabaseURL != "" {
		db, err := open("postgres", cfg.DatabaseURL, "schema_postgres.sql")
		return db, DialectPostgres, err
	}
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, DialectSQLite, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := open("sqlite3", cfg.SQLitePath, "schema_sqlite.sql")
	return db, DialectSQLite, err
}

func open(driver, dsn, schema string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	sqlBytes, err := fs.ReadFile(schemaFS, schema)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(string(sqlBytes)); err != nil {
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}
