package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// schemaSQL is the single source of truth for the database schema,
// embedded at compile time from schema.sql.
//
//go:embed schema.sql
var schemaSQL string

// Store wraps a SQLite database connection with write serialization.
// SQLite supports one writer at a time; MaxOpenConns(1) plus a write mutex
// keeps the scheduler and the HTTP read surface from fighting over it.
type Store struct {
	conn    *sql.DB
	writeMu sync.Mutex
}

// Open opens a SQLite database at dbPath with WAL mode enabled
func Open(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal=WAL&_fk=1&_busy_timeout=5000"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			log.Printf("Warning: failed to set %s: %v", pragma, err)
		}
	}

	return &Store{conn: conn}, nil
}

// OpenInMemory opens a throwaway in-memory database, used by tests
func OpenInMemory() (*Store, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	return &Store{conn: conn}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates tables if they don't exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// formatTime renders a timestamp for storage. Zero times become NULL.
func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// formatTimePtr renders an optional timestamp for storage
func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return formatTime(*t)
}

// parseTime reads a stored RFC3339 timestamp. Invalid or NULL values come
// back as the zero time.
func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimePtr reads a stored optional RFC3339 timestamp
func parseTimePtr(s sql.NullString) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
