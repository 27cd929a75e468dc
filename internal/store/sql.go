package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	Name   string
	schema string
	read   string
	upsert string
	delete string
}

var (
	DialectPostgres = Dialect{
		Name: "postgres",
		schema: `CREATE TABLE IF NOT EXISTS lead_slots (
	slot_key   TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
		read: `SELECT payload FROM lead_slots WHERE slot_key = $1`,
		upsert: `INSERT INTO lead_slots (slot_key, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (slot_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		delete: `DELETE FROM lead_slots WHERE slot_key = $1`,
	}

	DialectSQLite = Dialect{
		Name: "sqlite",
		schema: `CREATE TABLE IF NOT EXISTS lead_slots (
	slot_key   TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
		read: `SELECT payload FROM lead_slots WHERE slot_key = ?`,
		upsert: `INSERT INTO lead_slots (slot_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT (slot_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		delete: `DELETE FROM lead_slots WHERE slot_key = ?`,
	}
)

// SQLSlot keeps the blob in one row of the lead_slots table.
type SQLSlot struct {
	db      *sql.DB
	dialect Dialect
	key     string
	now     func() time.Time
}

func NewSQLSlot(db *sql.DB, dialect Dialect, key string) *SQLSlot {
	if key == "" {
		key = DefaultSlotKey
	}
	return &SQLSlot{db: db, dialect: dialect, key: key, now: time.Now}
}

func (s *SQLSlot) Name() string { return s.dialect.Name }

// EnsureSchema creates the lead_slots table when missing.
func (s *SQLSlot) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("failed to create lead_slots table: %w", err)
	}
	return nil
}

func (s *SQLSlot) Read(ctx context.Context) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.dialect.read, s.key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", s.key, err)
	}
	return []byte(payload), nil
}

func (s *SQLSlot) Write(ctx context.Context, data []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, s.key, string(data), s.now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", s.key, err)
	}
	return nil
}

func (s *SQLSlot) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.delete, s.key); err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", s.key, err)
	}
	return nil
}
