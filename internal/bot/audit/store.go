// Package audit keeps a best-effort journal of provisioning operations in a
// local sqlite database. The journal is operational history only; nothing
// in the dialog flow depends on it.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nikitaproks/vpn-bot/internal/bot/events"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

//go:embed schema.sql
var ddl string

// Entry is one journaled operation.
type Entry struct {
	EventID    string
	Operation  string
	InstanceID int
	Region     string
	ChatID     int64
	At         time.Time
}

// Store persists audit entries.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStore opens (and if needed creates) the journal database at path.
func NewStore(path string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup schema: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

// Record inserts one entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (event_id, operation, instance_id, region, chat_id, at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventID, e.Operation, e.InstanceID, e.Region, e.ChatID, e.At)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, operation, instance_id, region, chat_id, at
		 FROM operations ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EventID, &e.Operation, &e.InstanceID, &e.Region, &e.ChatID, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Listen returns an event handler that journals instance lifecycle events.
// Failures are logged and swallowed; the journal must never break a flow.
func (s *Store) Listen() events.Handler {
	return func(ev events.InstanceEvent) {
		entry := Entry{
			EventID:    ev.ID,
			Operation:  ev.Type,
			InstanceID: ev.InstanceID,
			Region:     ev.Region,
			ChatID:     ev.ChatID,
			At:         ev.At,
		}
		if err := s.Record(context.Background(), entry); err != nil {
			s.logger.Error("failed to journal operation",
				"error", err.Error(), "event_id", ev.ID, "operation", ev.Type)
		}
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
