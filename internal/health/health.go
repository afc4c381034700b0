// Package health is the health-reporting side channel: a small SQLite
// event log under the grist home directory recording errors, healthy
// heartbeats, and usage events. Writers treat it as best-effort; a broken
// health store never fails a tool call.
package health

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Event kinds.
const (
	KindError   = "error"
	KindHealthy = "healthy"
	KindEvent   = "event"
)

// Store is the health event log.
type Store struct {
	db *sql.DB
}

// Event is one recorded health or usage event.
type Event struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Source    string         `json:"source"`
	Name      string         `json:"name,omitempty"`
	Message   string         `json:"message,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

// Open initializes the event log at baseDir/grist.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.grist.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "grist.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(dbPath, 0600)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("failed to get user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS events (
		  id           TEXT PRIMARY KEY,
		  kind         TEXT NOT NULL,
		  source       TEXT NOT NULL,
		  name         TEXT,
		  message      TEXT,
		  context_json TEXT,
		  created_at   INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_kind_created
		ON events(kind, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_events_source
		ON events(source, created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d;", 1)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	return nil
}

func (s *Store) insert(kind, source, name, message string, context map[string]any) error {
	var contextJSON sql.NullString
	if len(context) > 0 {
		data, err := json.Marshal(context)
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
		contextJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO events (id, kind, source, name, message, context_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ulid.Make().String(), kind, source, nullable(name), nullable(message), contextJSON,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// LogError records an internal failure from a tool handler or background
// task.
func (s *Store) LogError(source, message string, context map[string]any) error {
	return s.insert(KindError, source, "", message, context)
}

// MarkHealthy records a startup heartbeat for source.
func (s *Store) MarkHealthy(source string) error {
	return s.insert(KindHealthy, source, "", "", nil)
}

// Fire records a named usage event, e.g. idea_captured.
func (s *Store) Fire(source, name string, context map[string]any) error {
	return s.insert(KindEvent, source, name, "", context)
}

// Recent returns the newest events of the given kind, newest first.
// Empty kind returns all kinds.
func (s *Store) Recent(kind string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, kind, source, name, message, context_json, created_at
	          FROM events`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var name, message, contextJSON sql.NullString
		if err := rows.Scan(&ev.ID, &ev.Kind, &ev.Source, &name, &message, &contextJSON, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Name = name.String
		ev.Message = message.String
		if contextJSON.Valid {
			_ = json.Unmarshal([]byte(contextJSON.String), &ev.Context)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
