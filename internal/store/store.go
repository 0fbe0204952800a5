// Package store persists conversation snapshots in SQLite so a host app can
// resume a conversation across restarts. Serialized bodies are replayed
// through the builder on load, which re-normalizes markers from untrusted
// input.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/canvasloom/loom/pkg/conv"
)

var (
	// ErrNotFound indicates no conversation exists under the given id.
	ErrNotFound = errors.New("conversation not found")
)

// Record is a stored conversation with its metadata.
type Record struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Body      conv.Body `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config contains configuration for the conversation store.
type Config struct {
	Path string // Path to SQLite database file, ":memory:" for ephemeral
}

// Store persists conversations in SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and if needed initializes) a conversation store.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = ":memory:"
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT,
			body TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create conversations table: %w", err)
	}

	_, err = s.db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at)")
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Save upserts a conversation snapshot under the given id.
func (s *Store) Save(ctx context.Context, id, title string, body conv.Body) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, body, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, id, title, string(payload))
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// Load retrieves a conversation by id.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, body, created_at, updated_at
		FROM conversations WHERE id = ?
	`, id)

	var rec Record
	var payload string
	err := row.Scan(&rec.ID, &rec.Title, &payload, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &rec.Body); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return &rec, nil
}

// List returns conversation metadata ordered by most recently updated. The
// bodies are not loaded.
func (s *Store) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Delete removes a conversation by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
