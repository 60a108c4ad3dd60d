// Package history persists the chat transcript to a local SQLite file so
// messages received during earlier sessions can be replayed later.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/workboardhq/workboard/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	sender_id   INTEGER NOT NULL,
	content     TEXT NOT NULL,
	ts_ms       INTEGER NOT NULL,
	received_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_received ON messages(received_at);
`

// Store is an append-only archive of received chat messages.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the archive database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append records a received message. Each row gets its own id, so the
// same sender may repeat identical content without conflict.
func (s *Store) Append(msg models.ChatMessage) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (id, sender_id, content, ts_ms, received_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), msg.SenderID, msg.Content, msg.Timestamp, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("archive append: %w", err)
	}
	return nil
}

// Recent returns up to limit messages in arrival order, oldest first.
func (s *Store) Recent(limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT sender_id, content, ts_ms FROM messages ORDER BY received_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("archive query: %w", err)
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.SenderID, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("archive scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive rows: %w", err)
	}

	// Reverse the newest-first page so callers read oldest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Count reports the number of archived messages.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("archive count: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DefaultPath returns the archive location under the user state directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "workboard", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "workboard", "history.db"), nil
}
