// Package db is the local cache: a small SQLite database holding the chat
// transcript and the last-seen folder snapshots, so a restarted client can
// show state before its first fetch completes. It is never a source of
// truth; live data always overwrites it.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rmail/rmail/internal/models"
)

// Store wraps a SQLite database used for local data storage.
type Store struct {
	db *sql.DB
}

// Open opens (and creates/migrates) the database at the given path.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	// Ensure file exists with strict perms
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		f, err := os.OpenFile(dbPath, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return nil, fmt.Errorf("create database file: %w", err)
		}
		_ = f.Close()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys=ON;")
	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout=5000;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	// user_version based migrations
	var ver int
	_ = s.db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&ver)

	// v1: chat transcript and folder snapshots
	if ver == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS chat_messages (
  seq       INTEGER PRIMARY KEY AUTOINCREMENT,
  id        TEXT NOT NULL,
  role      TEXT NOT NULL,
  content   TEXT NOT NULL,
  actions   TEXT NOT NULL DEFAULT '[]',
  timestamp TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS folder_snapshots (
  folder     TEXT PRIMARY KEY,
  payload    TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
		if err == nil {
			_, err = tx.ExecContext(ctx, "PRAGMA user_version=1;")
		}
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate v1: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit v1: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTranscript replaces the cached transcript with the given one.
func (s *Store) SaveTranscript(ctx context.Context, messages []models.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chat_messages;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear transcript: %w", err)
	}
	for _, msg := range messages {
		actions, err := json.Marshal(msg.Actions)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode actions: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO chat_messages (id, role, content, actions, timestamp) VALUES (?, ?, ?, ?, ?);",
			msg.ID, string(msg.Role), msg.Content, string(actions), msg.Timestamp.Format(time.RFC3339Nano))
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert message: %w", err)
		}
	}
	return tx.Commit()
}

// LoadTranscript returns the cached transcript in insertion order.
func (s *Store) LoadTranscript(ctx context.Context) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, role, content, actions, timestamp FROM chat_messages ORDER BY seq ASC;")
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		var role, actions, ts string
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &actions, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Role = models.ChatRole(role)
		if err := json.Unmarshal([]byte(actions), &msg.Actions); err != nil {
			msg.Actions = nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			msg.Timestamp = parsed
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// SaveFolderSnapshot stores a folder's current collection.
func (s *Store) SaveFolderSnapshot(ctx context.Context, folder models.Folder, emails []models.Email) error {
	payload, err := json.Marshal(emails)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO folder_snapshots (folder, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(folder) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at;
`, string(folder), string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadFolderSnapshot returns the cached collection for a folder, or nil
// when none is stored.
func (s *Store) LoadFolderSnapshot(ctx context.Context, folder models.Folder) ([]models.Email, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM folder_snapshots WHERE folder = ?;", string(folder)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var emails []models.Email
	if err := json.Unmarshal([]byte(payload), &emails); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return emails, nil
}

// Purge removes everything, e.g. on logout.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages;"); err != nil {
		return fmt.Errorf("purge transcript: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM folder_snapshots;"); err != nil {
		return fmt.Errorf("purge snapshots: %w", err)
	}
	return nil
}
