package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions so an in-progress admin form survives a
// restart.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		chat_key TEXT PRIMARY KEY,
		stage TEXT NOT NULL,
		file_id TEXT NOT NULL DEFAULT '',
		file_kind TEXT NOT NULL DEFAULT '',
		pending_code TEXT NOT NULL DEFAULT '',
		suggested_code TEXT NOT NULL DEFAULT '',
		suggested_name TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("init sessions schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(chatKey string) (*Session, error) {
	row := s.db.QueryRow(`SELECT stage, file_id, file_kind, pending_code, suggested_code, suggested_name
		FROM sessions WHERE chat_key = ?`, chatKey)

	var sess Session
	err := row.Scan(&sess.Stage, &sess.FileID, &sess.FileKind,
		&sess.PendingCode, &sess.SuggestedCode, &sess.SuggestedName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", chatKey, err)
	}
	return &sess, nil
}

func (s *SQLiteStore) Put(chatKey string, sess Session) error {
	_, err := s.db.Exec(`INSERT INTO sessions
		(chat_key, stage, file_id, file_kind, pending_code, suggested_code, suggested_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(chat_key) DO UPDATE SET
			stage = excluded.stage,
			file_id = excluded.file_id,
			file_kind = excluded.file_kind,
			pending_code = excluded.pending_code,
			suggested_code = excluded.suggested_code,
			suggested_name = excluded.suggested_name,
			updated_at = excluded.updated_at`,
		chatKey, string(sess.Stage), sess.FileID, sess.FileKind,
		sess.PendingCode, sess.SuggestedCode, sess.SuggestedName)
	if err != nil {
		return fmt.Errorf("write session %s: %w", chatKey, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(chatKey string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE chat_key = ?`, chatKey); err != nil {
		return fmt.Errorf("clear session %s: %w", chatKey, err)
	}
	return nil
}
