// Package persist gives the arena an audit trail independent of the KV
// store's liveness: every arena state change and every score publication
// is appended to a local SQLite file, grounded on the teacher's
// goalserve_webhook.Store (database/sql + modernc.org/sqlite, WAL mode,
// a single connection serializing writes).
package persist

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the append-only audit log backing internal/persist's bus
// subscriber.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("persist: create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("persist: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS arena_state_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded  TEXT    NOT NULL,
			state     TEXT    NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS score_publish_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded  TEXT    NOT NULL,
			match_id  TEXT    NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("persist: init schema (%s): %w", stmt, err)
		}
	}

	return &Store{db: db}, nil
}

// RecordState appends one arena state change, raw JSON as received off the
// bus.
func (s *Store) RecordState(stateJSON []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO arena_state_log (recorded, state) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), string(stateJSON),
	)
	return err
}

// RecordScorePublish appends one score-commit notification.
func (s *Store) RecordScorePublish(matchId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO score_publish_log (recorded, match_id) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), matchId,
	)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
