// Package store persists scored sessions to a sqlite database.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/courtvision/shotform/scoring"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	total INTEGER NOT NULL,
	lower INTEGER NOT NULL,
	upper INTEGER NOT NULL,
	balance INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_fk INTEGER NOT NULL REFERENCES sessions(id),
	item TEXT NOT NULL,
	score INTEGER NOT NULL,
	value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scores_session ON scores(session_fk);
`

// SessionRecord is one stored session summary.
type SessionRecord struct {
	ID        int64
	SessionID string
	StartedAt time.Time
	Total     int
	Lower     int
	Upper     int
	Balance   int
}

// Store wraps the sqlite connection.  sqlite handles one writer at a time
// so writes serialize behind the mutex.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the score history database at the given path.
func Open(path string) (*Store, error) {

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveScore inserts the session summary and all item scores in a single
// transaction and returns the new session row id.
func (s *Store) SaveScore(sessionID string, startedAt time.Time, res scoring.ScoreResult) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO sessions (session_id, started_at, total, lower, upper, balance)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sessionID, startedAt, res.Total, res.Lower.Score, res.Upper.Score, res.Balance.Score)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scores (session_fk, item, score, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	items := []struct {
		name string
		item scoring.Item
	}{
		{"squat", res.Lower.Squat},
		{"kneeExt", res.Lower.KneeExt},
		{"releaseAngle", res.Upper.ReleaseAngle},
		{"armPower", res.Upper.ArmPower},
		{"follow", res.Upper.Follow},
		{"elbowTight", res.Upper.ElbowTight},
		{"center", res.Balance.Center},
		{"align", res.Balance.Align},
	}

	for _, it := range items {
		if _, err := stmt.Exec(rowID, it.name, it.item.Score, it.item.Value); err != nil {
			return 0, fmt.Errorf("failed to insert score %s: %w", it.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return rowID, nil
}

// RecentSessions returns the most recent stored sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {

	rows, err := s.db.Query(`
		SELECT id, session_id, started_at, total, lower, upper, balance
		FROM sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord

	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.StartedAt,
			&r.Total, &r.Lower, &r.Upper, &r.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
