package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/slide-verify/internal/logging"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	attempt_id   TEXT PRIMARY KEY,
	generation   INTEGER NOT NULL,
	mode         TEXT NOT NULL,
	drag_offset  REAL NOT NULL,
	max_offset   REAL NOT NULL,
	outcome      TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT NOT NULL
);
` + logging.TransitionSchema

// #endregion schema

// #region store-struct
// Store persists concluded attempts and the transition log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region record-attempt
// RecordAttempt inserts a concluded attempt. An empty AttemptID is filled with
// a fresh UUID; a zero FinishedAt with the current time.
func (s *Store) RecordAttempt(a Attempt) error {
	if a.AttemptID == "" {
		a.AttemptID = uuid.New().String()
	}
	if a.FinishedAt.IsZero() {
		a.FinishedAt = time.Now().UTC()
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = a.FinishedAt
	}

	_, err := s.db.Exec(
		`INSERT INTO attempts (attempt_id, generation, mode, drag_offset, max_offset, outcome, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.AttemptID, int64(a.Generation), a.Mode, a.Offset, a.MaxOffset, a.Outcome,
		a.StartedAt.UTC().Format(time.RFC3339Nano), a.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record attempt %s: %w", a.AttemptID, err)
	}
	return nil
}

// RecordTransition appends to the transition log.
func (s *Store) RecordTransition(e logging.TransitionEntry) error {
	return logging.LogTransition(s.db, e)
}

// #endregion record-attempt

// #region get-attempt
// GetAttempt retrieves a single attempt by ID.
func (s *Store) GetAttempt(id string) (Attempt, error) {
	row := s.db.QueryRow(
		`SELECT attempt_id, generation, mode, drag_offset, max_offset, outcome, started_at, finished_at
		 FROM attempts WHERE attempt_id = ?`, id,
	)
	a, err := scanAttempt(row)
	if err != nil {
		return Attempt{}, fmt.Errorf("get attempt %s: %w", id, err)
	}
	return a, nil
}

// #endregion get-attempt

// #region list-attempts
// ListAttempts returns the most recent attempts, newest first.
func (s *Store) ListAttempts(limit int) ([]Attempt, error) {
	rows, err := s.db.Query(
		`SELECT attempt_id, generation, mode, drag_offset, max_offset, outcome, started_at, finished_at
		 FROM attempts ORDER BY finished_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ListTransitions returns the transition log for one attempt, or for all
// attempts when attemptID is empty.
func (s *Store) ListTransitions(attemptID string, limit int) ([]logging.TransitionEntry, error) {
	return logging.ListTransitions(s.db, attemptID, limit)
}

// #endregion list-attempts

// #region stats
// Stats aggregates pass/fail counts and the mean finalized offset.
func (s *Store) Stats() (AttemptStats, error) {
	var st AttemptStats
	var mean sql.NullFloat64
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome = 'pass' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN outcome = 'fail' THEN 1 ELSE 0 END), 0),
		        AVG(drag_offset)
		 FROM attempts`,
	).Scan(&st.Total, &st.Passed, &st.Failed, &mean)
	if err != nil {
		return AttemptStats{}, fmt.Errorf("stats: %w", err)
	}
	if mean.Valid {
		st.MeanOffset = mean.Float64
	}
	return st, nil
}

// #endregion stats

// #region scan
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(r rowScanner) (Attempt, error) {
	var a Attempt
	var gen int64
	var startedStr, finishedStr string
	if err := r.Scan(&a.AttemptID, &gen, &a.Mode, &a.Offset, &a.MaxOffset, &a.Outcome, &startedStr, &finishedStr); err != nil {
		return Attempt{}, err
	}
	a.Generation = uint64(gen)
	a.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	a.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedStr)
	return a, nil
}

// #endregion scan
