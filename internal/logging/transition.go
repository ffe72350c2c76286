package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
// TransitionSchema creates the transition_log table. The store runs it as part
// of its migration.
const TransitionSchema = `
CREATE TABLE IF NOT EXISTS transition_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	attempt_id  TEXT,
	generation  INTEGER NOT NULL,
	from_state  TEXT NOT NULL,
	to_state    TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	drag_offset REAL NOT NULL,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region log-transition
// LogTransition writes a transition entry to the transition_log table.
func LogTransition(db *sql.DB, entry TransitionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO transition_log (attempt_id, generation, from_state, to_state, trigger_type, drag_offset, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.AttemptID),
		int64(entry.Generation),
		entry.FromState,
		entry.ToState,
		entry.Trigger,
		entry.Offset,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log transition: %w", err)
	}
	return nil
}

// #endregion log-transition

// #region list-transitions
// ListTransitions returns up to limit entries, oldest first. An empty attemptID
// lists across all attempts.
func ListTransitions(db *sql.DB, attemptID string, limit int) ([]TransitionEntry, error) {
	query := `SELECT attempt_id, generation, from_state, to_state, trigger_type, drag_offset, created_at
		FROM transition_log`
	args := []interface{}{}
	if attemptID != "" {
		query += ` WHERE attempt_id = ?`
		args = append(args, attemptID)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var entries []TransitionEntry
	for rows.Next() {
		var e TransitionEntry
		var attempt sql.NullString
		var gen int64
		var createdStr string
		if err := rows.Scan(&attempt, &gen, &e.FromState, &e.ToState, &e.Trigger, &e.Offset, &createdStr); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		if attempt.Valid {
			e.AttemptID = attempt.String
		}
		e.Generation = uint64(gen)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion list-transitions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
