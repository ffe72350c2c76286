package logging

import "time"

// #region transition-entry
// TransitionEntry is a single row in the transition_log table: one state change
// of the interaction machine and the event that caused it.
type TransitionEntry struct {
	AttemptID  string
	Generation uint64
	FromState  string
	ToState    string
	Trigger    string // "start" | "release" | "verified" | "recovered" | "reset"
	Offset     float64
	CreatedAt  time.Time
}

// #endregion transition-entry
