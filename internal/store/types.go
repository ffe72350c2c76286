package store

import "time"

// #region attempt
// Attempt is one concluded drag-to-verify attempt.
type Attempt struct {
	AttemptID  string
	Generation uint64
	Mode       string  // "local_tolerance" | "delegated"
	Offset     float64 // finalized drag offset handed to verification
	MaxOffset  float64
	Outcome    string // "pass" | "fail"
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the time from gesture start to verification outcome.
func (a Attempt) Duration() time.Duration {
	if a.StartedAt.IsZero() || a.FinishedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// #endregion attempt

// #region attempt-stats
// AttemptStats aggregates the attempts table.
type AttemptStats struct {
	Total      int
	Passed     int
	Failed     int
	MeanOffset float64
}

// PassRate returns Passed/Total, or 0 when there are no attempts.
func (s AttemptStats) PassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// #endregion attempt-stats
