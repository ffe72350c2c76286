package verify

import (
	"context"
	"errors"
)

// #region outcome
// Outcome is the result of the most recently concluded attempt.
type Outcome string

const (
	OutcomeNone Outcome = "none"
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
)

// #endregion outcome

// #region mode
// Mode selects how an offset is judged. Fixed for an engine's lifetime.
type Mode string

const (
	ModeLocalTolerance Mode = "local_tolerance"
	ModeDelegated      Mode = "delegated"
)

// ParseMode maps a config string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLocalTolerance, ModeDelegated:
		return Mode(s), nil
	}
	return "", ErrUnknownMode
}

// #endregion mode

// #region tolerance-window
// ToleranceWindow accepts offsets in [Target-Epsilon, Target+Epsilon].
type ToleranceWindow struct {
	Target  float64 `json:"target_offset"`
	Epsilon float64 `json:"epsilon"`
}

// DefaultToleranceWindow matches the bundled puzzle image: the piece lines up
// with the gap at 79 with 3 units of slack either side.
func DefaultToleranceWindow() ToleranceWindow {
	return ToleranceWindow{Target: 79, Epsilon: 3}
}

// Contains reports whether offset lies inside the window, bounds inclusive.
func (w ToleranceWindow) Contains(offset float64) bool {
	return offset >= w.Target-w.Epsilon && offset <= w.Target+w.Epsilon
}

// #endregion tolerance-window

// #region predicate
// Predicate is an externally supplied check. A nil return means the offset was
// accepted; any error means it was not, whatever the reason.
type Predicate func(ctx context.Context, offset float64) error

// #endregion predicate

// #region errors
var (
	ErrNilPredicate = errors.New("verify: delegated engine requires a predicate")
	ErrUnknownMode  = errors.New("verify: unknown verification mode")
	ErrRejected     = errors.New("verify: offset rejected")
)

// #endregion errors
