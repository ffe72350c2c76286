package machine

import (
	"errors"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/slide-verify/internal/logging"
	"github.com/danielpatrickdp/slide-verify/internal/recovery"
	"github.com/danielpatrickdp/slide-verify/internal/store"
	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

// #region state
// State is the interaction state. Exactly one is active at a time.
type State string

const (
	StateReady     State = "READY"
	StateMoving    State = "MOVING"
	StateVerifying State = "VERIFYING"
	StatePassed    State = "PASSED"
	StateFailed    State = "FAILED"
)

// #endregion state

// #region snapshot
// Snapshot is the read model handed to renderers. It is a plain value; callers
// may keep it without further locking.
type Snapshot struct {
	State      State
	Offset     float64
	MaxOffset  float64
	Result     verify.Outcome
	Locked     bool // a PASS was reached; capture refused until Reset
	Verifying  bool // a delegated predicate is in flight (spinner)
	Generation uint64
	AttemptID  string
}

// CanStart reports whether a gesture start would currently be granted.
func (s Snapshot) CanStart() bool {
	return !s.Locked && s.State == StateReady
}

// #endregion snapshot

// #region recorder
// Recorder receives concluded attempts and state transitions. Failures are
// logged and otherwise ignored; they never affect the interaction.
type Recorder interface {
	RecordAttempt(store.Attempt) error
	RecordTransition(logging.TransitionEntry) error
}

// #endregion recorder

// #region options
// Options configures a Machine.
type Options struct {
	Engine      *verify.Engine
	TrackWidth  float64
	HandleWidth float64
	Recovery    recovery.Config

	// OnPass and OnFail fire once per concluded attempt on the machine's event
	// loop. They must not block and must not call back into the Machine.
	OnPass func()
	OnFail func()

	Recorder Recorder
	Logger   *zap.Logger
}

// DefaultOptions uses the bundled puzzle geometry (300 wide track, 50 wide
// handle) and the reference recovery timing. Engine must still be set.
func DefaultOptions() Options {
	return Options{
		TrackWidth:  300,
		HandleWidth: 50,
		Recovery:    recovery.DefaultConfig(),
	}
}

// #endregion options

// #region errors
var (
	ErrNoEngine = errors.New("machine: verification engine is required")
	ErrClosed   = errors.New("machine: closed")
)

// #endregion errors
