package replay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/slide-verify/internal/machine"
	"github.com/danielpatrickdp/slide-verify/internal/recovery"
	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

// #region types
// OpKind names a host call on the machine.
type OpKind string

const (
	OpStart   OpKind = "start"
	OpMove    OpKind = "move"
	OpRelease OpKind = "release"
	OpReset   OpKind = "reset"
	OpResize  OpKind = "resize"
)

// Op is one recorded host call. Dx is the cumulative displacement for moves;
// TrackWidth and HandleWidth are read for resizes.
type Op struct {
	Kind        OpKind
	Dx          float64
	TrackWidth  float64
	HandleWidth float64
}

// Session is a recorded sequence of host calls against a fresh widget.
type Session struct {
	Name string
	Ops  []Op
}

// ReplayConfig describes the widget every session runs against.
type ReplayConfig struct {
	TrackWidth  float64
	HandleWidth float64
	Window      verify.ToleranceWindow
	Recorder    machine.Recorder
	Logger      *zap.Logger
}

// DefaultReplayConfig uses the bundled puzzle geometry and tolerance window.
func DefaultReplayConfig() ReplayConfig {
	opts := machine.DefaultOptions()
	return ReplayConfig{
		TrackWidth:  opts.TrackWidth,
		HandleWidth: opts.HandleWidth,
		Window:      verify.DefaultToleranceWindow(),
	}
}

// ReplayResult is what one session produced.
type ReplayResult struct {
	Name       string
	Accepted   []bool           // per op, the host call's return value
	Outcomes   []verify.Outcome // one per concluded attempt, in order
	FinalState machine.State
	Locked     bool
	Offset     float64
}

// ReplaySummary aggregates a replay run.
type ReplaySummary struct {
	Sessions int
	Attempts int
	Passes   int
	Fails    int
	Refused  int // host calls the machine declined
}

// #endregion types

// #region replay
// Replay runs each session through its own local-tolerance machine with
// instant recovery. A failed attempt is allowed to settle back to READY
// before the next op so results do not depend on timing.
func Replay(ctx context.Context, sessions []Session, cfg ReplayConfig) ([]ReplayResult, error) {
	results := make([]ReplayResult, 0, len(sessions))
	for _, s := range sessions {
		r, err := replaySession(ctx, s, cfg)
		if err != nil {
			return results, fmt.Errorf("session %s: %w", s.Name, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func replaySession(ctx context.Context, s Session, cfg ReplayConfig) (ReplayResult, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m, err := machine.New(machine.Options{
		Engine:      verify.NewLocalEngine(cfg.Window, logger),
		TrackWidth:  cfg.TrackWidth,
		HandleWidth: cfg.HandleWidth,
		Recovery:    recovery.Instant(),
		Recorder:    cfg.Recorder,
		Logger:      logger.With(zap.String("session", s.Name)),
	})
	if err != nil {
		return ReplayResult{}, err
	}
	defer m.Close()

	r := ReplayResult{Name: s.Name, Accepted: make([]bool, 0, len(s.Ops))}
	for i, op := range s.Ops {
		if err := settle(ctx, m); err != nil {
			return r, fmt.Errorf("op %d: %w", i, err)
		}
		ok, err := apply(m, op)
		if err != nil {
			return r, fmt.Errorf("op %d: %w", i, err)
		}
		r.Accepted = append(r.Accepted, ok)

		if op.Kind == OpRelease && ok {
			// The local engine concludes inside Release, so the snapshot
			// already carries the outcome.
			r.Outcomes = append(r.Outcomes, m.Snapshot().Result)
		}
	}
	if err := settle(ctx, m); err != nil {
		return r, err
	}

	snap := m.Snapshot()
	r.FinalState = snap.State
	r.Locked = snap.Locked
	r.Offset = snap.Offset
	return r, nil
}

func apply(m *machine.Machine, op Op) (bool, error) {
	switch op.Kind {
	case OpStart:
		return m.Start(), nil
	case OpMove:
		return m.Move(op.Dx), nil
	case OpRelease:
		return m.Release(), nil
	case OpReset:
		return m.Reset(), nil
	case OpResize:
		return m.Resize(op.TrackWidth, op.HandleWidth), nil
	}
	return false, fmt.Errorf("unknown op %q", op.Kind)
}

// settle waits out a recovery in progress.
func settle(ctx context.Context, m *machine.Machine) error {
	if m.Snapshot().State != machine.StateFailed {
		return nil
	}
	_, err := m.Await(ctx, machine.InState(machine.StateReady))
	return err
}

// #endregion replay

// #region summary
// Summarize counts attempts and refusals across results.
func Summarize(results []ReplayResult) ReplaySummary {
	var s ReplaySummary
	s.Sessions = len(results)
	for _, r := range results {
		for _, o := range r.Outcomes {
			s.Attempts++
			switch o {
			case verify.OutcomePass:
				s.Passes++
			case verify.OutcomeFail:
				s.Fails++
			}
		}
		for _, ok := range r.Accepted {
			if !ok {
				s.Refused++
			}
		}
	}
	return s
}

// #endregion summary
