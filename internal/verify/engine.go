package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// #region engine
// Engine turns a finalized drag offset into a pass/fail Outcome. Errors from a
// delegated predicate stop here; callers only ever see the Outcome.
type Engine struct {
	mode      Mode
	window    ToleranceWindow
	predicate Predicate
	logger    *zap.Logger
}

// NewLocalEngine creates a synchronous engine that compares against window.
func NewLocalEngine(window ToleranceWindow, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		mode:   ModeLocalTolerance,
		window: window,
		logger: logger,
	}
}

// NewDelegatedEngine creates an engine that hands every offset to p.
func NewDelegatedEngine(p Predicate, logger *zap.Logger) (*Engine, error) {
	if p == nil {
		return nil, ErrNilPredicate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		mode:      ModeDelegated,
		predicate: p,
		logger:    logger,
	}, nil
}

// Mode reports the engine's fixed verification mode.
func (e *Engine) Mode() Mode { return e.mode }

// Window returns the tolerance window. Zero for delegated engines.
func (e *Engine) Window() ToleranceWindow { return e.window }

// Synchronous reports whether Verify returns without suspending.
func (e *Engine) Synchronous() bool { return e.mode == ModeLocalTolerance }

// #endregion engine

// #region verify
// Verify judges offset. In delegated mode it blocks until the predicate returns;
// there is no retry and no timeout here, a hung predicate blocks indefinitely.
func (e *Engine) Verify(ctx context.Context, offset float64) Outcome {
	if e.mode == ModeLocalTolerance {
		if e.window.Contains(offset) {
			return OutcomePass
		}
		return OutcomeFail
	}

	if err := e.callPredicate(ctx, offset); err != nil {
		e.logger.Debug("delegated verification rejected",
			zap.Float64("offset", offset),
			zap.Error(err),
		)
		return OutcomeFail
	}
	return OutcomePass
}

func (e *Engine) callPredicate(ctx context.Context, offset float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predicate panic: %v", r)
		}
	}()
	return e.predicate(ctx, offset)
}

// #endregion verify

// #region host-wrappers
// WithTimeout bounds p to d. The engine never does this on its own; hosts that
// cannot tolerate an indefinitely pending attempt wrap their predicate with it.
func WithTimeout(p Predicate, d time.Duration) Predicate {
	if d <= 0 {
		return p
	}
	return func(ctx context.Context, offset float64) error {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		// Buffered so a predicate that ignores ctx can still finish and exit.
		done := make(chan error, 1)
		go func() { done <- p(ctx, offset) }()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return fmt.Errorf("predicate: %w", ctx.Err())
		}
	}
}

// LocalPredicate adapts a tolerance window to the Predicate contract, returning
// ErrRejected when the offset falls outside it.
func LocalPredicate(window ToleranceWindow) Predicate {
	return func(_ context.Context, offset float64) error {
		if !window.Contains(offset) {
			return fmt.Errorf("%w: %.2f outside [%.2f, %.2f]",
				ErrRejected, offset, window.Target-window.Epsilon, window.Target+window.Epsilon)
		}
		return nil
	}
}

// #endregion host-wrappers
