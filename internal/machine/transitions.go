package machine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/slide-verify/internal/logging"
	"github.com/danielpatrickdp/slide-verify/internal/store"
	"github.com/danielpatrickdp/slide-verify/internal/tracker"
	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

// #region gesture
func (m *Machine) handleStart() bool {
	if m.locked {
		m.logger.Debug("gesture start refused", zap.String("reason", "locked"))
		return false
	}
	if m.state != StateReady {
		m.logger.Debug("gesture start refused", zap.String("state", string(m.state)))
		return false
	}

	m.applyPendingMax()
	if !m.tracker.Begin() {
		return false
	}

	m.generation++
	m.attemptID = uuid.New().String()
	m.attemptStart = time.Now()
	m.result = verify.OutcomeNone
	m.transition(StateMoving, "start")
	return true
}

func (m *Machine) handleMove(dx float64) bool {
	if m.state != StateMoving {
		return false
	}
	_, ok := m.tracker.Move(dx)
	return ok
}

func (m *Machine) handleRelease() bool {
	if m.state != StateMoving {
		m.logger.Debug("release ignored", zap.String("state", string(m.state)))
		return false
	}
	offset, ok := m.tracker.Release()
	if !ok {
		return false
	}
	m.transition(StateVerifying, "release")

	if m.engine.Synchronous() {
		m.conclude(m.engine.Verify(m.ctx, offset))
		return true
	}

	m.verifying = true
	gen := m.generation
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		outcome := m.engine.Verify(m.ctx, offset)
		m.post(event{kind: evVerified, gen: gen, outcome: outcome})
	}()
	return true
}

// #endregion gesture

// #region verification
func (m *Machine) handleVerified(gen uint64, outcome verify.Outcome) bool {
	if gen != m.generation || m.state != StateVerifying {
		m.logger.Debug("stale verification discarded",
			zap.Uint64("generation", gen),
			zap.Uint64("current_generation", m.generation),
			zap.String("outcome", string(outcome)),
		)
		return false
	}
	m.verifying = false
	m.conclude(outcome)
	return true
}

// conclude moves VERIFYING to PASSED or FAILED and fires the matching callback.
func (m *Machine) conclude(outcome verify.Outcome) {
	if outcome != verify.OutcomePass {
		outcome = verify.OutcomeFail
	}
	m.result = outcome
	m.recordAttempt(outcome)

	fields := []zap.Field{
		zap.String("attempt_id", m.attemptID),
		zap.Float64("offset", m.tracker.Offset()),
	}

	if outcome == verify.OutcomePass {
		m.locked = true
		m.transition(StatePassed, "verified")
		m.logger.Info("verification passed", fields...)
		if m.onPass != nil {
			m.onPass()
		}
		return
	}

	m.transition(StateFailed, "verified")
	m.logger.Info("verification failed", fields...)
	if m.onFail != nil {
		m.onFail()
	}
	m.startRecovery()
}

// #endregion verification

// #region recovery
func (m *Machine) startRecovery() {
	ctx, cancel := context.WithCancel(m.ctx)
	m.stopRecovery = cancel
	gen := m.generation
	from := m.tracker.Offset()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		err := m.animator.Run(ctx, from, func(v float64) {
			m.post(event{kind: evFrame, gen: gen, value: v})
		})
		if err != nil {
			return
		}
		m.post(event{kind: evRecovered, gen: gen})
	}()
}

func (m *Machine) handleFrame(gen uint64, v float64) bool {
	if gen != m.generation || m.state != StateFailed {
		return false
	}
	m.tracker.Set(v)
	return true
}

// handleRecovered acts on the first completion of a FAILED episode only.
func (m *Machine) handleRecovered(gen uint64) bool {
	if gen != m.generation || m.state != StateFailed {
		m.logger.Debug("recovery completion ignored", zap.Uint64("generation", gen))
		return false
	}
	m.stopRecovery = nil
	m.tracker.Reset()
	m.applyPendingMax()
	m.result = verify.OutcomeNone
	m.transition(StateReady, "recovered")
	return true
}

// #endregion recovery

// #region reset
func (m *Machine) handleReset() bool {
	if m.stopRecovery != nil {
		m.stopRecovery()
		m.stopRecovery = nil
	}
	m.generation++
	m.locked = false
	m.verifying = false
	m.result = verify.OutcomeNone
	m.tracker.Reset()
	m.applyPendingMax()
	m.transition(StateReady, "reset")
	m.attemptID = ""
	return true
}

func (m *Machine) handleResize(trackWidth, handleWidth float64) bool {
	m.pendingMax = tracker.MaxOffset(trackWidth, handleWidth)
	m.hasPending = true
	if m.state == StateReady {
		m.applyPendingMax()
	}
	return true
}

func (m *Machine) applyPendingMax() {
	if !m.hasPending {
		return
	}
	m.tracker.SetMaxOffset(m.pendingMax)
	m.hasPending = false
}

// #endregion reset

// #region bookkeeping
func (m *Machine) transition(to State, trigger string) {
	from := m.state
	m.state = to
	m.logger.Debug("transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("trigger", trigger),
		zap.Uint64("generation", m.generation),
	)
	if m.recorder == nil {
		return
	}
	err := m.recorder.RecordTransition(logging.TransitionEntry{
		AttemptID:  m.attemptID,
		Generation: m.generation,
		FromState:  string(from),
		ToState:    string(to),
		Trigger:    trigger,
		Offset:     m.tracker.Offset(),
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		m.logger.Warn("record transition failed", zap.Error(err))
	}
}

func (m *Machine) recordAttempt(outcome verify.Outcome) {
	if m.recorder == nil {
		return
	}
	err := m.recorder.RecordAttempt(store.Attempt{
		AttemptID:  m.attemptID,
		Generation: m.generation,
		Mode:       string(m.engine.Mode()),
		Offset:     m.tracker.Offset(),
		MaxOffset:  m.tracker.MaxOffset(),
		Outcome:    string(outcome),
		StartedAt:  m.attemptStart,
		FinishedAt: time.Now(),
	})
	if err != nil {
		m.logger.Warn("record attempt failed", zap.String("attempt_id", m.attemptID), zap.Error(err))
	}
}

func (m *Machine) current() Snapshot {
	return Snapshot{
		State:      m.state,
		Offset:     m.tracker.Offset(),
		MaxOffset:  m.tracker.MaxOffset(),
		Result:     m.result,
		Locked:     m.locked,
		Verifying:  m.verifying,
		Generation: m.generation,
		AttemptID:  m.attemptID,
	}
}

// #endregion bookkeeping
