// Package machine implements the slider interaction state machine.
//
// All state changes happen on one event-loop goroutine owned by the Machine.
// Host calls (Start, Move, Release, Reset, Resize) and worker completions
// (delegated verification, recovery frames) are events on a single channel and
// are handled in arrival order. Workers tag their events with the generation
// that was current when they were spawned; the loop discards events whose
// generation has since moved on.
package machine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/slide-verify/internal/recovery"
	"github.com/danielpatrickdp/slide-verify/internal/tracker"
	"github.com/danielpatrickdp/slide-verify/internal/verify"
)

const (
	eventBuffer   = 64
	watcherBuffer = 32
)

// #region events
type eventKind int

const (
	evStart eventKind = iota
	evMove
	evRelease
	evReset
	evResize
	evVerified
	evFrame
	evRecovered
)

type event struct {
	kind    eventKind
	value   float64 // drag displacement or recovery frame
	track   float64
	handle  float64
	gen     uint64
	outcome verify.Outcome
	reply   chan bool
}

// #endregion events

// #region machine
// Machine is the interaction state machine. Create with New, release with Close.
type Machine struct {
	// Owned by the event loop.
	engine       *verify.Engine
	tracker      *tracker.Tracker
	animator     *recovery.Animator
	onPass       func()
	onFail       func()
	recorder     Recorder
	logger       *zap.Logger
	state        State
	result       verify.Outcome
	locked       bool
	verifying    bool
	generation   uint64
	attemptID    string
	attemptStart time.Time
	pendingMax   float64
	hasPending   bool
	stopRecovery context.CancelFunc

	events    chan event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu       sync.RWMutex
	snap     Snapshot
	watchers map[int]chan Snapshot
	nextID   int
	closed   bool
}

// New validates opts and starts the event loop.
func New(opts Options) (*Machine, error) {
	if opts.Engine == nil {
		return nil, ErrNoEngine
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		engine:   opts.Engine,
		tracker:  tracker.New(tracker.MaxOffset(opts.TrackWidth, opts.HandleWidth)),
		animator: recovery.NewAnimator(opts.Recovery),
		onPass:   opts.OnPass,
		onFail:   opts.OnFail,
		recorder: opts.Recorder,
		logger:   logger.With(zap.String("mode", string(opts.Engine.Mode()))),
		state:    StateReady,
		result:   verify.OutcomeNone,
		events:   make(chan event, eventBuffer),
		ctx:      ctx,
		cancel:   cancel,
		watchers: make(map[int]chan Snapshot),
	}
	m.snap = m.current()

	m.wg.Add(1)
	go m.loop()
	return m, nil
}

// Close stops the event loop and waits for in-flight workers. Predicates
// receive a cancelled context and are expected to return. Watch channels are
// closed. Safe to call more than once.
func (m *Machine) Close() error {
	m.closeOnce.Do(func() {
		m.cancel()
		m.wg.Wait()

		m.mu.Lock()
		m.closed = true
		for id, ch := range m.watchers {
			close(ch)
			delete(m.watchers, id)
		}
		m.mu.Unlock()
	})
	return nil
}

// #endregion machine

// #region host-api
// Start asks to begin a gesture. It returns false, without any state change,
// while the machine is locked or not READY.
func (m *Machine) Start() bool {
	return m.submit(event{kind: evStart})
}

// Move forwards dx, the cumulative horizontal displacement since the gesture
// began. Ignored unless MOVING.
func (m *Machine) Move(dx float64) bool {
	return m.submit(event{kind: evMove, value: dx})
}

// Release ends the gesture and starts verification. Ignored unless MOVING.
func (m *Machine) Release() bool {
	return m.submit(event{kind: evRelease})
}

// Reset forces READY from any state: unlocks, zeroes the offset and orphans
// any in-flight verification or recovery.
func (m *Machine) Reset() bool {
	return m.submit(event{kind: evReset})
}

// Resize recomputes maxOffset from new track and handle widths. The new bound
// applies immediately when READY, otherwise from the next Start or Reset.
func (m *Machine) Resize(trackWidth, handleWidth float64) bool {
	return m.submit(event{kind: evResize, track: trackWidth, handle: handleWidth})
}

// submit delivers a host event and waits until the loop has handled it, so the
// snapshot is up to date when it returns.
func (m *Machine) submit(ev event) bool {
	ev.reply = make(chan bool, 1)
	select {
	case m.events <- ev:
	case <-m.ctx.Done():
		return false
	}
	select {
	case ok := <-ev.reply:
		return ok
	case <-m.ctx.Done():
		return false
	}
}

// post delivers a worker event without waiting for it to be handled.
func (m *Machine) post(ev event) {
	select {
	case m.events <- ev:
	case <-m.ctx.Done():
	}
}

// #endregion host-api

// #region loop
func (m *Machine) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev := <-m.events:
			ok := m.handle(ev)
			m.publish()
			if ev.reply != nil {
				ev.reply <- ok
			}
		}
	}
}

func (m *Machine) handle(ev event) bool {
	switch ev.kind {
	case evStart:
		return m.handleStart()
	case evMove:
		return m.handleMove(ev.value)
	case evRelease:
		return m.handleRelease()
	case evReset:
		return m.handleReset()
	case evResize:
		return m.handleResize(ev.track, ev.handle)
	case evVerified:
		return m.handleVerified(ev.gen, ev.outcome)
	case evFrame:
		return m.handleFrame(ev.gen, ev.value)
	case evRecovered:
		return m.handleRecovered(ev.gen)
	}
	return false
}

// #endregion loop
