package machine

import (
	"context"
	"sync"
)

// #region snapshot
// Snapshot returns the state as of the last handled event.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// publish stores the loop's current view and fans it out to watchers. Only the
// event loop calls it.
func (m *Machine) publish() {
	s := m.current()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s == m.snap {
		return
	}
	m.snap = s
	for _, ch := range m.watchers {
		offer(ch, s)
	}
}

// offer never blocks the loop. A full watcher loses its oldest snapshot.
func offer(ch chan Snapshot, s Snapshot) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}

// #endregion snapshot

// #region watch
// Watch streams every changed snapshot, including each recovery frame, which
// makes it the live offset signal for renderers. Call stop when done; the
// channel is closed by stop or by Close.
func (m *Machine) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, watcherBuffer)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := m.nextID
	m.nextID++
	m.watchers[id] = ch
	m.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.watchers[id]; ok {
				delete(m.watchers, id)
				close(c)
			}
		})
	}
	return ch, stop
}

// Await blocks until pred holds for the current or a later snapshot.
func (m *Machine) Await(ctx context.Context, pred func(Snapshot) bool) (Snapshot, error) {
	ch, stop := m.Watch()
	defer stop()

	if s := m.Snapshot(); pred(s) {
		return s, nil
	}
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return m.Snapshot(), ErrClosed
			}
			if pred(s) {
				return s, nil
			}
		case <-ctx.Done():
			return m.Snapshot(), ctx.Err()
		}
	}
}

// InState is an Await predicate matching any of states.
func InState(states ...State) func(Snapshot) bool {
	return func(s Snapshot) bool {
		for _, st := range states {
			if s.State == st {
				return true
			}
		}
		return false
	}
}

// #endregion watch
