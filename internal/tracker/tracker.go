package tracker

import "math"

// #region tracker
// Tracker turns a pointer displacement stream into one drag offset clamped to
// [0, maxOffset]. It never starts verification; it only reports the final value
// on release and then refuses input until rearmed.
type Tracker struct {
	maxOffset float64
	offset    float64
	active    bool
	armed     bool
}

// MaxOffset returns trackWidth - handleWidth, floored at zero.
func MaxOffset(trackWidth, handleWidth float64) float64 {
	m := trackWidth - handleWidth
	if m < 0 || math.IsNaN(m) {
		return 0
	}
	return m
}

// New creates an armed tracker bounded by maxOffset.
func New(maxOffset float64) *Tracker {
	t := &Tracker{armed: true}
	t.SetMaxOffset(maxOffset)
	return t
}

// #endregion tracker

// #region bounds
// SetMaxOffset changes the upper bound for subsequent updates. The current
// offset is left alone.
func (t *Tracker) SetMaxOffset(maxOffset float64) {
	if maxOffset < 0 || math.IsNaN(maxOffset) {
		maxOffset = 0
	}
	t.maxOffset = maxOffset
}

// MaxOffset returns the current upper bound.
func (t *Tracker) MaxOffset() float64 {
	return t.maxOffset
}

func (t *Tracker) clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > t.maxOffset:
		return t.maxOffset
	}
	return v
}

// #endregion bounds

// #region gesture
// Begin starts a gesture at offset 0. Returns false if the tracker is not armed
// or a gesture is already active.
func (t *Tracker) Begin() bool {
	if !t.armed || t.active {
		return false
	}
	t.active = true
	t.offset = 0
	return true
}

// Move applies dx, the cumulative displacement since the gesture origin.
// Returns the clamped offset and whether the update was accepted.
func (t *Tracker) Move(dx float64) (float64, bool) {
	if !t.active {
		return t.offset, false
	}
	t.offset = t.clamp(dx)
	return t.offset, true
}

// Release ends the gesture and returns the final clamped offset. The tracker is
// disarmed until Rearm is called.
func (t *Tracker) Release() (float64, bool) {
	if !t.active {
		return t.offset, false
	}
	t.active = false
	t.armed = false
	return t.offset, true
}

// Rearm allows the next Begin.
func (t *Tracker) Rearm() {
	t.armed = true
}

// #endregion gesture

// #region direct
// Set overrides the offset outside of a gesture (recovery frames). The value is
// still clamped.
func (t *Tracker) Set(v float64) {
	t.offset = t.clamp(v)
}

// Reset drops any active gesture, zeroes the offset and rearms.
func (t *Tracker) Reset() {
	t.active = false
	t.armed = true
	t.offset = 0
}

// Offset returns the current clamped offset.
func (t *Tracker) Offset() float64 { return t.offset }

// Active reports whether a gesture is in progress.
func (t *Tracker) Active() bool { return t.active }

// Armed reports whether Begin would be accepted when no gesture is active.
func (t *Tracker) Armed() bool { return t.armed }

// #endregion direct
