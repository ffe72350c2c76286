package recovery

import (
	"context"
	"time"
)

// #region easing
// Easing maps linear progress in [0, 1] onto eased progress in [0, 1].
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// #endregion easing

// #region config
// Config controls how a failed offset is driven back to zero.
type Config struct {
	HoldDelay     time.Duration // offset is held unchanged for this long first
	Duration      time.Duration // length of the eased animation
	FrameInterval time.Duration // spacing between emitted frames
	Easing        Easing
}

// DefaultConfig holds for 500ms then animates linearly over 500ms at ~60fps.
func DefaultConfig() Config {
	return Config{
		HoldDelay:     500 * time.Millisecond,
		Duration:      500 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,
		Easing:        Linear,
	}
}

// Instant skips the hold and the animation; Run emits the final zero frame only.
func Instant() Config {
	return Config{Easing: Linear}
}

// #endregion config

// #region animator
// Animator drives an offset back to zero. It knows nothing about interaction
// state; callers decide what a frame or completion means.
type Animator struct {
	cfg Config
}

// NewAnimator fills unset fields of cfg with usable values.
func NewAnimator(cfg Config) *Animator {
	if cfg.Easing == nil {
		cfg.Easing = Linear
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultConfig().FrameInterval
	}
	return &Animator{cfg: cfg}
}

// Config returns the effective configuration.
func (a *Animator) Config() Config { return a.cfg }

// Progress returns linear animation progress after elapsed, clamped to [0, 1].
func (a *Animator) Progress(elapsed time.Duration) float64 {
	if a.cfg.Duration <= 0 {
		return 1
	}
	p := float64(elapsed) / float64(a.cfg.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Value returns the offset at linear progress p when animating from toward 0.
func (a *Animator) Value(from, p float64) float64 {
	return from * (1 - a.cfg.Easing(p))
}

// Run holds from for HoldDelay, emits eased frames toward zero, and finishes
// with an exact 0 frame. It returns nil only when the animation completed; a
// cancelled ctx returns ctx.Err() and no final frame is emitted.
func (a *Animator) Run(ctx context.Context, from float64, frame func(float64)) error {
	if a.cfg.HoldDelay > 0 {
		hold := time.NewTimer(a.cfg.HoldDelay)
		select {
		case <-ctx.Done():
			hold.Stop()
			return ctx.Err()
		case <-hold.C:
		}
	}

	if a.cfg.Duration > 0 && from != 0 {
		ticker := time.NewTicker(a.cfg.FrameInterval)
		defer ticker.Stop()
		start := time.Now()

	animate:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				p := a.Progress(now.Sub(start))
				if p >= 1 {
					break animate
				}
				frame(a.Value(from, p))
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	frame(0)
	return nil
}

// #endregion animator
