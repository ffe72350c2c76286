package verify

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalToleranceBoundaries(t *testing.T) {
	e := NewLocalEngine(DefaultToleranceWindow(), nil)
	ctx := context.Background()

	pass := []float64{79, 76, 82, 80, 78.5}
	for _, off := range pass {
		if got := e.Verify(ctx, off); got != OutcomePass {
			t.Errorf("offset %.1f: expected pass, got %s", off, got)
		}
	}

	fail := []float64{75, 83, 0, 50, 250}
	for _, off := range fail {
		if got := e.Verify(ctx, off); got != OutcomeFail {
			t.Errorf("offset %.1f: expected fail, got %s", off, got)
		}
	}
}

func TestLocalEngineIsSynchronous(t *testing.T) {
	e := NewLocalEngine(DefaultToleranceWindow(), nil)
	if !e.Synchronous() || e.Mode() != ModeLocalTolerance {
		t.Fatalf("expected synchronous local engine, got mode %s", e.Mode())
	}
}

func TestDelegatedNilPredicate(t *testing.T) {
	_, err := NewDelegatedEngine(nil, nil)
	if !errors.Is(err, ErrNilPredicate) {
		t.Fatalf("expected ErrNilPredicate, got %v", err)
	}
}

func TestDelegatedSuccessIsPass(t *testing.T) {
	var seen float64
	calls := 0
	e, err := NewDelegatedEngine(func(_ context.Context, off float64) error {
		calls++
		seen = off
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("NewDelegatedEngine: %v", err)
	}
	if e.Synchronous() {
		t.Fatal("delegated engine should not report synchronous")
	}

	if got := e.Verify(context.Background(), 123.5); got != OutcomePass {
		t.Fatalf("expected pass, got %s", got)
	}
	if calls != 1 || seen != 123.5 {
		t.Fatalf("expected one call with 123.5, got %d calls with %f", calls, seen)
	}
}

func TestDelegatedAnyErrorIsFail(t *testing.T) {
	errs := []error{
		ErrRejected,
		errors.New("connection refused"),
		context.DeadlineExceeded,
	}
	for _, want := range errs {
		e, _ := NewDelegatedEngine(func(context.Context, float64) error { return want }, nil)
		if got := e.Verify(context.Background(), 10); got != OutcomeFail {
			t.Errorf("error %v: expected fail, got %s", want, got)
		}
	}
}

func TestDelegatedPanicIsFail(t *testing.T) {
	e, _ := NewDelegatedEngine(func(context.Context, float64) error { panic("boom") }, nil)
	if got := e.Verify(context.Background(), 10); got != OutcomeFail {
		t.Fatalf("expected fail on panic, got %s", got)
	}
}

func TestWithTimeoutBoundsHungPredicate(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	hung := func(context.Context, float64) error {
		<-release
		return nil
	}

	p := WithTimeout(hung, 20*time.Millisecond)
	start := time.Now()
	err := p(context.Background(), 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("timeout wrapper took too long")
	}
}

func TestWithTimeoutZeroIsPassthrough(t *testing.T) {
	called := false
	p := WithTimeout(func(context.Context, float64) error {
		called = true
		return nil
	}, 0)
	if err := p(context.Background(), 1); err != nil || !called {
		t.Fatalf("expected passthrough call, err=%v called=%v", err, called)
	}
}

func TestLocalPredicate(t *testing.T) {
	p := LocalPredicate(DefaultToleranceWindow())
	if err := p(context.Background(), 80); err != nil {
		t.Fatalf("expected 80 accepted, got %v", err)
	}
	if err := p(context.Background(), 50); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("delegated"); err != nil || m != ModeDelegated {
		t.Fatalf("ParseMode(delegated) = %s, %v", m, err)
	}
	if _, err := ParseMode("magic"); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}
