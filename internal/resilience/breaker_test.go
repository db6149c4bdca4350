package resilience

import (
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("test error")

func TestNewBreaker_Defaults(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test"})
	if b.maxFailures != 3 {
		t.Errorf("maxFailures = %d, want 3", b.maxFailures)
	}
	if b.coolDown != 30*time.Second {
		t.Errorf("coolDown = %v, want 30s", b.coolDown)
	}
	if b.Open() {
		t.Error("new breaker must start closed")
	}
}

func TestBreaker_ClosedAllowsCalls(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test"})
	called := false
	err := b.Do(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("fn was not called")
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 3, CoolDown: time.Hour})

	for i := 0; i < 3; i++ {
		_ = b.Do(func() error { return errTest })
	}
	if !b.Open() {
		t.Fatal("breaker should be open after 3 failures")
	}

	err := b.Do(func() error {
		t.Fatal("fn must not run while open")
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 3, CoolDown: time.Hour})

	_ = b.Do(func() error { return errTest })
	_ = b.Do(func() error { return errTest })
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return errTest })
	_ = b.Do(func() error { return errTest })

	if b.Open() {
		t.Fatal("breaker opened although failures were never consecutive enough")
	}
}

func TestBreaker_ProbeClosesOnSuccess(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1, CoolDown: 5 * time.Millisecond})
	_ = b.Do(func() error { return errTest })
	if !b.Open() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(10 * time.Millisecond)

	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if b.Open() {
		t.Fatal("breaker should be closed after a successful probe")
	}
}

func TestBreaker_ProbeReopensOnFailure(t *testing.T) {
	t.Parallel()

	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1, CoolDown: 5 * time.Millisecond})
	_ = b.Do(func() error { return errTest })

	time.Sleep(10 * time.Millisecond)

	if err := b.Do(func() error { return errTest }); !errors.Is(err, errTest) {
		t.Fatalf("probe err = %v, want errTest", err)
	}
	if !b.Open() {
		t.Fatal("breaker should be open again after a failed probe")
	}

	// Immediately after the failed probe the cool-down restarts.
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen during restarted cool-down", err)
	}
}
