package resilience

import (
	"errors"
	"testing"
	"time"
)

// fake is the provider stood in for by the chain tests.
type fake struct {
	name string
	err  error
}

func TestChain_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	c := NewChain(fake{name: "primary"}, "primary", BreakerConfig{})
	c.AddFallback("backup", fake{name: "backup"})

	got, err := Do(c, func(f fake) (string, error) {
		return f.name, f.err
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "primary" {
		t.Errorf("served by %q, want primary", got)
	}
}

func TestChain_FallsBackOnFailure(t *testing.T) {
	t.Parallel()

	c := NewChain(fake{name: "primary", err: errTest}, "primary", BreakerConfig{})
	c.AddFallback("backup", fake{name: "backup"})

	got, err := Do(c, func(f fake) (string, error) {
		return f.name, f.err
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "backup" {
		t.Errorf("served by %q, want backup", got)
	}
}

func TestChain_AllFail(t *testing.T) {
	t.Parallel()

	c := NewChain(fake{name: "primary", err: errTest}, "primary", BreakerConfig{})
	c.AddFallback("backup", fake{name: "backup", err: errTest})

	_, err := Do(c, func(f fake) (string, error) {
		return f.name, f.err
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestChain_OpenBreakerSkipsEntry(t *testing.T) {
	t.Parallel()

	c := NewChain(fake{name: "primary", err: errTest}, "primary",
		BreakerConfig{MaxFailures: 1, CoolDown: time.Hour})
	c.AddFallback("backup", fake{name: "backup"})

	// First call trips the primary's breaker and lands on the backup.
	if _, err := Do(c, func(f fake) (string, error) { return f.name, f.err }); err != nil {
		t.Fatalf("first Do: %v", err)
	}

	// Second call must not even invoke the primary.
	calls := 0
	got, err := Do(c, func(f fake) (string, error) {
		calls++
		return f.name, f.err
	})
	if err != nil {
		t.Fatalf("second Do: %v", err)
	}
	if got != "backup" || calls != 1 {
		t.Errorf("served by %q after %d calls, want backup after 1", got, calls)
	}
}

func TestChain_AllOpen(t *testing.T) {
	t.Parallel()

	c := NewChain(fake{name: "primary", err: errTest}, "primary",
		BreakerConfig{MaxFailures: 1, CoolDown: time.Hour})

	if c.AllOpen() {
		t.Fatal("fresh chain must not report all-open")
	}

	_, _ = Do(c, func(f fake) (string, error) { return f.name, f.err })

	if !c.AllOpen() {
		t.Fatal("chain with its only breaker open must report all-open")
	}
}
