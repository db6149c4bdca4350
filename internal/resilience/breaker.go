// Package resilience provides the failover primitives that keep an analysis
// usable when a completion or transcription backend degrades.
//
// [Breaker] is a three-state circuit breaker (closed → open → half-open) with
// a single-probe recovery policy. [Chain] composes a primary provider with
// ordered fallbacks, each behind its own breaker, so a failing primary is
// bypassed instead of stalling every estimate request.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] while the breaker is open and the
// cool-down has not yet elapsed.
var ErrOpen = errors.New("resilience: breaker open")

// BreakerConfig holds tuning knobs for a [Breaker].
type BreakerConfig struct {
	// Name is a human-readable label used in log messages.
	Name string

	// MaxFailures is the number of consecutive failures before the breaker
	// opens. Default 3.
	MaxFailures int

	// CoolDown is how long the breaker stays open before allowing a single
	// probe call. Default 30s.
	CoolDown time.Duration
}

// Breaker is a circuit breaker with a single-probe recovery policy: after the
// cool-down one call is let through; its outcome decides between closing and
// re-opening.
type Breaker struct {
	name        string
	maxFailures int
	coolDown    time.Duration

	mu          sync.Mutex
	failures    int
	open        bool
	probing     bool
	lastFailure time.Time
}

// NewBreaker creates a [Breaker], applying defaults for zero config fields.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	return &Breaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		coolDown:    cfg.CoolDown,
	}
}

// Do runs fn if the breaker admits the call, updating state from the outcome.
// Returns [ErrOpen] without calling fn when the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
	} else {
		b.onSuccess()
	}
	return err
}

// Open reports whether the breaker is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open && time.Since(b.lastFailure) < b.coolDown
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	if time.Since(b.lastFailure) < b.coolDown {
		return ErrOpen
	}
	if b.probing {
		// Another goroutine already holds the probe slot.
		return ErrOpen
	}
	b.probing = true
	slog.Info("resilience: breaker probing", "name", b.name)
	return nil
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.lastFailure = time.Now()
	if b.probing {
		b.probing = false
		slog.Warn("resilience: breaker re-opened after failed probe", "name", b.name)
		return
	}
	b.failures++
	if !b.open && b.failures >= b.maxFailures {
		b.open = true
		slog.Warn("resilience: breaker opened",
			"name", b.name, "consecutive_failures", b.failures)
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	if b.probing {
		slog.Info("resilience: breaker closed after successful probe", "name", b.name)
	}
	b.open = false
	b.probing = false
	b.failures = 0
}
