package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [Chain] fails or is behind an
// open breaker.
var ErrAllFailed = errors.New("resilience: all providers failed")

// entry pairs a provider value with its dedicated breaker.
type entry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Chain wraps a primary and zero or more fallback instances of the same
// provider type. When the primary fails (or its breaker is open), the next
// healthy fallback is tried in registration order.
//
// Chain is safe for concurrent use after all fallbacks are registered.
type Chain[T any] struct {
	entries []entry[T]
	cfg     BreakerConfig
}

// NewChain creates a [Chain] with primary as the first entry. cfg.Name is
// overridden per entry; the other fields apply to every breaker created.
func NewChain[T any](primary T, primaryName string, cfg BreakerConfig) *Chain[T] {
	c := &Chain[T]{cfg: cfg}
	c.add(primaryName, primary)
	return c
}

// AddFallback appends a fallback provider, tried after all earlier entries.
func (c *Chain[T]) AddFallback(name string, fallback T) {
	c.add(name, fallback)
}

// AllOpen reports whether every entry's breaker is currently rejecting calls.
// Used by readiness checks: a chain with no admitting entry cannot serve.
func (c *Chain[T]) AllOpen() bool {
	for i := range c.entries {
		if !c.entries[i].breaker.Open() {
			return false
		}
	}
	return len(c.entries) > 0
}

func (c *Chain[T]) add(name string, value T) {
	cfg := c.cfg
	cfg.Name = name
	c.entries = append(c.entries, entry[T]{
		name:    name,
		value:   value,
		breaker: NewBreaker(cfg),
	})
}

// Do tries fn against each entry in order until one succeeds. Entries behind
// an open breaker are skipped. Returns [ErrAllFailed] wrapped with the last
// error when every entry fails.
//
// This is a package-level function because Go does not support method-level
// type parameters for the result type.
func Do[T any, R any](c *Chain[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range c.entries {
		e := &c.entries[i]
		var result R
		err := e.breaker.Do(func() error {
			var innerErr error
			result, innerErr = fn(e.value)
			return innerErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("resilience: skipping provider (breaker open)", "provider", e.name)
		} else {
			slog.Warn("resilience: provider failed, trying next",
				"provider", e.name, "error", err)
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
