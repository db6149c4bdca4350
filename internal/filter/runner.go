package filter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// RunnerConfig holds tuning knobs for a [Runner].
type RunnerConfig struct {
	// MaxConcurrent bounds how many filtering computations may run at once.
	// Default 4.
	MaxConcurrent int64

	// Timeout is the per-request deadline for one filtering computation.
	// Default 30s.
	Timeout time.Duration
}

// Runner executes the filtering pipeline in an isolated goroutine, bounded by
// a weighted semaphore, so scoring tens of thousands of rows never blocks a
// caller's interactive path and cannot pile up without limit.
//
// Requests carry a session key: concurrent requests for the same key are
// coalesced into a single computation via singleflight, so at most one
// filtering run per user action is ever in flight.
//
// Every execution slot is released deterministically on all exit paths,
// including panics inside the pipeline, which are converted into explicit
// errors rather than crashing the process. Inputs are owned read-only by the
// worker goroutine for the duration of the computation; the result is
// immutable.
type Runner struct {
	engine  *Engine
	sem     *semaphore.Weighted
	group   singleflight.Group
	timeout time.Duration
}

// NewRunner creates a [Runner] around engine, applying defaults for any zero
// RunnerConfig field.
func NewRunner(engine *Engine, cfg RunnerConfig) *Runner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Runner{
		engine:  engine,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrent),
		timeout: cfg.Timeout,
	}
}

// Filter dispatches req to an isolated worker goroutine and blocks until the
// result, an explicit error, or the per-request timeout. This is the caller's
// only suspension point in the pipeline.
//
// sessionKey identifies the user action; concurrent calls with the same
// non-empty key share one computation and one result. An empty key disables
// coalescing.
//
// Errors are never silent empty results: [ErrNoKeywords] passes through
// unchanged, timeouts and cancellations surface as wrapped context errors,
// and pipeline panics surface as worker errors. Callers recover by falling
// back to an unfiltered payload or aborting with a user-visible message.
func (r *Runner) Filter(ctx context.Context, sessionKey string, req Request) (*Result, error) {
	if sessionKey == "" {
		return r.runOne(ctx, req)
	}

	v, err, shared := r.group.Do(sessionKey, func() (any, error) {
		return r.runOne(ctx, req)
	})
	if shared {
		slog.Debug("filter: coalesced duplicate request", "session", sessionKey)
	}
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// runOne acquires an execution slot, runs the pipeline in its own goroutine,
// and waits for completion or deadline. On timeout the computation is
// abandoned: the goroutine finishes in the background and releases its slot
// then, so abandonment stays bounded by MaxConcurrent.
func (r *Runner) runOne(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("filter: acquire worker slot: %w", err)
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer r.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				slog.Error("filter: worker panic", "panic", p)
				done <- outcome{err: fmt.Errorf("filter: worker panic: %v", p)}
			}
		}()

		res, err := r.engine.Filter(ctx, req)
		done <- outcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("filter: worker: %w", ctx.Err())
	}
}
