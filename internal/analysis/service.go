package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stimaworks/computovoce/internal/filter"
	"github.com/stimaworks/computovoce/internal/observe"
	"github.com/stimaworks/computovoce/internal/pricelist"
	"github.com/stimaworks/computovoce/internal/resilience"
	"github.com/stimaworks/computovoce/pkg/provider/llm"
)

// Completion pairs a completion provider with the name used in metrics and
// logs. The resilience chain is built over this pair so fallback providers
// stay distinguishable in telemetry.
type Completion struct {
	Name     string
	Provider llm.Provider
}

// Request is one analysis job.
type Request struct {
	// SurveyText is the transcribed (or typed) site-survey text.
	SurveyText string

	// Rows is the normalized price list. Ignored unless PrezzarioMode is set.
	Rows []pricelist.Row

	// PrezzarioMode selects the price-list-backed estimate prompt. When false
	// the private-quote prompt is used and Rows plays no part.
	PrezzarioMode bool

	// SessionKey identifies the user action for filter-run coalescing.
	// Optional.
	SessionKey string

	// DisableExpansion skips the synonym-expansion call even when an expander
	// is configured. Filtering then runs on survey-derived keywords only.
	DisableExpansion bool
}

// Service orchestrates one analysis: keyword expansion, relevance filtering,
// prompt assembly, streamed completion, and incremental row extraction.
// It is safe for concurrent use.
type Service struct {
	completions *resilience.Chain[Completion]
	expander    *Expander
	engine      *filter.Engine
	runner      *filter.Runner
	metrics     *observe.Metrics
}

// NewService creates a [Service]. expander may be nil, in which case filtering
// runs on survey-derived keywords only. metrics defaults to
// [observe.DefaultMetrics] when nil.
func NewService(completions *resilience.Chain[Completion], expander *Expander, engine *filter.Engine, runner *filter.Runner, metrics *observe.Metrics) *Service {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Service{
		completions: completions,
		expander:    expander,
		engine:      engine,
		runner:      runner,
		metrics:     metrics,
	}
}

// Analyze runs the full pipeline for req and calls emit for every estimate
// row as soon as it is parseable from the model's output. emit is called from
// the caller's goroutine; returning an error from it aborts the analysis.
//
// Filtering failures degrade instead of aborting: when no keywords can be
// extracted, or the filter worker fails, the full price list is sent capped
// to the transfer budget. Only context cancellation and completion failure
// across the whole provider chain surface as errors.
func (s *Service) Analyze(ctx context.Context, req Request, emit func(EstimateRow) error) error {
	ctx, span := observe.StartSpan(ctx, "analysis.Analyze")
	defer span.End()

	s.metrics.ActiveAnalyses.Add(ctx, 1)
	defer s.metrics.ActiveAnalyses.Add(ctx, -1)

	prompt, err := s.buildPrompt(ctx, req)
	if err != nil {
		return err
	}

	return s.streamRows(ctx, prompt, emit)
}

// buildPrompt assembles the completion prompt, running expansion and
// filtering when a price list is in play.
func (s *Service) buildPrompt(ctx context.Context, req Request) (string, error) {
	if !req.PrezzarioMode {
		return BuildQuotePrompt(req.SurveyText), nil
	}

	var expanded []string
	if s.expander != nil && !req.DisableExpansion {
		expanded = s.expander.Expand(ctx, req.SurveyText)
	}

	res, err := s.runner.Filter(ctx, req.SessionKey, filter.Request{
		SurveyText:       req.SurveyText,
		Rows:             req.Rows,
		ExpandedKeywords: expanded,
	})
	switch {
	case err == nil:
		s.metrics.FilterDuration.Record(ctx, res.Duration.Seconds())
		s.metrics.RowsSelected.Add(ctx, int64(res.SelectedCount))
		s.metrics.RowsDropped.Add(ctx, int64(res.BudgetDropped))
		observe.Logger(ctx).Info("analysis: price list filtered",
			"rows_in", len(req.Rows),
			"rows_selected", res.SelectedCount,
			"keywords", len(res.Keywords),
		)
		return BuildEstimatePrompt(req.SurveyText, res.CompactText), nil

	case errors.Is(err, filter.ErrNoKeywords):
		return s.fallbackPrompt(ctx, req, "no_keywords", err), nil

	case ctx.Err() != nil:
		return "", fmt.Errorf("analysis: filter: %w", ctx.Err())

	default:
		return s.fallbackPrompt(ctx, req, "worker_failed", err), nil
	}
}

// fallbackPrompt builds the degraded-path prompt from the unfiltered price
// list, capped to the transfer budget.
func (s *Service) fallbackPrompt(ctx context.Context, req Request, reason string, cause error) string {
	compact, kept, dropped := s.engine.CapUnfiltered(req.Rows)
	s.metrics.FallbackRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
	observe.Logger(ctx).Warn("analysis: falling back to unfiltered price list",
		"reason", reason,
		"cause", cause,
		"rows_kept", kept,
		"rows_dropped", dropped,
	)
	return BuildEstimatePrompt(req.SurveyText, compact)
}

// streamRows sends the prompt through the completion chain and emits rows as
// the reply streams in.
func (s *Service) streamRows(ctx context.Context, prompt string, emit func(EstimateRow) error) error {
	completionReq := llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: prompt}},
	}

	var used Completion
	start := time.Now()
	ch, err := resilience.Do(s.completions, func(c Completion) (<-chan llm.Chunk, error) {
		stream, serr := c.Provider.StreamCompletion(ctx, completionReq)
		s.metrics.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", c.Name),
			attribute.String("kind", "completion"),
			attribute.String("status", statusOf(serr)),
		))
		if serr != nil {
			s.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("provider", c.Name),
				attribute.String("kind", "completion"),
			))
			return nil, serr
		}
		used = c
		return stream, nil
	})
	if err != nil {
		return fmt.Errorf("analysis: completion: %w", err)
	}
	defer func() { s.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds()) }()

	var scanner rowScanner
	emitted := 0
	for chunk := range ch {
		if chunk.FinishReason == llm.FinishReasonError {
			s.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
				attribute.String("provider", used.Name),
				attribute.String("kind", "completion"),
			))
			return fmt.Errorf("analysis: completion stream failed after %d rows: %s", emitted, chunk.Text)
		}
		for _, row := range scanner.Feed(chunk.Text) {
			if err := emit(row); err != nil {
				// Drain so the provider goroutine can finish and close.
				go func() {
					for range ch {
					}
				}()
				return fmt.Errorf("analysis: emit row: %w", err)
			}
			emitted++
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analysis: stream interrupted after %d rows: %w", emitted, err)
	}
	observe.Logger(ctx).Info("analysis: estimate complete",
		"provider", used.Name,
		"rows", emitted,
		"duration", time.Since(start),
	)
	return nil
}
