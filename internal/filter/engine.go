// Package filter implements the relevance filtering engine that selects which
// price-list rows are worth forwarding to the generative model when the full
// list cannot fit the model's input budget.
//
// The pipeline is: keyword extraction with stop-word suppression
// ([Extractor]), per-keyword substring/stem scoring with top-K admission
// (scorer), and ranking plus compact serialization under a character budget
// (capper). [Engine] runs the pipeline synchronously; [Runner] wraps it in a
// bounded asynchronous execution context so large datasets never block the
// caller's interactive path.
//
// The pipeline is deterministic: identical inputs produce an identical
// selection in identical order.
package filter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/stimaworks/computovoce/internal/pricelist"
)

// ErrNoKeywords is returned by [Engine.Filter] when the survey text yields no
// usable keywords after stop-word filtering. It is a signal, not a failure:
// callers should fall back to the unfiltered price list (or skip price-list
// augmentation), never treat it as "nothing relevant matched".
var ErrNoKeywords = errors.New("filter: no usable keywords in survey text")

// Config holds the engine's tunables. The zero value is usable: every field
// falls back to the baseline defaults below.
type Config struct {
	// MinKeywordLength is the minimum rune length for survey-derived keywords.
	// Default 4.
	MinKeywordLength int

	// ExpandedMinLength is the minimum rune length for synonym-expanded
	// keywords. Default 3.
	ExpandedMinLength int

	// TopPerKeyword caps how many new rows a single keyword may admit into the
	// selection. Default 5.
	TopPerKeyword int

	// MaxRows is the global cap on the selected row count. Default 12000.
	MaxRows int

	// MaxFieldLength truncates each cell to this many runes in the compact
	// transfer form. Default 200. Zero or negative disables truncation.
	MaxFieldLength int

	// TransferBudget is the maximum character length of the serialized payload
	// handed to the completion provider. Default 3_200_000 (~800K tokens at
	// ~4 chars/token). Zero or negative disables the cap.
	TransferBudget int

	// ExtraStopWords extends the shared default stop-word list.
	ExtraStopWords []string
}

// Baseline defaults, exposed for tests and config validation messages.
const (
	DefaultMinKeywordLength  = 4
	DefaultExpandedMinLength = 3
	DefaultTopPerKeyword     = 5
	DefaultMaxRows           = 12000
	DefaultMaxFieldLength    = 200
	DefaultTransferBudget    = 3_200_000
)

func (c Config) withDefaults() Config {
	if c.MinKeywordLength <= 0 {
		c.MinKeywordLength = DefaultMinKeywordLength
	}
	if c.ExpandedMinLength <= 0 {
		c.ExpandedMinLength = DefaultExpandedMinLength
	}
	if c.TopPerKeyword <= 0 {
		c.TopPerKeyword = DefaultTopPerKeyword
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.MaxFieldLength == 0 {
		c.MaxFieldLength = DefaultMaxFieldLength
	}
	if c.TransferBudget == 0 {
		c.TransferBudget = DefaultTransferBudget
	}
	return c
}

// Request is one filtering job: the survey text plus the full normalized row
// sequence, optionally augmented with LLM-expanded synonym keywords.
//
// Rows is shared by reference and treated strictly read-only.
type Request struct {
	SurveyText       string
	Rows             []pricelist.Row
	ExpandedKeywords []string
}

// Result is the immutable outcome of one filtering run. It is the only
// artifact that crosses the engine boundary outward.
type Result struct {
	// Rows is the selected subset, ordered by descending cumulative relevance
	// score. Downstream truncation drops from the tail, so order matters.
	Rows []pricelist.Row

	// CompactText is the serialized transfer form of Rows after field
	// truncation and budget capping.
	CompactText string

	// Keywords is the final keyword set used for scoring, in processing order.
	Keywords []string

	// SelectedCount is the number of rows in Rows (after budget capping).
	SelectedCount int

	// BudgetDropped counts selected rows that were discarded to fit the
	// transfer budget. Reported for observability; never an error.
	BudgetDropped int

	// Duration is how long the pipeline took.
	Duration time.Duration
}

// Engine runs the filtering pipeline synchronously. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	cfg       Config
	extractor *Extractor
}

// New creates an [Engine], applying defaults for any zero Config field.
func New(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg: cfg,
		extractor: NewExtractor(
			WithMinLength(cfg.MinKeywordLength),
			WithExpandedMinLength(cfg.ExpandedMinLength),
			WithExtraStopWords(cfg.ExtraStopWords),
		),
	}
}

// Filter runs extraction, scoring, and capping over req and returns the
// selection. Returns [ErrNoKeywords] when the survey text produces no usable
// keywords — the caller decides between sending the full list and skipping
// augmentation. A keyword set that simply matches nothing yields a Result
// with SelectedCount == 0, which is a normal outcome.
func (e *Engine) Filter(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	keywords := e.extractor.MergeExpanded(
		e.extractor.Extract(req.SurveyText),
		req.ExpandedKeywords,
	)
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}

	// Lowercase every description once; the scorer scans them per keyword.
	descs := make([]string, len(req.Rows))
	for i, r := range req.Rows {
		descs[i] = strings.ToLower(r.RawText)
	}

	state := scoreKeywords(descs, keywords, e.cfg.TopPerKeyword, e.cfg.MaxRows)

	ranked := state.ranked()
	if len(ranked) > e.cfg.MaxRows {
		ranked = ranked[:e.cfg.MaxRows]
	}

	selected := make([]pricelist.Row, len(ranked))
	lines := make([]string, len(ranked))
	for i, idx := range ranked {
		selected[i] = req.Rows[idx]
		lines[i] = compactLine(req.Rows[idx].RawText, e.cfg.MaxFieldLength)
	}

	kept := capLines(lines, e.cfg.TransferBudget)
	dropped := len(selected) - kept
	if dropped > 0 {
		slog.Info("filter: selection trimmed to transfer budget",
			"selected", len(selected),
			"kept", kept,
			"dropped", dropped,
			"budget_chars", e.cfg.TransferBudget,
		)
		selected = selected[:kept]
		lines = lines[:kept]
	}

	res := &Result{
		Rows:          selected,
		CompactText:   strings.Join(lines, "\n"),
		Keywords:      keywords,
		SelectedCount: len(selected),
		BudgetDropped: dropped,
		Duration:      time.Since(start),
	}

	slog.Debug("filter: pipeline complete",
		"keywords", len(keywords),
		"rows_in", len(req.Rows),
		"rows_selected", res.SelectedCount,
		"duration", res.Duration,
	)
	return res, nil
}

// CapUnfiltered serializes the full row list in the compact transfer form
// under the configured budget. Used for the degraded path when no keywords
// could be extracted or the async runner failed: the caller still needs a
// payload that respects the completion provider's input ceiling.
func (e *Engine) CapUnfiltered(rows []pricelist.Row) (compact string, kept int, dropped int) {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = compactLine(r.RawText, e.cfg.MaxFieldLength)
	}
	kept = capLines(lines, e.cfg.TransferBudget)
	dropped = len(lines) - kept
	if dropped > 0 {
		slog.Info("filter: unfiltered payload trimmed to transfer budget",
			"rows", len(rows), "kept", kept, "dropped", dropped)
	}
	return strings.Join(lines[:kept], "\n"), kept, dropped
}
