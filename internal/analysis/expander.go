package analysis

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stimaworks/computovoce/internal/observe"
	"github.com/stimaworks/computovoce/pkg/provider/llm"
)

// expansionInputLimit caps how much survey text is sent to the expansion
// model. Synonyms for the first few thousand characters cover the vocabulary
// of the whole survey in practice; the full text still drives extraction.
const expansionInputLimit = 3000

// minExpandedLength drops expanded keywords shorter than this many runes
// before they reach the filter.
const minExpandedLength = 3

// Expander asks a completion provider for regional price-list synonyms of the
// work items mentioned in a survey text. The result augments the filter's
// keyword set; expansion failure is never fatal to an analysis.
type Expander struct {
	provider llm.Provider
	name     string
	metrics  *observe.Metrics
}

// NewExpander creates an [Expander] backed by provider. name labels the
// provider in metrics and logs.
func NewExpander(provider llm.Provider, name string, metrics *observe.Metrics) *Expander {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Expander{provider: provider, name: name, metrics: metrics}
}

// Expand returns lowercase synonym keywords for surveyText, or nil when the
// provider fails or returns nothing usable. Callers proceed with the
// unexpanded keyword set on nil; the degradation is logged, not raised.
func (e *Expander) Expand(ctx context.Context, surveyText string) []string {
	input := surveyText
	if runes := []rune(input); len(runes) > expansionInputLimit {
		input = string(runes[:expansionInputLimit])
	}

	start := time.Now()
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: "user", Content: buildExpansionPrompt(input)}},
	})
	e.metrics.ExpansionDuration.Record(ctx, time.Since(start).Seconds())
	e.metrics.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", e.name),
		attribute.String("kind", "expansion"),
		attribute.String("status", statusOf(err)),
	))
	if err != nil {
		e.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", e.name),
			attribute.String("kind", "expansion"),
		))
		observe.Logger(ctx).Warn("analysis: keyword expansion failed, continuing without synonyms",
			"provider", e.name, "error", err)
		return nil
	}

	keywords := parseExpansion(resp.Content)
	observe.Logger(ctx).Debug("analysis: keyword expansion complete",
		"provider", e.name, "keywords", len(keywords))
	return keywords
}

// parseExpansion extracts the keyword list from the model's reply: markdown
// fences stripped, each entry lowercased, trimmed, and length-checked.
// Returns nil when the reply is not a JSON string array.
func parseExpansion(raw string) []string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var parsed []any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		slog.Warn("analysis: expansion reply is not a JSON array", "error", err)
		return nil
	}

	keywords := make([]string, 0, len(parsed))
	for _, v := range parsed {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.ToLower(strings.TrimSpace(s))
		if len([]rune(s)) >= minExpandedLength {
			keywords = append(keywords, s)
		}
	}
	return keywords
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
