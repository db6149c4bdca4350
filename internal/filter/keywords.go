package filter

import (
	"regexp"
	"strings"
)

// wordPattern matches maximal runs of lowercase Italian letters (including the
// accented range) of length ≥ 4. The input is lowercased before matching, so
// the character class only needs the lowercase range. The {4,} quantifier is
// the survey-token minimum length; shorter expanded synonyms are admitted
// separately via the extractor's expandedMinLength.
var wordPattern = regexp.MustCompile(`[a-zàèìòù]{4,}`)

// Extractor derives the candidate keyword set from free-form survey text.
// It is pure and safe for concurrent use once constructed.
type Extractor struct {
	minLength         int
	expandedMinLength int
	stopWords         map[string]struct{}
}

// ExtractorOption is a functional option for [NewExtractor].
type ExtractorOption func(*Extractor)

// WithMinLength sets the minimum rune length for survey-derived tokens.
// Defaults to 4. Values below 4 still tokenize with the length-4 word pattern;
// the relaxed bound only applies to expanded synonyms.
func WithMinLength(n int) ExtractorOption {
	return func(e *Extractor) { e.minLength = n }
}

// WithExpandedMinLength sets the minimum rune length for externally supplied
// (synonym-expanded) keywords. Defaults to 3.
func WithExpandedMinLength(n int) ExtractorOption {
	return func(e *Extractor) { e.expandedMinLength = n }
}

// WithExtraStopWords appends entries to the shared default stop-word list.
func WithExtraStopWords(words []string) ExtractorOption {
	return func(e *Extractor) {
		for _, w := range words {
			e.stopWords[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
		}
	}
}

// NewExtractor creates an [Extractor] seeded with the shared default
// stop-word list.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		minLength:         4,
		expandedMinLength: 3,
		stopWords:         make(map[string]struct{}, len(defaultStopWords)),
	}
	for _, w := range defaultStopWords {
		e.stopWords[w] = struct{}{}
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract lowercases the survey text, tokenizes it, drops stop words and
// duplicates, and returns the surviving keywords in discovery order.
//
// An empty result is a meaningful signal, not an error at this level: the
// engine converts it into [ErrNoKeywords] so callers can distinguish "nothing
// to filter with" from "nothing matched".
func (e *Extractor) Extract(surveyText string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(surveyText), -1)

	var keywords []string
	seen := make(map[string]struct{}, len(raw))
	for _, tok := range raw {
		if len([]rune(tok)) < e.minLength {
			continue
		}
		if _, stop := e.stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

// MergeExpanded unions externally supplied synonym keywords into an extracted
// set, preserving order: survey-derived keywords first, then expanded terms in
// their given order. Expanded terms pass the same stop-word filter but the
// relaxed expandedMinLength bound, and duplicates of either set are dropped.
func (e *Extractor) MergeExpanded(keywords []string, expanded []string) []string {
	if len(expanded) == 0 {
		return keywords
	}

	merged := make([]string, 0, len(keywords)+len(expanded))
	seen := make(map[string]struct{}, len(keywords)+len(expanded))
	for _, kw := range keywords {
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		merged = append(merged, kw)
	}

	for _, raw := range expanded {
		kw := strings.ToLower(strings.TrimSpace(raw))
		if len([]rune(kw)) < e.expandedMinLength {
			continue
		}
		if _, stop := e.stopWords[kw]; stop {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		merged = append(merged, kw)
	}
	return merged
}
