package filter

import (
	"slices"
	"strings"
)

// Per-keyword match scores. A full substring match of the keyword is worth
// twice a stem-only match; the asymmetry keeps exact vocabulary hits ahead of
// morphological near-misses when admission slots are contested.
const (
	scoreExact = 2
	scoreStem  = 1
)

// scoreState is the accumulator threaded through the per-keyword fold.
// It replaces the original design's shared mutable score map: each step
// consumes the incoming state and returns the updated one, so all mutation is
// explicit in the data flow and nothing is reachable outside the fold.
type scoreState struct {
	// scores maps row index → cumulative score across all processed keywords.
	scores map[int]int

	// order records row indexes in admission order. It doubles as the
	// selection set's deterministic iteration order and as the tie-break for
	// the final ranking.
	order []int

	// selected is the membership set backing the "already selected by an
	// earlier keyword" partition.
	selected map[int]bool
}

func newScoreState() scoreState {
	return scoreState{
		scores:   make(map[int]int),
		selected: make(map[int]bool),
	}
}

// candidate pairs a not-yet-selected row with its score for one keyword.
type candidate struct {
	idx   int
	score int
}

// scoreKeywords folds the keyword set over the row descriptions and returns
// the final score state.
//
// descs must be the lowercased row texts, indexed identically to the source
// rows; they are read-only throughout. Keywords are processed in discovery
// order. Per keyword:
//
//   - rows already selected get the keyword's score added to their cumulative
//     score, with no cap — multi-keyword overlap is rewarded freely;
//   - rows not yet selected compete for at most topK admission slots, ranked
//     by this keyword's score (exact before stem, scan order on ties).
//
// Once the selection reaches maxRows, remaining keywords are skipped entirely.
// This makes the margin keyword-order-sensitive, which is accepted behaviour:
// earlier keywords lock in their top rows before later ones compete.
func scoreKeywords(descs []string, keywords []string, topK, maxRows int) scoreState {
	state := newScoreState()
	for _, kw := range keywords {
		if len(state.order) >= maxRows {
			break
		}
		state = state.step(descs, kw, topK)
	}
	return state
}

// step processes a single keyword. The incoming state is consumed: callers
// must use only the returned value.
func (s scoreState) step(descs []string, kw string, topK int) scoreState {
	stem := stemOf(kw)

	var candidates []candidate
	for i, d := range descs {
		var score int
		switch {
		case strings.Contains(d, kw):
			score = scoreExact
		case stem != "" && strings.Contains(d, stem):
			score = scoreStem
		default:
			continue
		}

		if s.selected[i] {
			// Already admitted by an earlier keyword: boost without limit.
			s.scores[i] += score
			continue
		}
		candidates = append(candidates, candidate{idx: i, score: score})
	}

	// Rank new rows by this keyword's score; the stable sort keeps scan order
	// as the tie-break, which in turn keeps the whole pipeline deterministic.
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return b.score - a.score
	})

	limit := min(len(candidates), topK)
	for _, c := range candidates[:limit] {
		s.selected[c.idx] = true
		s.order = append(s.order, c.idx)
		s.scores[c.idx] = c.score
	}

	return s
}

// stemOf returns kw with its final rune removed — a crude but effective
// heuristic for Italian inflectional endings ("scavi"/"scavo" share "scav").
// Single-rune keywords have no usable stem.
func stemOf(kw string) string {
	runes := []rune(kw)
	if len(runes) < 2 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

// ranked returns the selected row indexes sorted by cumulative score
// descending. The stable sort preserves admission order between equal scores.
func (s scoreState) ranked() []int {
	out := make([]int, len(s.order))
	copy(out, s.order)
	slices.SortStableFunc(out, func(a, b int) int {
		return s.scores[b] - s.scores[a]
	})
	return out
}
