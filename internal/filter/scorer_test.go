package filter

import (
	"fmt"
	"slices"
	"testing"
)

func TestScoreKeywords_ExactBeatsStem(t *testing.T) {
	t.Parallel()

	// "scavo" matches row 1 exactly and row 0 only via the stem "scav".
	descs := []string{
		"scavi di fondazione in roccia",
		"scavo di sbancamento in terreno",
	}
	state := scoreKeywords(descs, []string{"scavo"}, 5, 100)

	if got := state.scores[1]; got != scoreExact {
		t.Errorf("exact match score = %d, want %d", got, scoreExact)
	}
	if got := state.scores[0]; got != scoreStem {
		t.Errorf("stem match score = %d, want %d", got, scoreStem)
	}
	if got := state.ranked(); !slices.Equal(got, []int{1, 0}) {
		t.Errorf("ranked = %v, want [1 0]", got)
	}
}

func TestScoreKeywords_TopKAdmission(t *testing.T) {
	t.Parallel()

	descs := make([]string, 8)
	for i := range descs {
		descs[i] = "tinteggiatura pareti interne"
	}
	state := scoreKeywords(descs, []string{"tinteggiatura"}, 3, 100)

	if got := len(state.order); got != 3 {
		t.Fatalf("admitted %d rows, want 3", got)
	}
	// Equal scores: admission follows scan order.
	if !slices.Equal(state.order, []int{0, 1, 2}) {
		t.Errorf("order = %v, want [0 1 2]", state.order)
	}
}

func TestScoreKeywords_ExactMatchesWinContestedSlots(t *testing.T) {
	t.Parallel()

	// Stem-only matches come first in scan order but must lose the single
	// admission slot to the later exact match.
	descs := []string{
		"scavi a sezione obbligata",
		"scavi di splateamento",
		"scavo di sbancamento",
	}
	state := scoreKeywords(descs, []string{"scavo"}, 1, 100)

	if !slices.Equal(state.order, []int{2}) {
		t.Errorf("order = %v, want [2]", state.order)
	}
}

func TestScoreKeywords_SelectedRowsBoostWithoutLimit(t *testing.T) {
	t.Parallel()

	// Row 0 matches both keywords exactly; row 1 only the first. The second
	// keyword must boost row 0 without consuming an admission slot.
	descs := []string{
		"demolizione e rimozione di pavimento esistente",
		"demolizione di tramezzi",
		"rimozione di controsoffitto",
	}
	state := scoreKeywords(descs, []string{"demolizione", "rimozione"}, 1, 100)

	if got := state.scores[0]; got != 2*scoreExact {
		t.Errorf("boosted score = %d, want %d", got, 2*scoreExact)
	}
	// topK=1: "demolizione" admits row 0; "rimozione" boosts row 0 and still
	// has a full slot for row 2.
	if !slices.Equal(state.order, []int{0, 2}) {
		t.Errorf("order = %v, want [0 2]", state.order)
	}
	if got := state.ranked(); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("ranked = %v, want [0 2]", got)
	}
}

func TestScoreKeywords_MaxRowsStopsProcessing(t *testing.T) {
	t.Parallel()

	descs := []string{
		"scavo di sbancamento",
		"scavo a sezione ristretta",
		"massetto di sottofondo",
	}
	// maxRows 2 is reached by the first keyword; "massetto" must be skipped.
	state := scoreKeywords(descs, []string{"scavo", "massetto"}, 5, 2)

	if got := len(state.order); got != 2 {
		t.Fatalf("admitted %d rows, want 2", got)
	}
	if _, ok := state.scores[2]; ok {
		t.Error("row 2 was scored after the row cap was reached")
	}
}

func TestScoreKeywords_Deterministic(t *testing.T) {
	t.Parallel()

	descs := make([]string, 50)
	for i := range descs {
		descs[i] = fmt.Sprintf("voce %d con scavo e massetto e intonaco", i)
	}
	keywords := []string{"scavo", "massetto", "intonaco"}

	first := scoreKeywords(descs, keywords, 5, 100).ranked()
	for run := 0; run < 5; run++ {
		got := scoreKeywords(descs, keywords, 5, 100).ranked()
		if !slices.Equal(got, first) {
			t.Fatalf("run %d: ranked = %v, want %v", run, got, first)
		}
	}
}

func TestStemOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kw   string
		want string
	}{
		{"scavo", "scav"},
		{"umidità", "umidit"},
		{"ab", "a"},
		{"a", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stemOf(tt.kw); got != tt.want {
			t.Errorf("stemOf(%q) = %q, want %q", tt.kw, got, tt.want)
		}
	}
}
