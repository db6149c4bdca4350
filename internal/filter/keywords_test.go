package filter

import (
	"slices"
	"testing"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "survey sentence drops filler and units",
			text: "Dobbiamo fare uno scavo di circa 120 metri quadri nella zona nord",
			want: []string{"scavo", "nord"},
		},
		{
			name: "duplicates kept once in discovery order",
			text: "tinteggiatura pareti, poi ancora tinteggiatura del soffitto",
			want: []string{"tinteggiatura", "pareti", "ancora", "soffitto"},
		},
		{
			name: "accented vowels are part of the token",
			text: "verificare umidità nella muratura",
			want: []string{"verificare", "umidità", "muratura"},
		},
		{
			name: "digits split tokens",
			text: "scavo120fondazione",
			want: []string{"scavo", "fondazione"},
		},
		{
			name: "short tokens never surface",
			text: "il re del mq ha tre ml",
			want: nil,
		},
		{
			name: "only stop words yields nothing",
			text: "quindi diciamo che anche sopra sotto siamo circa",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.Extract(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractor_ExtraStopWords(t *testing.T) {
	t.Parallel()

	e := NewExtractor(WithExtraStopWords([]string{"Cantiere", " pareti "}))
	got := e.Extract("tinteggiatura pareti del cantiere")
	want := []string{"tinteggiatura"}
	if !slices.Equal(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtractor_MergeExpanded(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	tests := []struct {
		name     string
		keywords []string
		expanded []string
		want     []string
	}{
		{
			name:     "expanded appended after survey keywords",
			keywords: []string{"scavo"},
			expanded: []string{"sbancamento", "sterro"},
			want:     []string{"scavo", "sbancamento", "sterro"},
		},
		{
			name:     "duplicates across the two sets dropped",
			keywords: []string{"scavo", "persiane"},
			expanded: []string{"scavo", "oscuranti", "persiane"},
			want:     []string{"scavo", "persiane", "oscuranti"},
		},
		{
			name:     "expanded admits three-rune terms",
			keywords: []string{"massetto"},
			expanded: []string{"cls", "mv"},
			want:     []string{"massetto", "cls"},
		},
		{
			name:     "expanded entries are normalized and stop-filtered",
			keywords: []string{"scavo"},
			expanded: []string{"  Sbancamento ", "METRI"},
			want:     []string{"scavo", "sbancamento"},
		},
		{
			name:     "nil expanded returns input unchanged",
			keywords: []string{"scavo"},
			expanded: nil,
			want:     []string{"scavo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := e.MergeExpanded(tt.keywords, tt.expanded)
			if !slices.Equal(got, tt.want) {
				t.Errorf("MergeExpanded(%v, %v) = %v, want %v", tt.keywords, tt.expanded, got, tt.want)
			}
		})
	}
}
