package filter

import (
	"strings"
	"testing"
)

func TestCompactLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		raw         string
		maxFieldLen int
		want        string
	}{
		{
			name:        "separator swapped",
			raw:         "A01 | Scavo di sbancamento | mc | 12,50",
			maxFieldLen: 200,
			want:        "A01; Scavo di sbancamento; mc; 12,50",
		},
		{
			name:        "long field truncated per rune",
			raw:         "A01 | " + strings.Repeat("à", 10),
			maxFieldLen: 4,
			want:        "A01; àààà",
		},
		{
			name:        "zero limit disables truncation",
			raw:         "A01 | " + strings.Repeat("x", 300),
			maxFieldLen: 0,
			want:        "A01; " + strings.Repeat("x", 300),
		},
		{
			name:        "single cell row untouched",
			raw:         "nota di testata",
			maxFieldLen: 200,
			want:        "nota di testata",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := compactLine(tt.raw, tt.maxFieldLen); got != tt.want {
				t.Errorf("compactLine = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCapLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lines  []string
		budget int
		want   int
	}{
		{
			name:   "everything fits",
			lines:  []string{"aaaa", "bbbb"},
			budget: 9, // 4 + 1 + 4
			want:   2,
		},
		{
			name:   "tail dropped when over budget",
			lines:  []string{"aaaa", "bbbb", "cccc"},
			budget: 9,
			want:   2,
		},
		{
			name:   "newline separator counts",
			lines:  []string{"aaaa", "bbbb"},
			budget: 8,
			want:   1,
		},
		{
			name:   "at least one line survives",
			lines:  []string{"aaaaaaaa"},
			budget: 3,
			want:   1,
		},
		{
			name:   "non-positive budget disables capping",
			lines:  []string{"aaaa", "bbbb", "cccc"},
			budget: 0,
			want:   3,
		},
		{
			name:   "no lines",
			lines:  nil,
			budget: 100,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := capLines(tt.lines, tt.budget); got != tt.want {
				t.Errorf("capLines(%v, %d) = %d, want %d", tt.lines, tt.budget, got, tt.want)
			}
		})
	}
}
