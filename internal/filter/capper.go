package filter

import (
	"strings"

	"github.com/stimaworks/computovoce/internal/pricelist"
)

// compactSeparator replaces the normalizer's " | " cell separator in the
// transfer payload. One byte instead of three adds up over thousands of rows.
const compactSeparator = "; "

// compactLine projects one normalized row into its transfer form: cells
// re-joined with the light separator and each field truncated to maxFieldLen
// runes so a single anomalous cell cannot blow up the prompt.
func compactLine(rawText string, maxFieldLen int) string {
	fields := strings.Split(rawText, pricelist.CellSeparator)
	for i, f := range fields {
		runes := []rune(f)
		if maxFieldLen > 0 && len(runes) > maxFieldLen {
			fields[i] = string(runes[:maxFieldLen])
		}
	}
	return strings.Join(fields, compactSeparator)
}

// capLines determines how many of the ranked lines fit within budget chars
// when joined by newlines. Lines are dropped strictly from the tail (the
// lowest-ranked rows), and at least one line is always kept when any exists.
// A budget ≤ 0 disables capping.
func capLines(lines []string, budget int) int {
	if budget <= 0 || len(lines) == 0 {
		return len(lines)
	}

	total := 0
	for i, l := range lines {
		total += len(l)
		if i > 0 {
			total++ // newline separator
		}
		if total > budget {
			return max(i, 1)
		}
	}
	return len(lines)
}
