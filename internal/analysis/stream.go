package analysis

import (
	"encoding/json"
	"log/slog"
)

// rowScanner extracts complete top-level JSON objects from an incrementally
// arriving model reply. The model emits a JSON array of row objects, usually
// wrapped in markdown fences and sometimes preceded by chatter; the scanner
// ignores everything outside balanced {...} groups, so fences, brackets, and
// commas never need explicit handling.
//
// Feed returns each row as soon as its closing brace arrives, which is what
// lets the analysis endpoint stream line items while the model is still
// generating the tail of the array.
type rowScanner struct {
	buf      []byte
	depth    int
	inString bool
	escaped  bool
}

// Feed consumes the next chunk of model output and returns the rows completed
// by it. Objects that fail to decode as [EstimateRow] are skipped with a
// warning; one malformed row must not kill a stream carrying hundreds.
func (s *rowScanner) Feed(chunk string) []EstimateRow {
	var rows []EstimateRow
	for i := 0; i < len(chunk); i++ {
		c := chunk[i]

		if s.depth == 0 {
			if c == '{' {
				s.depth = 1
				s.buf = append(s.buf[:0], c)
			}
			continue
		}

		s.buf = append(s.buf, c)

		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == '"':
				s.inString = false
			}
			continue
		}

		switch c {
		case '"':
			s.inString = true
		case '{':
			s.depth++
		case '}':
			s.depth--
			if s.depth == 0 {
				if row, ok := decodeRow(s.buf); ok {
					rows = append(rows, row)
				}
			}
		}
	}
	return rows
}

func decodeRow(data []byte) (EstimateRow, bool) {
	var row EstimateRow
	if err := json.Unmarshal(data, &row); err != nil {
		slog.Warn("analysis: skipping malformed row object", "error", err)
		return EstimateRow{}, false
	}
	return row, true
}
