// Package pricelist ingests uploaded price-list spreadsheets and normalizes
// them into the flat row form consumed by the relevance filter.
//
// The normalizer is format-agnostic about the table layout: it does not look
// for headers or named columns. Any row with at least two non-empty cells is
// kept, its cells trimmed and joined with " | " into a single RawText string.
// Everything else (captions, separators, empty padding rows) is discarded.
package pricelist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellSeparator joins the non-empty cells of a normalized row.
// The capper later projects it to a lighter delimiter for transfer.
const CellSeparator = " | "

// minFilledCells is the minimum number of non-empty cells a spreadsheet row
// must have to be treated as a price-list line rather than a caption.
const minFilledCells = 2

// ErrNoSheets is returned when the workbook contains no sheets at all.
var ErrNoSheets = errors.New("pricelist: workbook has no sheets")

// ErrNoUsableRows is returned when the source parsed correctly but no row had
// enough non-empty cells to qualify as a price-list line. Callers must surface
// this to the user before any analysis runs — the filter never sees zero-row
// input silently.
var ErrNoUsableRows = errors.New("pricelist: no usable table rows found")

// Row is one normalized price-list line. Rows are immutable once created and
// have no identity beyond their position in the ingested sequence.
type Row struct {
	// RawText holds all non-empty cell values of the original row, trimmed and
	// joined by [CellSeparator].
	RawText string `json:"rawText"`
}

// Parse reads a price-list file and returns its normalized rows. The format is
// chosen from the filename extension: ".csv" is parsed as CSV, everything else
// is handed to excelize (xlsx, xlsm, xltx, ods).
func Parse(r io.Reader, filename string) ([]Row, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return ParseCSV(r)
	}
	return ParseWorkbook(r)
}

// ParseWorkbook reads a spreadsheet workbook and normalizes the first sheet.
// Returns [ErrNoSheets] for an empty workbook and [ErrNoUsableRows] when no
// row qualifies.
func ParseWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("pricelist: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rawRows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("pricelist: read sheet %q: %w", sheets[0], err)
	}

	return normalize(rawRows)
}

// ParseCSV reads a CSV file and normalizes its records. Ragged records are
// accepted; quoting follows RFC 4180 with lazy quotes for real-world exports.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rawRows [][]string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("pricelist: read csv: %w", err)
		}
		rawRows = append(rawRows, record)
	}

	return normalize(rawRows)
}

// normalize applies the ≥2-non-empty-cells rule to raw cell rows.
func normalize(rawRows [][]string) ([]Row, error) {
	var rows []Row
	for _, cells := range rawRows {
		var filled []string
		for _, c := range cells {
			if t := strings.TrimSpace(c); t != "" {
				filled = append(filled, t)
			}
		}
		if len(filled) < minFilledCells {
			continue
		}
		rows = append(rows, Row{RawText: strings.Join(filled, CellSeparator)})
	}

	if len(rows) == 0 {
		return nil, ErrNoUsableRows
	}
	return rows, nil
}
