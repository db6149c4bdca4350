// Package analysis turns a transcribed site-survey into a structured bill of
// quantities (computo metrico).
//
// The pipeline is: optional keyword synonym expansion ([Expander]), relevance
// filtering of the uploaded price list (internal/filter), prompt assembly
// (prompt.go), streamed completion through the resilience chain, and
// incremental extraction of estimate rows from the model's JSON output
// (rowScanner). [Service] orchestrates the whole flow and emits rows as they
// become parseable, so the client sees the first line items before the model
// has finished the array.
package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// priceUnknown is the marker the model emits when a price-list lookup found
// no unit price for a work item.
const priceUnknown = "DA CERCARE"

// Price is a unit price that may be unresolved. The model returns either a
// decimal number or the literal string "DA CERCARE" when the price list holds
// no price for the item; both forms round-trip through JSON unchanged.
type Price struct {
	// Amount is the unit price in euro. Meaningless when Unknown is true.
	Amount float64

	// Unknown marks a price the model could not resolve from the price list.
	Unknown bool
}

// MarshalJSON encodes the price as a number, or as the unresolved marker
// string when Unknown is set.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.Unknown {
		return json.Marshal(priceUnknown)
	}
	return json.Marshal(p.Amount)
}

// UnmarshalJSON accepts a JSON number, a numeric string (including the
// Italian comma decimal form "15,50"), or the unresolved marker.
func (p *Price) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Price{Amount: n}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("analysis: price must be a number or string, got %s", data)
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, priceUnknown) {
		*p = Price{Unknown: true}
		return nil
	}

	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Tolerate model noise: an unparseable price degrades to unresolved
		// instead of aborting the whole row.
		*p = Price{Unknown: true}
		return nil
	}
	*p = Price{Amount: n}
	return nil
}

// EstimateRow is one line item of the generated bill of quantities. The JSON
// field names match the wire format the frontend and export tooling consume.
type EstimateRow struct {
	// Codice is the official price-list item code. Empty in private-quote mode
	// where no price list backs the estimate.
	Codice string `json:"codice,omitempty"`

	// Categoria groups the work item (e.g. "Scavi", "Opere Murarie").
	Categoria string `json:"categoria"`

	// Descrizione is the work description, copied from the price list when a
	// match exists.
	Descrizione string `json:"descrizione"`

	// UM is the unit of measure (e.g. "mq", "ml", "cad").
	UM string `json:"um"`

	// Quantita is the quantity extracted or computed from the survey text.
	Quantita float64 `json:"quantita"`

	// PrezzoUnitario is the unit price from the price list, when resolved.
	PrezzoUnitario *Price `json:"prezzo_unitario,omitempty"`
}
