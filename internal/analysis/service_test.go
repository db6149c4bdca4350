package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stimaworks/computovoce/internal/filter"
	"github.com/stimaworks/computovoce/internal/pricelist"
	"github.com/stimaworks/computovoce/internal/resilience"
	"github.com/stimaworks/computovoce/pkg/provider/llm"
	llmmock "github.com/stimaworks/computovoce/pkg/provider/llm/mock"
)

func testRows() []pricelist.Row {
	return []pricelist.Row{
		{RawText: "A01 | Scavo di sbancamento in terreno | mc | 12,50"},
		{RawText: "B02 | Tinteggiatura di pareti interne | mq | 8,00"},
	}
}

// newTestService wires a Service around the given mocks with default filter
// settings. expansion may be nil.
func newTestService(t *testing.T, primary llm.Provider, fallback llm.Provider, expansion llm.Provider) *Service {
	t.Helper()

	chain := resilience.NewChain(
		Completion{Name: "primary", Provider: primary},
		"primary",
		resilience.BreakerConfig{},
	)
	if fallback != nil {
		chain.AddFallback("backup", Completion{Name: "backup", Provider: fallback})
	}

	var expander *Expander
	if expansion != nil {
		expander = NewExpander(expansion, "expansion", testMetrics(t))
	}

	engine := filter.New(filter.Config{})
	runner := filter.NewRunner(engine, filter.RunnerConfig{})
	return NewService(chain, expander, engine, runner, testMetrics(t))
}

func collectRows(t *testing.T, svc *Service, req Request) ([]EstimateRow, error) {
	t.Helper()
	var rows []EstimateRow
	err := svc.Analyze(context.Background(), req, func(r EstimateRow) error {
		rows = append(rows, r)
		return nil
	})
	return rows, err
}

func TestService_Analyze_PrezzarioMode(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{
			{Text: "```json\n[{\"codice\":\"A01\",\"categoria\":\"Scavi\",\"descrizione\":\"Scavo di sban"},
			{Text: "camento\",\"um\":\"mc\",\"quantita\":20,\"prezzo_unitario\":12.50}]\n```"},
			{FinishReason: "stop"},
		},
	}
	svc := newTestService(t, primary, nil, nil)

	rows, err := collectRows(t, svc, Request{
		SurveyText:    "Dobbiamo fare uno scavo di circa 20 metri cubi",
		Rows:          testRows(),
		PrezzarioMode: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rows) != 1 || rows[0].Codice != "A01" {
		t.Fatalf("rows = %+v, want the A01 row", rows)
	}

	prompt := primary.StreamCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "Computista Senior") {
		t.Error("prompt missing the estimate persona")
	}
	if !strings.Contains(prompt, "Scavo di sbancamento") {
		t.Error("prompt missing the matching price-list row")
	}
	if strings.Contains(prompt, "Tinteggiatura") {
		t.Error("prompt carries a row the filter should have dropped")
	}
	if !strings.Contains(prompt, "Dobbiamo fare uno scavo") {
		t.Error("prompt missing the survey text")
	}
}

func TestService_Analyze_QuoteMode(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{
			{Text: `[{"categoria":"Opere Murarie","descrizione":"Demolizione tramezzi","um":"mq","quantita":1}]`},
			{FinishReason: "stop"},
		},
	}
	svc := newTestService(t, primary, nil, nil)

	rows, err := collectRows(t, svc, Request{
		SurveyText: "demolizione dei tramezzi interni",
		Rows:       testRows(), // must be ignored in quote mode
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rows) != 1 || rows[0].Categoria != "Opere Murarie" {
		t.Fatalf("rows = %+v", rows)
	}

	prompt := primary.StreamCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "Geometra") {
		t.Error("prompt missing the quote persona")
	}
	if strings.Contains(prompt, "Scavo di sbancamento") {
		t.Error("quote-mode prompt must not carry price-list rows")
	}
}

func TestService_Analyze_NoKeywordsFallsBackToFullList(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{{Text: `[]`}, {FinishReason: "stop"}},
	}
	svc := newTestService(t, primary, nil, nil)

	_, err := collectRows(t, svc, Request{
		SurveyText:    "quindi diciamo che siamo circa",
		Rows:          testRows(),
		PrezzarioMode: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	prompt := primary.StreamCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "Scavo di sbancamento") || !strings.Contains(prompt, "Tinteggiatura") {
		t.Error("fallback prompt must carry the whole price list")
	}
}

func TestService_Analyze_ExpansionWidensFilter(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{{Text: `[]`}, {FinishReason: "stop"}},
	}
	expansion := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: `["sbancamento","sterro"]`},
	}
	svc := newTestService(t, primary, nil, expansion)

	// No survey keyword matches a row directly; the expanded synonym
	// "sbancamento" pulls in row A01.
	_, err := collectRows(t, svc, Request{
		SurveyText:    "creare una rampa carrabile",
		Rows:          testRows(),
		PrezzarioMode: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(expansion.CompleteCalls) != 1 {
		t.Fatalf("expansion provider called %d times, want 1", len(expansion.CompleteCalls))
	}
	prompt := primary.StreamCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "Scavo di sbancamento") {
		t.Error("prompt missing the row matched via expanded keyword")
	}
	if strings.Contains(prompt, "Tinteggiatura") {
		t.Error("prompt carries an unmatched row")
	}
}

func TestService_Analyze_DisableExpansion(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{{Text: `[]`}, {FinishReason: "stop"}},
	}
	expansion := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: `["sbancamento"]`},
	}
	svc := newTestService(t, primary, nil, expansion)

	_, err := collectRows(t, svc, Request{
		SurveyText:       "creare una rampa carrabile",
		Rows:             testRows(),
		PrezzarioMode:    true,
		DisableExpansion: true,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(expansion.CompleteCalls) != 0 {
		t.Errorf("expansion provider called %d times, want 0", len(expansion.CompleteCalls))
	}
}

func TestService_Analyze_FailsOverToBackupProvider(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{StreamErr: errors.New("503 overloaded")}
	backup := &llmmock.Provider{
		StreamChunks: []llm.Chunk{
			{Text: `[{"categoria":"Scavi","quantita":1}]`},
			{FinishReason: "stop"},
		},
	}
	svc := newTestService(t, primary, backup, nil)

	rows, err := collectRows(t, svc, Request{SurveyText: "scavo in giardino"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want 1 row from the backup", rows)
	}
	if len(primary.StreamCalls) != 1 || len(backup.StreamCalls) != 1 {
		t.Errorf("calls: primary %d backup %d, want 1 and 1",
			len(primary.StreamCalls), len(backup.StreamCalls))
	}
}

func TestService_Analyze_AllProvidersFail(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{StreamErr: errors.New("boom")}
	svc := newTestService(t, primary, nil, nil)

	_, err := collectRows(t, svc, Request{SurveyText: "scavo in giardino"})
	if !errors.Is(err, resilience.ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestService_Analyze_MidStreamError(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{
			{Text: `[{"categoria":"Scavi","quantita":1},`},
			{Text: "connection reset", FinishReason: llm.FinishReasonError},
		},
	}
	svc := newTestService(t, primary, nil, nil)

	rows, err := collectRows(t, svc, Request{SurveyText: "scavo in giardino"})
	if err == nil {
		t.Fatal("want error for mid-stream failure")
	}
	if len(rows) != 1 {
		t.Errorf("rows emitted before the failure = %d, want 1", len(rows))
	}
}

func TestService_Analyze_EmitErrorAborts(t *testing.T) {
	t.Parallel()

	primary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{
			{Text: `[{"categoria":"Scavi","quantita":1},{"categoria":"Finiture","quantita":2}]`},
			{FinishReason: "stop"},
		},
	}
	svc := newTestService(t, primary, nil, nil)

	errClientGone := errors.New("client gone")
	err := svc.Analyze(context.Background(), Request{SurveyText: "scavo in giardino"},
		func(EstimateRow) error { return errClientGone })
	if !errors.Is(err, errClientGone) {
		t.Fatalf("err = %v, want the emit error", err)
	}
}
