package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/stimaworks/computovoce/internal/analysis"
	"github.com/stimaworks/computovoce/internal/observe"
	"github.com/stimaworks/computovoce/internal/pricelist"
	"github.com/stimaworks/computovoce/pkg/provider/stt"
)

// transcribePrompt anchors the transcription model to Italian site-survey
// vocabulary and suppresses the subtitle-style hallucinations it produces on
// silence or noise.
const transcribePrompt = "Trascrizione di appunti vocali di un sopralluogo. " +
	"L'utente parla in italiano descrivendo lavorazioni, misure e note. " +
	"Niente sottotitoli o frasi fuori contesto."

// errorBody is the JSON error envelope. Messages are user-facing and Italian.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// ─── POST /api/pricelist ─────────────────────────────────────────────────────

// pricelistResponse carries the normalized rows back to the client, which
// holds them and sends them with each analyze request.
type pricelistResponse struct {
	Rows  []pricelist.Row `json:"rows"`
	Count int             `json:"count"`
}

func (s *Server) handlePricelist(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Nessun file ricevuto")
		return
	}
	defer file.Close()

	rows, err := pricelist.Parse(file, header.Filename)
	if err != nil {
		// A present but unusable file is a content problem, not a request
		// problem: the client should show "empty or unreadable price list".
		if errors.Is(err, pricelist.ErrNoUsableRows) || errors.Is(err, pricelist.ErrNoSheets) {
			writeError(w, http.StatusUnprocessableEntity, "Il listino non contiene righe utilizzabili")
			return
		}
		observe.Logger(r.Context()).Warn("pricelist parse failed",
			"filename", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "Impossibile leggere il file del listino")
		return
	}

	observe.Logger(r.Context()).Info("pricelist parsed",
		"filename", header.Filename, "rows", len(rows))
	writeJSON(w, http.StatusOK, pricelistResponse{Rows: rows, Count: len(rows)})
}

// ─── POST /api/analyze ───────────────────────────────────────────────────────

// analyzeRequest is the JSON body for an analysis. Rows come back from the
// client exactly as /api/pricelist returned them; the server itself stays
// stateless between the two calls.
type analyzeRequest struct {
	Text           string          `json:"text"`
	PricelistMode  bool            `json:"pricelistMode"`
	Rows           []pricelist.Row `json:"rows"`
	SessionKey     string          `json:"sessionKey"`
	ExpandKeywords *bool           `json:"expandKeywords"`
}

// analyzeTrailer is the final NDJSON line of a successful analysis stream.
type analyzeTrailer struct {
	Done  bool   `json:"done"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Richiesta non valida")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "Testo mancante")
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	enc := json.NewEncoder(w)

	emitted := 0
	emit := func(row analysis.EstimateRow) error {
		if err := enc.Encode(row); err != nil {
			return err
		}
		emitted++
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	err := s.analysis.Analyze(r.Context(), analysis.Request{
		SurveyText:       req.Text,
		Rows:             req.Rows,
		PrezzarioMode:    req.PricelistMode,
		SessionKey:       req.SessionKey,
		DisableExpansion: req.ExpandKeywords != nil && !*req.ExpandKeywords,
	}, emit)
	if err != nil {
		observe.Logger(r.Context()).Error("analysis failed",
			"rows_emitted", emitted, "error", err)
		if emitted == 0 {
			// Headers may already be out; the NDJSON trailer is the only
			// reliable error channel either way.
			_ = enc.Encode(analyzeTrailer{Rows: 0, Error: "Errore durante l'analisi"})
		} else {
			_ = enc.Encode(analyzeTrailer{Rows: emitted, Error: "Analisi interrotta"})
		}
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	_ = enc.Encode(analyzeTrailer{Done: true, Rows: emitted})
	if flusher != nil {
		flusher.Flush()
	}
}

// ─── POST /api/transcribe ────────────────────────────────────────────────────

type transcribeResponse struct {
	Text string `json:"text"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.stt == nil {
		writeError(w, http.StatusServiceUnavailable, "Trascrizione non configurata")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Nessun file audio ricevuto")
		return
	}
	defer file.Close()

	ctx := r.Context()
	start := time.Now()
	transcript, err := s.stt.Transcribe(ctx, stt.Request{
		Audio:    file,
		Filename: header.Filename,
		Language: "it",
		Prompt:   transcribePrompt,
	})
	s.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	s.metrics.ProviderRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", s.sttName),
		attribute.String("kind", "stt"),
		attribute.String("status", statusOf(err)),
	))
	if err != nil {
		s.metrics.ProviderErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", s.sttName),
			attribute.String("kind", "stt"),
		))
		observe.Logger(ctx).Error("transcription failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Errore durante la trascrizione")
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{Text: transcript.Text})
}

// ─── POST /api/expand-keywords ───────────────────────────────────────────────

type expandRequest struct {
	Text string `json:"text"`
}

type expandResponse struct {
	Keywords []string `json:"keywords"`
}

func (s *Server) handleExpandKeywords(w http.ResponseWriter, r *http.Request) {
	if s.expander == nil {
		writeError(w, http.StatusServiceUnavailable, "Espansione sinonimi non configurata")
		return
	}

	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "Testo mancante")
		return
	}

	keywords := s.expander.Expand(r.Context(), req.Text)
	if keywords == nil {
		// Expansion failure is non-fatal by contract: the client proceeds
		// without synonyms, so an empty list beats an error status.
		keywords = []string{}
	}
	writeJSON(w, http.StatusOK, expandResponse{Keywords: keywords})
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
