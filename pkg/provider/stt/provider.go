// Package stt defines the Provider interface for speech-to-text backends.
//
// Survey recordings arrive as complete audio files uploaded by the user, so
// the interface is batch-oriented: one file in, one transcript out. A provider
// wraps a remote transcription API (e.g., OpenAI whisper-1) and exposes a
// uniform interface so the HTTP layer never couples to a specific SDK.
//
// Implementations must be safe for concurrent use; multiple uploads may be
// transcribed simultaneously.
package stt

import (
	"context"
	"io"
)

// Request describes a single transcription job.
type Request struct {
	// Audio is the audio file content. The provider reads it fully; the caller
	// retains ownership of the underlying stream.
	Audio io.Reader

	// Filename is the original filename including extension (e.g.,
	// "sopralluogo.m4a"). Providers use it to communicate the container format.
	Filename string

	// Language is an ISO-639-1 language hint (e.g., "it"). Empty lets the
	// provider auto-detect, if supported.
	Language string

	// Prompt is an optional context hint that anchors recognition vocabulary
	// and reduces hallucinated filler on silence.
	Prompt string
}

// Transcript is the result of a transcription job.
type Transcript struct {
	// Text is the full transcribed text.
	Text string

	// Language is the detected or requested language code, when reported.
	Language string

	// DurationSeconds is the audio duration, when reported by the provider.
	DurationSeconds float64
}

// Provider is the abstraction over any batch transcription backend.
//
// Implementations must be safe for concurrent use and must respect context
// cancellation on the underlying API call.
type Provider interface {
	// Transcribe submits req and blocks until the transcript is available or
	// ctx is cancelled. A non-nil Transcript is returned exactly when the
	// error is nil.
	Transcribe(ctx context.Context, req Request) (*Transcript, error)
}
