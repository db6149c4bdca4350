// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/stimaworks/computovoce/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Req is the request passed to Transcribe, with Audio already drained into
	// AudioBytes for inspection.
	Req stt.Request

	// AudioBytes is the full audio content read from Req.Audio.
	AudioBytes []byte
}

// Provider is a mock implementation of stt.Provider.
// Set Result and Err to control the return values.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe when Err is nil.
	Result *stt.Transcript

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every invocation of Transcribe in order.
	Calls []TranscribeCall
}

// Transcribe implements stt.Provider. It drains the audio reader so tests can
// assert on the uploaded bytes.
func (p *Provider) Transcribe(_ context.Context, req stt.Request) (*stt.Transcript, error) {
	var audio []byte
	if req.Audio != nil {
		audio, _ = io.ReadAll(req.Audio)
	}

	p.mu.Lock()
	p.Calls = append(p.Calls, TranscribeCall{Req: req, AudioBytes: audio})
	result, err := p.Result, p.Err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return result, nil
}
