// Package stt defines the interface for batch Speech-to-Text adapters used to
// transcribe a spoken answer before it is sent to the dialogue platform.
package stt

import (
	"context"
	"errors"
)

// ErrUnsupportedEncoding is returned for encodings the provider cannot decode.
var ErrUnsupportedEncoding = errors.New("unsupported audio encoding")

// Request is one complete utterance.
type Request struct {
	Audio        []byte
	Encoding     string // Dialogflow-style name, e.g. AUDIO_ENCODING_LINEAR_16
	SampleRateHz int
}

// Result is the best transcript for a Request.
type Result struct {
	Text       string
	Confidence float64
}

// Transcriber defines the interface for STT providers (Google, mock).
type Transcriber interface {
	// Transcribe converts one utterance to text.
	Transcribe(ctx context.Context, req Request) (*Result, error)

	// Close releases provider resources.
	Close() error
}
