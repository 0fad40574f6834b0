// Package dialogue defines the interface for turn-based dialogue platforms.
package dialogue

import (
	"context"
	"errors"
)

// ErrUnsupportedEncoding is returned when the platform does not accept the
// requested input audio encoding.
var ErrUnsupportedEncoding = errors.New("unsupported audio encoding")

// Request is one user turn sent to the platform. Exactly one of Text or Audio
// is set. Parameters are attached as session-scoped values when non-nil.
type Request struct {
	SessionID        string
	Text             string
	Audio            []byte
	AudioEncoding    string
	SampleRateHz     int
	Parameters       map[string]any
	SynthesizeSpeech bool
}

// Response is the platform's reply to a Request.
type Response struct {
	ReplyText      string
	Intent         string
	UserTranscript string // speech-to-text output for audio, echo of the query for text
	Audio          []byte
	AudioFormat    string
}

// Adapter defines the interface for dialogue providers (Dialogflow CX, mock).
type Adapter interface {
	// DetectIntent sends one turn and returns the platform's reply.
	DetectIntent(ctx context.Context, req Request) (*Response, error)

	// Close releases provider resources.
	Close() error
}
