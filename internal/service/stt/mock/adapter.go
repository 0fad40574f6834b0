// Package mock provides a mock STT adapter for testing without cloud credentials.
package mock

import (
	"context"
	"sync"

	"ai-interview-service/internal/service/stt"
)

// Adapter implements stt.Transcriber. It returns Text when set, otherwise the
// audio bytes read as a string.
type Adapter struct {
	Text       string
	Confidence float64

	mu    sync.Mutex
	calls []stt.Request
	err   error
}

// New creates a new mock STT adapter.
func New() *Adapter {
	return &Adapter{Confidence: 0.95}
}

// Transcribe records the request and returns the configured transcript.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, req)
	if a.err != nil {
		return nil, a.err
	}

	text := a.Text
	if text == "" {
		text = string(req.Audio)
	}
	return &stt.Result{Text: text, Confidence: a.Confidence}, nil
}

// SetError makes every subsequent call fail with err.
func (a *Adapter) SetError(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// Calls returns a copy of every request received so far.
func (a *Adapter) Calls() []stt.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]stt.Request(nil), a.calls...)
}

// Close ends the mock session.
func (a *Adapter) Close() error {
	return nil
}
