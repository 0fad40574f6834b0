// Package mock provides a scripted dialogue adapter for testing and local
// development without cloud credentials.
package mock

import (
	"context"
	"sync"

	"ai-interview-service/internal/service/dialogue"
)

const (
	IntentQuestion = "interview.question"
	IntentEnd      = "interview.end"
)

// DefaultQuestions is the script used when New is called without questions.
var DefaultQuestions = []string{
	"Tell me about a recent project you are proud of.",
	"How do you approach debugging a production incident?",
	"Describe a time you disagreed with a technical decision.",
}

// ClosingReply is returned once the script is exhausted.
const ClosingReply = "Thank you, that concludes our interview."

// Adapter implements dialogue.Adapter with a fixed question script per session.
// Audio bytes are echoed back as the user transcript.
type Adapter struct {
	questions []string

	mu       sync.Mutex
	turns    map[string]int
	requests []dialogue.Request
	err      error
	audio    []byte
}

// New creates a mock adapter asking questions in order.
func New(questions ...string) *Adapter {
	if len(questions) == 0 {
		questions = DefaultQuestions
	}
	return &Adapter{
		questions: questions,
		turns:     make(map[string]int),
		audio:     []byte("mock-mp3"),
	}
}

// DetectIntent records req and replies with the session's next scripted question.
func (a *Adapter) DetectIntent(ctx context.Context, req dialogue.Request) (*dialogue.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, req)
	if a.err != nil {
		return nil, a.err
	}

	idx := a.turns[req.SessionID]
	a.turns[req.SessionID] = idx + 1

	resp := &dialogue.Response{
		ReplyText:      ClosingReply,
		Intent:         IntentEnd,
		UserTranscript: req.Text,
	}
	if idx < len(a.questions) {
		resp.ReplyText = a.questions[idx]
		resp.Intent = IntentQuestion
	}
	if len(req.Audio) > 0 {
		resp.UserTranscript = string(req.Audio)
	}
	if req.SynthesizeSpeech && len(a.audio) > 0 {
		resp.Audio = append([]byte(nil), a.audio...)
		resp.AudioFormat = "mp3"
	}
	return resp, nil
}

// SetError makes every subsequent call fail with err. Nil restores normal replies.
func (a *Adapter) SetError(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// SetAudio sets the synthesized reply bytes. Empty disables audio.
func (a *Adapter) SetAudio(b []byte) {
	a.mu.Lock()
	a.audio = b
	a.mu.Unlock()
}

// Requests returns a copy of every request received so far.
func (a *Adapter) Requests() []dialogue.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]dialogue.Request(nil), a.requests...)
}

func (a *Adapter) Close() error {
	return nil
}
