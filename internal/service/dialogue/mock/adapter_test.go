package mock

import (
	"context"
	"errors"
	"testing"

	"ai-interview-service/internal/service/dialogue"
)

var _ dialogue.Adapter = (*Adapter)(nil)

func TestAdapter_FollowsScriptThenEnds(t *testing.T) {
	a := New("q1", "q2")
	ctx := context.Background()

	expected := []struct {
		reply  string
		intent string
	}{
		{"q1", IntentQuestion},
		{"q2", IntentQuestion},
		{ClosingReply, IntentEnd},
		{ClosingReply, IntentEnd},
	}

	for i, want := range expected {
		resp, err := a.DetectIntent(ctx, dialogue.Request{SessionID: "s1", Text: "answer"})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if resp.ReplyText != want.reply || resp.Intent != want.intent {
			t.Errorf("call %d: got (%q, %q), want (%q, %q)", i, resp.ReplyText, resp.Intent, want.reply, want.intent)
		}
		if resp.UserTranscript != "answer" {
			t.Errorf("call %d: expected text echoed as transcript, got %q", i, resp.UserTranscript)
		}
	}
}

func TestAdapter_SessionsAreIndependent(t *testing.T) {
	a := New("q1", "q2")
	ctx := context.Background()

	if _, err := a.DetectIntent(ctx, dialogue.Request{SessionID: "s1"}); err != nil {
		t.Fatal(err)
	}
	resp, err := a.DetectIntent(ctx, dialogue.Request{SessionID: "s2"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ReplyText != "q1" {
		t.Errorf("expected new session to start at q1, got %q", resp.ReplyText)
	}
}

func TestAdapter_DefaultQuestions(t *testing.T) {
	a := New()
	resp, err := a.DetectIntent(context.Background(), dialogue.Request{SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.ReplyText != DefaultQuestions[0] {
		t.Errorf("expected first default question, got %q", resp.ReplyText)
	}
}

func TestAdapter_AudioTranscriptAndSpeech(t *testing.T) {
	a := New("q1")
	resp, err := a.DetectIntent(context.Background(), dialogue.Request{
		SessionID:        "s1",
		Audio:            []byte("spoken words"),
		SynthesizeSpeech: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.UserTranscript != "spoken words" {
		t.Errorf("expected audio bytes as transcript, got %q", resp.UserTranscript)
	}
	if len(resp.Audio) == 0 || resp.AudioFormat != "mp3" {
		t.Errorf("expected synthesized mp3, got %d bytes format %q", len(resp.Audio), resp.AudioFormat)
	}

	a.SetAudio(nil)
	resp, err = a.DetectIntent(context.Background(), dialogue.Request{SessionID: "s1", SynthesizeSpeech: true})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Audio != nil {
		t.Error("expected no audio after SetAudio(nil)")
	}
}

func TestAdapter_RecordsRequests(t *testing.T) {
	a := New("q1")
	params := map[string]any{"role": "SRE"}

	_, _ = a.DetectIntent(context.Background(), dialogue.Request{SessionID: "s1", Text: "hi", Parameters: params})
	_, _ = a.DetectIntent(context.Background(), dialogue.Request{SessionID: "s1", Text: "answer"})

	reqs := a.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].Parameters["role"] != "SRE" {
		t.Errorf("expected parameters on first request, got %v", reqs[0].Parameters)
	}
	if reqs[1].Parameters != nil {
		t.Errorf("expected no parameters on second request, got %v", reqs[1].Parameters)
	}
}

func TestAdapter_SetError(t *testing.T) {
	a := New("q1")
	boom := errors.New("platform unavailable")
	a.SetError(boom)

	if _, err := a.DetectIntent(context.Background(), dialogue.Request{SessionID: "s1"}); !errors.Is(err, boom) {
		t.Errorf("expected configured error, got %v", err)
	}
	if len(a.Requests()) != 1 {
		t.Error("expected failed request to be recorded")
	}

	a.SetError(nil)
	resp, err := a.DetectIntent(context.Background(), dialogue.Request{SessionID: "s1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ReplyText != "q1" {
		t.Errorf("expected failed call not to advance the script, got %q", resp.ReplyText)
	}
}
