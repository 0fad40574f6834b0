package mock

import (
	"context"
	"errors"
	"testing"

	"ai-interview-service/internal/service/stt"
)

var _ stt.Transcriber = (*Adapter)(nil)

func TestTranscribe_EchoesAudio(t *testing.T) {
	a := New()
	res, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte("hello there"), Encoding: "AUDIO_ENCODING_LINEAR_16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello there" {
		t.Errorf("expected audio echoed as text, got %q", res.Text)
	}
	if res.Confidence != 0.95 {
		t.Errorf("expected default confidence 0.95, got %v", res.Confidence)
	}
}

func TestTranscribe_FixedText(t *testing.T) {
	a := New()
	a.Text = "fixed transcript"

	res, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{0, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "fixed transcript" {
		t.Errorf("expected fixed text, got %q", res.Text)
	}

	calls := a.Calls()
	if len(calls) != 1 || len(calls[0].Audio) != 2 {
		t.Errorf("expected one recorded call with 2 bytes, got %+v", calls)
	}
}

func TestTranscribe_Error(t *testing.T) {
	a := New()
	boom := errors.New("speech down")
	a.SetError(boom)

	if _, err := a.Transcribe(context.Background(), stt.Request{Audio: []byte{1}}); !errors.Is(err, boom) {
		t.Errorf("expected configured error, got %v", err)
	}
}
