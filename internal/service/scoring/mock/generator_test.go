package mock

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerator_CannedReportMatchesQuestionCount(t *testing.T) {
	g := New()
	prompt := "intro\nQ1: a\nA1: b\n\nQ2: c\nA2: d\n\nQ3: e\nA3: f\n"

	reply, err := g.Generate(context.Background(), prompt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(reply, `"question_number"`); got != 3 {
		t.Errorf("expected 3 question scores, got %d in %s", got, reply)
	}
	if !strings.HasPrefix(reply, "```json") {
		t.Errorf("expected fenced reply, got %q", reply)
	}
	if len(g.Prompts()) != 1 {
		t.Errorf("expected prompt to be recorded")
	}
}

func TestGenerator_FixedReplyAndError(t *testing.T) {
	g := &Generator{Reply: "fixed"}
	if reply, _ := g.Generate(context.Background(), "p"); reply != "fixed" {
		t.Errorf("expected fixed reply, got %q", reply)
	}

	boom := errors.New("boom")
	g = &Generator{Err: boom}
	if _, err := g.Generate(context.Background(), "p"); !errors.Is(err, boom) {
		t.Errorf("expected configured error, got %v", err)
	}
}
