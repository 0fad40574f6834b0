package scoring

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/schema"
	"ai-interview-service/internal/service/scoring/mock"
	"ai-interview-service/internal/store"
	"ai-interview-service/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.LifecycleEvent
}

func (p *recordingPublisher) PublishLifecycle(ctx context.Context, ev models.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

// readOnlyStore fails every write.
type readOnlyStore struct {
	store.Store
}

func (readOnlyStore) Set(ctx context.Context, sessionID, field string, value any) error {
	return errors.New("read only")
}

func seed(t *testing.T, s store.Store, sessionID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := s.AppendTurn(context.Background(), sessionID, "question", "answer"); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScore_FencedReplyReturnedUnchanged(t *testing.T) {
	st := memory.New()
	seed(t, st, "s1", 1)

	gen := mock.New()
	gen.Reply = "```json\n{\"overall_score\":7,\"summary\":\"ok\",\"question_scores\":[{\"question_number\":1,\"score\":7,\"justification\":\"fine\"}]}\n```"

	report, err := NewScorer(st, gen, nil).Score(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.ScoreReport{
		"overall_score": 7.0,
		"summary":       "ok",
		"question_scores": []any{
			map[string]any{"question_number": 1.0, "score": 7.0, "justification": "fine"},
		},
	}
	if !reflect.DeepEqual(report, want) {
		t.Errorf("Score() = %+v, want %+v", report, want)
	}
}

func TestScore_ExtraKeysAndStringScoresKept(t *testing.T) {
	st := memory.New()
	seed(t, st, "s1", 1)

	gen := mock.New()
	gen.Reply = `{"overall_score":"7.5","summary":"ok","strengths":["x"],"question_scores":[{"question_number":1,"score":"8","justification":"fine","topic":"go"}]}`

	report, err := NewScorer(st, gen, nil).Score(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := models.ScoreReport{
		"overall_score": "7.5",
		"summary":       "ok",
		"strengths":     []any{"x"},
		"question_scores": []any{
			map[string]any{"question_number": 1.0, "score": "8", "justification": "fine", "topic": "go"},
		},
	}
	if !reflect.DeepEqual(report, want) {
		t.Errorf("Score() = %+v, want %+v", report, want)
	}

	var stored models.ScoreReport
	if found, err := st.Get(context.Background(), "s1", models.FieldScoreReport, &stored); !found || err != nil {
		t.Fatalf("expected stored report, found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(stored, want) {
		t.Errorf("stored report = %+v, want %+v", stored, want)
	}
}

func TestScore_PersistsReportStatusAndEvent(t *testing.T) {
	st := memory.New()
	seed(t, st, "s1", 3)
	pub := &recordingPublisher{}

	sc := NewScorer(st, mock.New(), pub)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sc.now = func() time.Time { return fixed }

	report, err := sc.Score(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.QuestionCount() != 3 {
		t.Errorf("expected 3 question scores, got %d", report.QuestionCount())
	}

	var stored models.ScoreReport
	if found, err := st.Get(context.Background(), "s1", models.FieldScoreReport, &stored); !found || err != nil {
		t.Fatalf("expected stored report, found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(stored, report) {
		t.Errorf("stored report differs: %+v", stored)
	}

	var scoredAt string
	_, _ = st.Get(context.Background(), "s1", models.FieldScoredAt, &scoredAt)
	if scoredAt != "2026-03-01T12:00:00Z" {
		t.Errorf("unexpected scored_at %q", scoredAt)
	}

	if len(pub.events) != 1 || pub.events[0].EventType != models.EventSessionScored {
		t.Fatalf("expected one scored event, got %+v", pub.events)
	}
	if pub.events[0].OverallScore == nil || *pub.events[0].OverallScore != 7 {
		t.Errorf("expected overall score on event, got %+v", pub.events[0])
	}
}

func TestScore_PromptCarriesTranscriptAndCount(t *testing.T) {
	st := memory.New()
	_, _ = st.AppendTurn(context.Background(), "s1", "What is a goroutine?", "A lightweight thread.")
	_, _ = st.AppendTurn(context.Background(), "s1", "What is a channel?", "A typed conduit.")

	gen := mock.New()
	if _, err := NewScorer(st, gen, nil).Score(context.Background(), "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompts := gen.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("expected one prompt, got %d", len(prompts))
	}
	for _, want := range []string{
		"which contains 2 question-and-answer pairs",
		"Q1: What is a goroutine?\nA1: A lightweight thread.",
		"Q2: What is a channel?\nA2: A typed conduit.",
		"ALL 2 questions",
	} {
		if !strings.Contains(prompts[0], want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestScore_CountMismatchIsNotFatal(t *testing.T) {
	st := memory.New()
	seed(t, st, "s1", 3)

	gen := mock.New()
	gen.Reply = `{"overall_score":6,"summary":"short","question_scores":[{"question_number":1,"score":6,"justification":"ok"}]}`

	before := testutil.ToFloat64(metrics.DefaultMetrics.ScoreCountMismatches)

	report, err := NewScorer(st, gen, nil).Score(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected mismatch to be tolerated, got %v", err)
	}
	if report.QuestionCount() != 1 {
		t.Errorf("expected the model's single score to be returned, got %d", report.QuestionCount())
	}
	if got := testutil.ToFloat64(metrics.DefaultMetrics.ScoreCountMismatches) - before; got != 1 {
		t.Errorf("expected mismatch metric to increase by 1, got %v", got)
	}
}

func TestScore_Errors(t *testing.T) {
	boom := errors.New("quota exceeded")

	tests := []struct {
		name    string
		turns   int
		gen     Generator
		wantErr error
	}{
		{"no generator", 1, nil, ErrGeneratorUnavailable},
		{"empty transcript", 0, mock.New(), ErrEmptyTranscript},
		{"generator failure", 1, &mock.Generator{Err: boom}, boom},
		{"unparsable reply", 1, &mock.Generator{Reply: "I cannot help with that."}, schema.ErrUnparsable},
		{"missing overall score", 1, &mock.Generator{Reply: `{"summary":"ok","question_scores":[{"question_number":1,"score":7,"justification":"fine"}]}`}, schema.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := memory.New()
			seed(t, st, "s1", tt.turns)

			_, err := NewScorer(st, tt.gen, nil).Score(context.Background(), "s1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}

			found, _ := st.Get(context.Background(), "s1", models.FieldScoreReport, &models.ScoreReport{})
			if found {
				t.Error("expected no report to be stored on failure")
			}
		})
	}
}

func TestScore_SaveFailureStillReturnsReport(t *testing.T) {
	mem := memory.New()
	seed(t, mem, "s1", 2)

	report, err := NewScorer(readOnlyStore{mem}, mock.New(), nil).Score(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected save failure to be swallowed, got %v", err)
	}
	if report.QuestionCount() != 2 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestScore_RescoringOverwrites(t *testing.T) {
	st := memory.New()
	seed(t, st, "s1", 1)
	gen := &mock.Generator{Reply: `{"overall_score":4,"summary":"first","question_scores":[{"question_number":1,"score":4,"justification":"x"}]}`}
	sc := NewScorer(st, gen, nil)

	if _, err := sc.Score(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}
	gen.Reply = `{"overall_score":9,"summary":"second","question_scores":[{"question_number":1,"score":9,"justification":"y"}]}`
	if _, err := sc.Score(context.Background(), "s1"); err != nil {
		t.Fatal(err)
	}

	var stored models.ScoreReport
	_, _ = st.Get(context.Background(), "s1", models.FieldScoreReport, &stored)
	if overall, _ := stored.OverallScore(); stored["summary"] != "second" || overall != 9 {
		t.Errorf("expected second report to replace the first, got %+v", stored)
	}
}
