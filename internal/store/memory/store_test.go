package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/store"
)

var _ store.Store = (*Store)(nil)

func TestStore_GetMissing(t *testing.T) {
	s := New()

	var q string
	found, err := s.Get(context.Background(), "sess-1", models.FieldPendingQuestion, &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected nothing stored")
	}
}

func TestStore_SetGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Set(ctx, "sess-1", models.FieldPendingQuestion, "Tell me about yourself."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var q string
	found, err := s.Get(ctx, "sess-1", models.FieldPendingQuestion, &q)
	if err != nil || !found {
		t.Fatalf("expected stored value, found=%v err=%v", found, err)
	}
	if q != "Tell me about yourself." {
		t.Errorf("unexpected value %q", q)
	}

	// Other sessions are isolated.
	found, _ = s.Get(ctx, "sess-2", models.FieldPendingQuestion, &q)
	if found {
		t.Error("expected sessions to be isolated")
	}
}

func TestStore_ValuesAreCopied(t *testing.T) {
	s := New()
	ctx := context.Background()

	turns := []models.Turn{{Turn: 1, Question: "q", Answer: "a"}}
	s.Set(ctx, "sess-1", models.FieldTranscript, turns)
	turns[0].Answer = "mutated"

	var got []models.Turn
	s.Get(ctx, "sess-1", models.FieldTranscript, &got)
	if got[0].Answer != "a" {
		t.Errorf("store aliased caller memory: %q", got[0].Answer)
	}
}

func TestStore_AppendTurn_NumbersSequentially(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		turn, err := s.AppendTurn(ctx, "sess-1", "q", "a")
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if turn.Turn != i {
			t.Errorf("expected turn %d, got %d", i, turn.Turn)
		}
	}

	var transcript []models.Turn
	s.Get(ctx, "sess-1", models.FieldTranscript, &transcript)
	if len(transcript) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(transcript))
	}
}

func TestStore_AppendTurn_AfterReset(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.AppendTurn(ctx, "sess-1", "q", "a")
	s.Set(ctx, "sess-1", models.FieldTranscript, []models.Turn{})

	turn, err := s.AppendTurn(ctx, "sess-1", "q2", "a2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.Turn != 1 {
		t.Errorf("expected numbering to restart at 1, got %d", turn.Turn)
	}
}

func TestStore_AppendTurn_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	n := 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AppendTurn(ctx, "sess-1", "q", "a"); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	var transcript []models.Turn
	s.Get(ctx, "sess-1", models.FieldTranscript, &transcript)
	if len(transcript) != n {
		t.Fatalf("expected %d turns, got %d", n, len(transcript))
	}
	for i, turn := range transcript {
		if turn.Turn != i+1 {
			t.Fatalf("turn %d has number %d", i, turn.Turn)
		}
	}
}

func TestStore_Closed(t *testing.T) {
	s := New()
	s.Close()

	if err := s.Set(context.Background(), "s", "f", 1); !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	var v int
	if _, err := s.Get(context.Background(), "s", "f", &v); !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := s.AppendTurn(context.Background(), "s", "q", "a"); !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestStore_SetUnencodable(t *testing.T) {
	s := New()
	if err := s.Set(context.Background(), "s", "f", make(chan int)); err == nil {
		t.Error("expected encode error")
	}
}
