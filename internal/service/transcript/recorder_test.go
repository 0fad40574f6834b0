package transcript

import (
	"context"
	"errors"
	"testing"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/store/memory"
)

// failingStore implements store.Store and fails every call.
type failingStore struct{ err error }

func (f failingStore) Get(ctx context.Context, sessionID, field string, dst any) (bool, error) {
	return false, f.err
}
func (f failingStore) Set(ctx context.Context, sessionID, field string, value any) error {
	return f.err
}
func (f failingStore) AppendTurn(ctx context.Context, sessionID, question, answer string) (models.Turn, error) {
	return models.Turn{}, f.err
}
func (f failingStore) Close() error { return nil }

func TestRecorder_ReadMissingIsEmpty(t *testing.T) {
	r := NewRecorder(memory.New())

	turns, err := r.Read(context.Background(), "never-started")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turns == nil || len(turns) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", turns)
	}
}

func TestRecorder_AppendNumbersFromOne(t *testing.T) {
	r := NewRecorder(memory.New())
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		turn, err := r.Append(ctx, "s1", "q", "a")
		if err != nil {
			t.Fatalf("append %d: unexpected error: %v", i, err)
		}
		if turn.Turn != i {
			t.Errorf("expected turn %d, got %d", i, turn.Turn)
		}
	}

	turns, err := r.Read(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(turns))
	}
	for i, turn := range turns {
		if turn.Turn != i+1 {
			t.Errorf("turns[%d].Turn = %d, want %d", i, turn.Turn, i+1)
		}
	}
}

func TestRecorder_ResetStartsOver(t *testing.T) {
	r := NewRecorder(memory.New())
	ctx := context.Background()

	_, _ = r.Append(ctx, "s1", "q1", "a1")
	_, _ = r.Append(ctx, "s1", "q2", "a2")

	if err := r.Reset(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	turns, _ := r.Read(ctx, "s1")
	if len(turns) != 0 {
		t.Errorf("expected empty transcript after reset, got %d turns", len(turns))
	}

	turn, err := r.Append(ctx, "s1", "q", "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.Turn != 1 {
		t.Errorf("expected numbering to restart at 1, got %d", turn.Turn)
	}
}

func TestRecorder_StoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("store down")
	r := NewRecorder(failingStore{err: boom})
	ctx := context.Background()

	if _, err := r.Append(ctx, "s1", "q", "a"); !errors.Is(err, boom) {
		t.Errorf("Append: expected wrapped store error, got %v", err)
	}
	if _, err := r.Read(ctx, "s1"); !errors.Is(err, boom) {
		t.Errorf("Read: expected wrapped store error, got %v", err)
	}
	if err := r.Reset(ctx, "s1"); !errors.Is(err, boom) {
		t.Errorf("Reset: expected wrapped store error, got %v", err)
	}
}

func TestRender(t *testing.T) {
	turns := []models.Turn{
		{Turn: 1, Question: "Why Go?", Answer: "Simplicity."},
		{Turn: 2, Question: "Channels or mutexes?", Answer: "Depends."},
	}

	want := "Q1: Why Go?\nA1: Simplicity.\n\nQ2: Channels or mutexes?\nA2: Depends.\n"
	if got := Render(turns); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_Empty(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
