// Package transcript records the question/answer pairs of an interview.
package transcript

import (
	"context"
	"fmt"
	"strings"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/store"
)

// Recorder appends and reads the per-session transcript.
type Recorder struct {
	store store.Store
}

func NewRecorder(s store.Store) *Recorder {
	return &Recorder{store: s}
}

// Append records one pair. The turn number is assigned atomically by the store.
func (r *Recorder) Append(ctx context.Context, sessionID, question, answer string) (models.Turn, error) {
	turn, err := r.store.AppendTurn(ctx, sessionID, question, answer)
	if err != nil {
		return models.Turn{}, fmt.Errorf("append transcript: %w", err)
	}
	return turn, nil
}

// Read returns the stored transcript, or an empty slice if there is none.
func (r *Recorder) Read(ctx context.Context, sessionID string) ([]models.Turn, error) {
	var turns []models.Turn
	if _, err := r.store.Get(ctx, sessionID, models.FieldTranscript, &turns); err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	return turns, nil
}

// Reset replaces the transcript with an empty list.
func (r *Recorder) Reset(ctx context.Context, sessionID string) error {
	if err := r.store.Set(ctx, sessionID, models.FieldTranscript, []models.Turn{}); err != nil {
		return fmt.Errorf("reset transcript: %w", err)
	}
	return nil
}

// Render formats turns as numbered question and answer lines.
func Render(turns []models.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", t.Turn, t.Question, t.Turn, t.Answer)
	}
	return b.String()
}
