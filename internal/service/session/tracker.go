package session

import (
	"context"
	"fmt"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/store"
)

// Tracker persists the session state under the status field.
type Tracker struct {
	store store.Store
}

func NewTracker(s store.Store) *Tracker {
	return &Tracker{store: s}
}

// Current returns the stored state. A session with no status is CREATED.
func (t *Tracker) Current(ctx context.Context, sessionID string) (State, error) {
	var status string
	if _, err := t.store.Get(ctx, sessionID, models.FieldStatus, &status); err != nil {
		return StateCreated, fmt.Errorf("read status: %w", err)
	}
	return ParseState(status)
}

// Reset stores CREATED regardless of the previous state.
func (t *Tracker) Reset(ctx context.Context, sessionID string) error {
	if err := t.store.Set(ctx, sessionID, models.FieldStatus, StateCreated.String()); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// Apply advances the stored state by ev. The stored state is left untouched
// when the transition is invalid.
func (t *Tracker) Apply(ctx context.Context, sessionID string, ev Event) (State, error) {
	from, err := t.Current(ctx, sessionID)
	if err != nil {
		return from, err
	}
	to, err := Advance(from, ev)
	if err != nil {
		return from, err
	}
	if to == from {
		return to, nil
	}
	if err := t.store.Set(ctx, sessionID, models.FieldStatus, to.String()); err != nil {
		return from, fmt.Errorf("write status: %w", err)
	}
	return to, nil
}
