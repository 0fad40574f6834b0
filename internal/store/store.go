// Package store defines the per-session key-value persistence used by the
// interview services.
package store

import (
	"context"
	"errors"

	"ai-interview-service/internal/models"
)

var (
	// ErrConflict is returned when an atomic update lost too many races.
	ErrConflict = errors.New("store: concurrent update conflict")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Store maps (sessionID, field) to a value. Backends are interchangeable;
// no caller depends on which one is in use.
type Store interface {
	// Get decodes the value under (sessionID, field) into dst.
	// It reports false with a nil error when nothing is stored.
	Get(ctx context.Context, sessionID, field string, dst any) (bool, error)

	// Set replaces the value under (sessionID, field).
	Set(ctx context.Context, sessionID, field string, value any) error

	// AppendTurn atomically appends a turn to the session transcript and
	// returns it. The turn number is the transcript length plus one.
	AppendTurn(ctx context.Context, sessionID, question, answer string) (models.Turn, error)

	Close() error
}
