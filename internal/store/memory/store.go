// Package memory provides a process-local Store. Data does not survive a restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/store"
)

// Store keeps values JSON-encoded so callers never share memory with it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]map[string]json.RawMessage
	closed   bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{sessions: make(map[string]map[string]json.RawMessage)}
}

func (s *Store) Get(_ context.Context, sessionID, field string, dst any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, store.ErrClosed
	}
	raw, ok := s.sessions[sessionID][field]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s/%s: %w", sessionID, field, err)
	}
	return true, nil
}

func (s *Store) Set(_ context.Context, sessionID, field string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", sessionID, field, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	s.put(sessionID, field, raw)
	return nil
}

func (s *Store) AppendTurn(_ context.Context, sessionID, question, answer string) (models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Turn{}, store.ErrClosed
	}

	var transcript []models.Turn
	if raw, ok := s.sessions[sessionID][models.FieldTranscript]; ok {
		if err := json.Unmarshal(raw, &transcript); err != nil {
			return models.Turn{}, fmt.Errorf("decode transcript %s: %w", sessionID, err)
		}
	}

	turn := models.Turn{Turn: len(transcript) + 1, Question: question, Answer: answer}
	transcript = append(transcript, turn)

	raw, err := json.Marshal(transcript)
	if err != nil {
		return models.Turn{}, fmt.Errorf("encode transcript %s: %w", sessionID, err)
	}
	s.put(sessionID, models.FieldTranscript, raw)
	return turn, nil
}

// Close drops all data.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = nil
	return nil
}

func (s *Store) put(sessionID, field string, raw json.RawMessage) {
	fields, ok := s.sessions[sessionID]
	if !ok {
		fields = make(map[string]json.RawMessage)
		s.sessions[sessionID] = fields
	}
	fields[field] = raw
}
