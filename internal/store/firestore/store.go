// Package firestore stores interview sessions in Google Cloud Firestore, one
// document per session with one document field per store field.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/store"
)

// Config holds Firestore connection settings.
type Config struct {
	ProjectID   string
	Collection  string
	Credentials string // service account JSON; empty uses application default credentials
}

// Store is a Firestore-backed store.Store. The client is created on first use.
type Store struct {
	cfg Config

	mu     sync.Mutex
	client *firestore.Client
	closed bool
}

// New returns a Store without contacting Firestore.
func New(cfg Config) *Store {
	if cfg.Collection == "" {
		cfg.Collection = "interview_sessions"
	}
	return &Store{cfg: cfg}
}

func (s *Store) doc(ctx context.Context, sessionID string) (*firestore.Client, *firestore.DocumentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, store.ErrClosed
	}
	if s.client == nil {
		var opts []option.ClientOption
		if s.cfg.Credentials != "" {
			opts = append(opts, option.WithCredentialsJSON([]byte(s.cfg.Credentials)))
		}
		c, err := firestore.NewClient(ctx, s.cfg.ProjectID, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create firestore client: %w", err)
		}
		log.Info().
			Str("component", "store").
			Str("backend", "firestore").
			Str("collection", s.cfg.Collection).
			Msg("Firestore client initialized")
		s.client = c
	}
	return s.client, s.client.Collection(s.cfg.Collection).Doc(sessionID), nil
}

func (s *Store) Get(ctx context.Context, sessionID, field string, dst any) (bool, error) {
	_, ref, err := s.doc(ctx, sessionID)
	if err != nil {
		return false, err
	}

	snap, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", sessionID, err)
	}

	v, ok := snap.Data()[field]
	if !ok || v == nil {
		return false, nil
	}
	if err := decode(v, dst); err != nil {
		return true, fmt.Errorf("decode %s/%s: %w", sessionID, field, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, sessionID, field string, value any) error {
	_, ref, err := s.doc(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, map[string]any{field: value}, firestore.MergeAll); err != nil {
		return fmt.Errorf("set %s/%s: %w", sessionID, field, err)
	}
	return nil
}

// AppendTurn reads and rewrites the transcript inside a Firestore transaction,
// which Firestore retries on contention.
func (s *Store) AppendTurn(ctx context.Context, sessionID, question, answer string) (models.Turn, error) {
	client, ref, err := s.doc(ctx, sessionID)
	if err != nil {
		return models.Turn{}, err
	}

	var turn models.Turn
	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var transcript []models.Turn

		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			if v, ok := snap.Data()[models.FieldTranscript]; ok && v != nil {
				if err := decode(v, &transcript); err != nil {
					return fmt.Errorf("decode transcript: %w", err)
				}
			}
		}

		turn = models.Turn{Turn: len(transcript) + 1, Question: question, Answer: answer}
		transcript = append(transcript, turn)
		return tx.Set(ref, map[string]any{models.FieldTranscript: transcript}, firestore.MergeAll)
	})
	if err != nil {
		return models.Turn{}, appendError(sessionID, err)
	}
	return turn, nil
}

// appendError reports a transaction that kept aborting as store.ErrConflict.
func appendError(sessionID string, err error) error {
	if status.Code(err) == codes.Aborted {
		return fmt.Errorf("append turn %s: %w", sessionID, errors.Join(store.ErrConflict, err))
	}
	return fmt.Errorf("append turn %s: %w", sessionID, err)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// decode converts a Firestore value (maps, slices, scalars) into dst. Model
// firestore tags match their json tags, so a JSON round trip is lossless.
func decode(v, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
