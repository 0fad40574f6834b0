// Package mongo stores interview sessions in MongoDB, one document per session
// keyed by session id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/store"
)

const maxAppendAttempts = 5

type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store is a MongoDB-backed store.Store. The client is connected on first use.
type Store struct {
	cfg Config

	mu     sync.Mutex
	client *mongo.Client
	coll   *mongo.Collection
	closed bool
}

func New(cfg Config) *Store {
	if cfg.Database == "" {
		cfg.Database = "interview"
	}
	if cfg.Collection == "" {
		cfg.Collection = "interview_sessions"
	}
	return &Store{cfg: cfg}
}

func (s *Store) collection(ctx context.Context) (*mongo.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, store.ErrClosed
	}
	if s.coll == nil {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.cfg.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		log.Info().
			Str("component", "store").
			Str("backend", "mongo").
			Str("database", s.cfg.Database).
			Str("collection", s.cfg.Collection).
			Msg("MongoDB client initialized")
		s.client = client
		s.coll = client.Database(s.cfg.Database).Collection(s.cfg.Collection)
	}
	return s.coll, nil
}

func (s *Store) Get(ctx context.Context, sessionID, field string, dst any) (bool, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return false, err
	}

	raw, err := coll.FindOne(ctx, bson.M{"_id": sessionID}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", sessionID, err)
	}

	val, err := raw.LookupErr(field)
	if err != nil || val.Type == bson.TypeNull {
		return false, nil
	}
	if err := val.Unmarshal(dst); err != nil {
		return true, fmt.Errorf("decode %s/%s: %w", sessionID, field, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, sessionID, field string, value any) error {
	coll, err := s.collection(ctx)
	if err != nil {
		return err
	}

	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": bson.M{field: value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", sessionID, field, err)
	}
	return nil
}

// AppendTurn pushes a turn only while the stored transcript still has the
// length it was read with. A lost race re-reads and retries.
func (s *Store) AppendTurn(ctx context.Context, sessionID, question, answer string) (models.Turn, error) {
	coll, err := s.collection(ctx)
	if err != nil {
		return models.Turn{}, err
	}
	return appendTurn(ctx, coll, sessionID, question, answer)
}

func appendTurn(ctx context.Context, coll *mongo.Collection, sessionID, question, answer string) (models.Turn, error) {
	for attempt := 1; attempt <= maxAppendAttempts; attempt++ {
		n, err := transcriptLen(ctx, coll, sessionID)
		if err != nil {
			return models.Turn{}, err
		}

		turn := models.Turn{Turn: n + 1, Question: question, Answer: answer}
		res, err := coll.UpdateOne(ctx,
			appendFilter(sessionID, n),
			bson.M{"$push": bson.M{models.FieldTranscript: turn}},
			options.Update().SetUpsert(n == 0),
		)
		switch {
		case mongo.IsDuplicateKeyError(err):
		case err != nil:
			return models.Turn{}, fmt.Errorf("append turn %s: %w", sessionID, err)
		case res.MatchedCount > 0 || res.UpsertedCount > 0:
			return turn, nil
		}

		log.Debug().
			Str("component", "store").
			Str("session_id", sessionID).
			Int("attempt", attempt).
			Msg("Transcript changed concurrently, retrying append")
	}

	return models.Turn{}, fmt.Errorf("append turn %s: %w", sessionID, store.ErrConflict)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.client == nil {
		return nil
	}
	err := s.client.Disconnect(context.Background())
	s.client, s.coll = nil, nil
	return err
}

func transcriptLen(ctx context.Context, coll *mongo.Collection, sessionID string) (int, error) {
	var doc struct {
		Transcript []models.Turn `bson:"transcript"`
	}
	err := coll.FindOne(ctx,
		bson.M{"_id": sessionID},
		options.FindOne().SetProjection(bson.M{models.FieldTranscript: 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read transcript %s: %w", sessionID, err)
	}
	return len(doc.Transcript), nil
}

// appendFilter matches the session document only if its transcript holds
// exactly n turns. An absent transcript counts as empty.
func appendFilter(sessionID string, n int) bson.M {
	if n == 0 {
		return bson.M{
			"_id": sessionID,
			"$or": bson.A{
				bson.M{models.FieldTranscript: bson.M{"$exists": false}},
				bson.M{models.FieldTranscript: bson.M{"$size": 0}},
			},
		}
	}
	return bson.M{
		"_id":                  sessionID,
		models.FieldTranscript: bson.M{"$size": n},
	}
}
