// Package scoring evaluates a recorded interview with a generative model.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/observability/logging"
	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/schema"
	"ai-interview-service/internal/service/session"
	"ai-interview-service/internal/service/transcript"
	"ai-interview-service/internal/store"
)

// ErrEmptyTranscript is returned when a session has no recorded turns.
var ErrEmptyTranscript = errors.New("no transcript found")

// maxLoggedReply bounds how much of an unparsable reply is logged.
const maxLoggedReply = 500

// LifecyclePublisher receives the session.scored event.
type LifecyclePublisher interface {
	PublishLifecycle(ctx context.Context, ev models.LifecycleEvent) error
}

// Scorer turns a stored transcript into a persisted ScoreReport.
type Scorer struct {
	store     store.Store
	recorder  *transcript.Recorder
	tracker   *session.Tracker
	generator Generator
	publisher LifecyclePublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewScorer creates a Scorer. A nil generator makes every Score call fail
// with ErrGeneratorUnavailable.
func NewScorer(s store.Store, gen Generator, pub LifecyclePublisher) *Scorer {
	return &Scorer{
		store:     s,
		recorder:  transcript.NewRecorder(s),
		tracker:   session.NewTracker(s),
		generator: gen,
		publisher: pub,
		metrics:   metrics.DefaultMetrics,
		now:       time.Now,
	}
}

// Score reads the transcript, asks the model for a report, checks its
// required keys and stores it as returned. Storage failures after a
// successful evaluation are logged only.
func (s *Scorer) Score(ctx context.Context, sessionID string) (models.ScoreReport, error) {
	logger := logging.WithSession(sessionID).With().Str("component", "scoring").Logger()

	if s.generator == nil {
		s.metrics.RecordScoring("generator_unavailable", 0)
		return nil, ErrGeneratorUnavailable
	}

	turns, err := s.recorder.Read(ctx, sessionID)
	if err != nil {
		s.metrics.RecordScoring("store_error", 0)
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	if len(turns) == 0 {
		s.metrics.RecordScoring("empty_transcript", 0)
		return nil, fmt.Errorf("%w for session %s", ErrEmptyTranscript, sessionID)
	}

	logger.Info().Int("turns", len(turns)).Msg("Scoring interview")

	start := time.Now()
	reply, err := s.generator.Generate(ctx, BuildPrompt(turns))
	latency := time.Since(start).Seconds()
	if err != nil {
		s.metrics.RecordScoring("generator_error", latency)
		return nil, fmt.Errorf("score interview: %w", err)
	}

	report, err := schema.ParseScoreReply(reply)
	if err != nil {
		result := "missing_field"
		if errors.Is(err, schema.ErrUnparsable) {
			result = "unparsable"
		}
		s.metrics.RecordScoring(result, latency)
		logger.Error().Err(err).Str("reply", truncate(reply, maxLoggedReply)).Msg("Invalid scoring reply")
		return nil, err
	}

	if n := report.QuestionCount(); n != len(turns) {
		s.metrics.RecordScoreCountMismatch()
		logger.Warn().
			Int("expected", len(turns)).
			Int("received", n).
			Msg("Score count does not match transcript length")
	}

	s.persist(ctx, sessionID, report)
	s.metrics.RecordScoring("ok", latency)

	event := logger.Info().Int("questionScores", report.QuestionCount())
	if overall, ok := report.OverallScore(); ok {
		event = event.Float64("overallScore", overall)
	}
	event.Msg("Interview scored")

	return report, nil
}

func (s *Scorer) persist(ctx context.Context, sessionID string, report models.ScoreReport) {
	logger := logging.WithSession(sessionID).With().Str("component", "scoring").Logger()

	if err := s.store.Set(ctx, sessionID, models.FieldScoreReport, report); err != nil {
		s.metrics.RecordStoreError(models.FieldScoreReport, "set")
		logger.Warn().Err(err).Msg("Could not save score report")
	}
	if err := s.store.Set(ctx, sessionID, models.FieldScoredAt, s.now().UTC().Format(time.RFC3339)); err != nil {
		s.metrics.RecordStoreError(models.FieldScoredAt, "set")
		logger.Warn().Err(err).Msg("Could not save scoring time")
	}

	state, err := s.tracker.Apply(ctx, sessionID, session.EventScore)
	if err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			s.metrics.RecordInvalidTransition(session.EventScore.String())
		}
		logger.Warn().Err(err).Msg("Could not update session status")
	}

	if s.publisher == nil {
		return
	}
	ev := models.LifecycleEvent{
		EventType: models.EventSessionScored,
		SessionID: sessionID,
		Timestamp: s.now().UnixMilli(),
		Status:    state.String(),
		TurnCount: report.QuestionCount(),
	}
	if overall, ok := report.OverallScore(); ok {
		ev.OverallScore = &overall
	}
	if err := s.publisher.PublishLifecycle(ctx, ev); err != nil {
		logger.Warn().Err(err).Msg("Could not publish scored event")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
