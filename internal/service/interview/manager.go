// Package interview runs interview sessions against a dialogue platform and
// keeps the per-session bookkeeping: pending question, transcript and status.
package interview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"ai-interview-service/internal/config"
	"ai-interview-service/internal/models"
	"ai-interview-service/internal/observability/logging"
	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/service/audio"
	"ai-interview-service/internal/service/dialogue"
	"ai-interview-service/internal/service/session"
	"ai-interview-service/internal/service/stt"
	"ai-interview-service/internal/service/transcript"
	"ai-interview-service/internal/store"
)

// ErrMissingField is returned when a required request field is empty.
var ErrMissingField = errors.New("missing required field")

// Session parameter names sent on the first dialogue call.
const (
	ParamResumeSummary = "candidate_resume_summary"
	ParamPersona       = "interviewer_persona"
	ParamDifficulty    = "difficulty_level"
	ParamRole          = "role"
	ParamSessionID     = "session_id"
)

// Publisher receives interview events.
type Publisher interface {
	PublishTurn(ctx context.Context, ev models.TurnEvent) error
	PublishLifecycle(ctx context.Context, ev models.LifecycleEvent) error
}

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	Interview config.InterviewConfig
	Limits    audio.Limits

	// Transcriber, when set, converts spoken answers to text before they
	// reach the dialogue platform.
	Transcriber     stt.Transcriber
	TranscriberName string

	Publisher Publisher
}

// Manager implements start and exchange for interview sessions.
type Manager struct {
	dialogue  dialogue.Adapter
	store     store.Store
	recorder  *transcript.Recorder
	tracker   *session.Tracker
	stt       stt.Transcriber
	sttName   string
	publisher Publisher
	cfg       config.InterviewConfig
	limits    audio.Limits
	locks     *sessionLocks
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewManager creates a Manager over a dialogue adapter and a store.
func NewManager(d dialogue.Adapter, s store.Store, opts Options) *Manager {
	cfg := opts.Interview
	if cfg.RoleSelectionTemplate == "" {
		cfg = config.DefaultInterview()
	}
	limits := opts.Limits
	if limits.MaxBytes == 0 {
		limits = audio.DefaultLimits()
	}
	return &Manager{
		dialogue:  d,
		store:     s,
		recorder:  transcript.NewRecorder(s),
		tracker:   session.NewTracker(s),
		stt:       opts.Transcriber,
		sttName:   opts.TranscriberName,
		publisher: opts.Publisher,
		cfg:       cfg,
		limits:    limits,
		locks:     newSessionLocks(),
		metrics:   metrics.DefaultMetrics,
		now:       time.Now,
	}
}

// StartRequest opens an interview.
type StartRequest struct {
	SessionID     string
	Role          string
	ResumeSummary string
	Persona       string
	Difficulty    string
	Voice         bool // synthesize the first question
}

// StartResult is the agent's opening question.
type StartResult struct {
	SessionID   string
	ReplyText   string
	Audio       []byte
	AudioFormat string
}

// ExchangeRequest carries a typed answer.
type ExchangeRequest struct {
	SessionID  string
	AnswerText string
}

// AudioExchangeRequest carries a spoken answer. Empty encoding and sample rate
// are derived from the filename extension, or the configured defaults without one.
type AudioExchangeRequest struct {
	SessionID    string
	Audio        []byte
	Filename     string
	Encoding     string
	SampleRateHz int
}

// ExchangeResult is the agent's reply to one answer.
type ExchangeResult struct {
	ReplyText      string
	UserTranscript string
	Intent         string
	IsEnd          bool
	Turn           *models.Turn // nil when no pair was recorded
	Audio          []byte
	AudioFormat    string
}

// Start sends the role selection with the session parameters attached, resets
// the transcript and stores the agent's first question as pending.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session_id", ErrMissingField)
	}
	if strings.TrimSpace(req.Role) == "" {
		return nil, fmt.Errorf("%w: role", ErrMissingField)
	}

	info := models.SessionInfo{
		SessionID:     req.SessionID,
		Role:          req.Role,
		ResumeSummary: truncateRunes(req.ResumeSummary, m.cfg.ResumeSummaryMaxChars),
		Persona:       req.Persona,
		Difficulty:    req.Difficulty,
		StartedAt:     m.now().UTC(),
	}
	if info.Difficulty == "" {
		info.Difficulty = m.cfg.DefaultDifficulty
	}
	if info.Persona == "" {
		info.Persona = m.persona(req.Role)
	}

	logger := logging.WithSession(req.SessionID)
	unlock := m.locks.Lock(req.SessionID)
	defer unlock()

	resp, err := m.detect(ctx, "start", dialogue.Request{
		SessionID: req.SessionID,
		Text:      fmt.Sprintf(m.cfg.RoleSelectionTemplate, req.Role),
		Parameters: map[string]any{
			ParamResumeSummary: info.ResumeSummary,
			ParamPersona:       info.Persona,
			ParamDifficulty:    info.Difficulty,
			ParamRole:          info.Role,
			ParamSessionID:     info.SessionID,
		},
		SynthesizeSpeech: req.Voice,
	})
	if err != nil {
		return nil, err
	}

	reply := resp.ReplyText
	if reply == "" {
		reply = m.cfg.StartFallbackReply
	}

	if err := m.recorder.Reset(ctx, req.SessionID); err != nil {
		m.storeWarning(logger, err, models.FieldTranscript, "Could not reset transcript")
	}
	m.savePending(ctx, logger, req.SessionID, reply)
	if err := m.store.Set(ctx, req.SessionID, models.FieldSessionInfo, info); err != nil {
		m.storeWarning(logger, err, models.FieldSessionInfo, "Could not save session info")
	}
	if err := m.tracker.Reset(ctx, req.SessionID); err != nil {
		m.storeWarning(logger, err, models.FieldStatus, "Could not save session status")
	}

	m.metrics.RecordSessionStarted()
	m.publishLifecycle(ctx, logger, models.LifecycleEvent{
		EventType: models.EventSessionStarted,
		SessionID: req.SessionID,
		Status:    session.StateCreated.String(),
		Role:      req.Role,
		Intent:    resp.Intent,
	})

	logger.Info().
		Str("role", req.Role).
		Str("difficulty", info.Difficulty).
		Bool("voice", req.Voice).
		Msg("Interview session started")

	return &StartResult{
		SessionID:   req.SessionID,
		ReplyText:   reply,
		Audio:       resp.Audio,
		AudioFormat: resp.AudioFormat,
	}, nil
}

// Exchange pairs the pending question with a typed answer, records the pair
// and forwards the answer to the platform.
func (m *Manager) Exchange(ctx context.Context, req ExchangeRequest) (*ExchangeResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session_id", ErrMissingField)
	}
	if strings.TrimSpace(req.AnswerText) == "" {
		return nil, fmt.Errorf("%w: answer_text", ErrMissingField)
	}

	logger := logging.WithSession(req.SessionID)
	unlock := m.locks.Lock(req.SessionID)
	defer unlock()

	pending := m.readPending(ctx, logger, req.SessionID)
	turn := m.recordTurn(ctx, logger, req.SessionID, pending, req.AnswerText)

	resp, err := m.detect(ctx, "exchange", dialogue.Request{
		SessionID: req.SessionID,
		Text:      req.AnswerText,
	})
	if err != nil {
		return nil, err
	}

	res := &ExchangeResult{
		ReplyText:      resp.ReplyText,
		UserTranscript: req.AnswerText,
		Intent:         resp.Intent,
		IsEnd:          IsEndIntent(resp.Intent, m.cfg.EndIntentKeywords),
		Turn:           turn,
	}
	m.afterReply(ctx, logger, req.SessionID, resp.ReplyText, res)
	return res, nil
}

// ExchangeAudio handles a spoken answer. The audio is used for this request
// only; just its transcript is stored.
func (m *Manager) ExchangeAudio(ctx context.Context, req AudioExchangeRequest) (*ExchangeResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("%w: session_id", ErrMissingField)
	}
	if err := m.limits.Check(req.Audio); err != nil {
		return nil, err
	}

	encoding, rate := req.Encoding, req.SampleRateHz
	if filepath.Ext(req.Filename) == "" {
		// no extension to go by, use the configured defaults
		if encoding == "" {
			encoding = m.cfg.DefaultAudioEncoding
		}
		if rate <= 0 {
			rate = m.cfg.DefaultSampleRateHertz
		}
	}
	format := audio.Select(req.Filename, encoding, rate, req.Audio)
	m.metrics.RecordAudioReceived(len(req.Audio))

	logger := logging.WithSession(req.SessionID)
	logger.Debug().
		Int("bytes", len(req.Audio)).
		Str("encoding", format.Encoding).
		Int("sampleRateHz", format.SampleRateHz).
		Msg("Audio answer received")

	unlock := m.locks.Lock(req.SessionID)
	defer unlock()

	pending := m.readPending(ctx, logger, req.SessionID)

	var (
		resp     *dialogue.Response
		userText string
		turn     *models.Turn
		err      error
	)

	if m.stt != nil {
		if userText, err = m.transcribe(ctx, req.Audio, format); err != nil {
			return nil, err
		}
	}

	if userText != "" {
		turn = m.recordTurn(ctx, logger, req.SessionID, pending, userText)
		resp, err = m.detect(ctx, "exchange_audio", dialogue.Request{
			SessionID:        req.SessionID,
			Text:             userText,
			SynthesizeSpeech: true,
		})
	} else {
		if m.stt != nil {
			logger.Warn().Msg("Transcriber returned no text, sending audio to the dialogue platform")
		}
		resp, err = m.detect(ctx, "exchange_audio", dialogue.Request{
			SessionID:        req.SessionID,
			Audio:            req.Audio,
			AudioEncoding:    format.Encoding,
			SampleRateHz:     format.SampleRateHz,
			SynthesizeSpeech: true,
		})
		if err == nil {
			userText = resp.UserTranscript
			if userText != "" {
				turn = m.recordTurn(ctx, logger, req.SessionID, pending, userText)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if userText == "" {
		logger.Warn().Msg("No speech recognized in audio answer")
	}

	reply := resp.ReplyText
	if reply == "" {
		reply = m.cfg.ExchangeFallbackReply
	}

	res := &ExchangeResult{
		ReplyText:      reply,
		UserTranscript: userText,
		Intent:         resp.Intent,
		IsEnd:          IsEndIntent(resp.Intent, m.cfg.EndIntentKeywords),
		Turn:           turn,
		Audio:          resp.Audio,
		AudioFormat:    resp.AudioFormat,
	}
	m.afterReply(ctx, logger, req.SessionID, resp.ReplyText, res)
	return res, nil
}

// IsEndIntent reports whether intent contains any of keywords, ignoring case.
func IsEndIntent(intent string, keywords []string) bool {
	name := strings.ToLower(intent)
	for _, k := range keywords {
		if k != "" && strings.Contains(name, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// afterReply stores the next pending question and advances the session.
// rawReply is the platform's text before any fallback substitution.
func (m *Manager) afterReply(ctx context.Context, logger zerolog.Logger, sessionID, rawReply string, res *ExchangeResult) {
	if rawReply != "" && !res.IsEnd {
		m.savePending(ctx, logger, sessionID, rawReply)
	}

	m.advance(ctx, logger, sessionID, session.EventExchange)
	if res.IsEnd {
		m.advance(ctx, logger, sessionID, session.EventComplete)
		m.metrics.RecordSessionCompleted()

		count := 0
		if turns, err := m.recorder.Read(ctx, sessionID); err == nil {
			count = len(turns)
		}
		m.publishLifecycle(ctx, logger, models.LifecycleEvent{
			EventType: models.EventSessionCompleted,
			SessionID: sessionID,
			Status:    session.StateCompleted.String(),
			Intent:    res.Intent,
			TurnCount: count,
		})
		logger.Info().Str("intent", res.Intent).Int("turns", count).Msg("Interview completed")
	}
}

func (m *Manager) detect(ctx context.Context, operation string, req dialogue.Request) (*dialogue.Response, error) {
	input := "text"
	if len(req.Audio) > 0 {
		input = "audio"
	}

	start := time.Now()
	resp, err := m.dialogue.DetectIntent(ctx, req)
	m.metrics.RecordDialogueCall(operation, input, err, time.Since(start).Seconds())
	if err != nil {
		logger := logging.WithSession(req.SessionID)
		logger.Error().
			Err(err).
			Str("operation", operation).
			Str("code", metrics.ErrorCode(err)).
			Msg("Dialogue platform call failed")
		return nil, err
	}
	return resp, nil
}

func (m *Manager) transcribe(ctx context.Context, data []byte, format audio.Format) (string, error) {
	start := time.Now()
	res, err := m.stt.Transcribe(ctx, stt.Request{
		Audio:        data,
		Encoding:     format.Encoding,
		SampleRateHz: format.SampleRateHz,
	})
	m.metrics.RecordSTT(m.sttName, err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("transcribe answer: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}

func (m *Manager) readPending(ctx context.Context, logger zerolog.Logger, sessionID string) string {
	var pending string
	if _, err := m.store.Get(ctx, sessionID, models.FieldPendingQuestion, &pending); err != nil {
		m.storeWarning(logger, err, models.FieldPendingQuestion, "Could not read pending question")
		return ""
	}
	return pending
}

func (m *Manager) savePending(ctx context.Context, logger zerolog.Logger, sessionID, question string) {
	if err := m.store.Set(ctx, sessionID, models.FieldPendingQuestion, question); err != nil {
		m.storeWarning(logger, err, models.FieldPendingQuestion, "Could not save pending question")
	}
}

// recordTurn appends (pending, answer) when a question is pending.
func (m *Manager) recordTurn(ctx context.Context, logger zerolog.Logger, sessionID, pending, answer string) *models.Turn {
	if pending == "" {
		m.metrics.RecordMissingPending()
		logger.Warn().Msg("No pending question found, answer not recorded")
		return nil
	}

	turn, err := m.recorder.Append(ctx, sessionID, pending, answer)
	m.metrics.RecordTurn(err, errors.Is(err, store.ErrConflict))
	if err != nil {
		logger.Warn().Err(err).Msg("Could not save transcript entry")
		return nil
	}

	logger.Debug().Int("turn", turn.Turn).Msg("Transcript entry saved")
	if m.publisher != nil {
		ev := models.TurnEvent{
			EventType: models.EventTurnRecorded,
			SessionID: sessionID,
			Timestamp: m.now().UnixMilli(),
			Turn:      turn.Turn,
			Question:  turn.Question,
			Answer:    turn.Answer,
		}
		if err := m.publisher.PublishTurn(ctx, ev); err != nil {
			logger.Warn().Err(err).Msg("Could not publish turn event")
		}
	}
	return &turn
}

func (m *Manager) advance(ctx context.Context, logger zerolog.Logger, sessionID string, ev session.Event) {
	if _, err := m.tracker.Apply(ctx, sessionID, ev); err != nil {
		if errors.Is(err, session.ErrInvalidTransition) {
			m.metrics.RecordInvalidTransition(ev.String())
		} else {
			m.metrics.RecordStoreError(models.FieldStatus, "set")
		}
		logger.Warn().Err(err).Msg("Could not update session status")
	}
}

func (m *Manager) publishLifecycle(ctx context.Context, logger zerolog.Logger, ev models.LifecycleEvent) {
	if m.publisher == nil {
		return
	}
	ev.Timestamp = m.now().UnixMilli()
	if err := m.publisher.PublishLifecycle(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("eventType", ev.EventType).Msg("Could not publish lifecycle event")
	}
}

func (m *Manager) storeWarning(logger zerolog.Logger, err error, field, msg string) {
	m.metrics.RecordStoreError(field, "best_effort")
	logger.Warn().Err(err).Str("field", field).Msg(msg)
}

func (m *Manager) persona(role string) string {
	if strings.Contains(m.cfg.PersonaTemplate, "%s") {
		return fmt.Sprintf(m.cfg.PersonaTemplate, role)
	}
	return m.cfg.PersonaTemplate
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
