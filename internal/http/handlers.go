package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/service/audio"
	"ai-interview-service/internal/service/interview"
	"ai-interview-service/internal/service/session"
	"ai-interview-service/internal/service/transcript"
	"ai-interview-service/internal/store"
)

// Interviews runs interview sessions.
type Interviews interface {
	Start(ctx context.Context, req interview.StartRequest) (*interview.StartResult, error)
	Exchange(ctx context.Context, req interview.ExchangeRequest) (*interview.ExchangeResult, error)
	ExchangeAudio(ctx context.Context, req interview.AudioExchangeRequest) (*interview.ExchangeResult, error)
}

// Scorer evaluates a recorded transcript.
type Scorer interface {
	Score(ctx context.Context, sessionID string) (models.ScoreReport, error)
}

// shape selects the JSON field naming of a response.
type shape int

const (
	shapeDefault shape = iota
	shapeLegacy        // camelCase bodies of the voice-interview routes
)

// multipart bookkeeping allowed on top of the audio itself
const formOverhead = 1 << 20

// Handler serves the interview routes.
type Handler struct {
	interviews Interviews
	scorer     Scorer
	store      store.Store
	recorder   *transcript.Recorder
	tracker    *session.Tracker
	limits     audio.Limits
}

// NewHandler creates a Handler. A zero Limits value uses audio.DefaultLimits.
func NewHandler(iv Interviews, sc Scorer, s store.Store, limits audio.Limits) *Handler {
	if limits.MaxBytes == 0 {
		limits = audio.DefaultLimits()
	}
	return &Handler{
		interviews: iv,
		scorer:     sc,
		store:      s,
		recorder:   transcript.NewRecorder(s),
		tracker:    session.NewTracker(s),
		limits:     limits,
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type startRequest struct {
	SessionID     string `json:"session_id"`
	Role          string `json:"role"`
	ResumeSummary string `json:"resume_summary"`
	ResumeText    string `json:"resumeText"`
	Persona       string `json:"persona"`
	Difficulty    string `json:"difficulty"`
	Voice         *bool  `json:"voice"`
}

type startResponse struct {
	SessionID      string `json:"session_id"`
	AgentReplyText string `json:"agent_reply_text"`
	Audio          []byte `json:"audio,omitempty"`
	AudioFormat    string `json:"audio_format,omitempty"`
}

type legacyStartResponse struct {
	SessionID         string `json:"sessionId"`
	AudioResponse     []byte `json:"audioResponse"`
	AudioFormat       string `json:"audioFormat"`
	AgentResponseText string `json:"agentResponseText"`
}

func (h *Handler) start(sh shape) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body startRequest
		if err := decodeJSON(w, r, &body, formOverhead); err != nil {
			writeError(w, bodyStatus(err), err.Error())
			return
		}
		if body.SessionID == "" || body.Role == "" {
			writeError(w, http.StatusBadRequest, "session_id and role are required")
			return
		}

		resume := body.ResumeSummary
		if resume == "" {
			resume = body.ResumeText
		}
		voice := sh == shapeLegacy
		if body.Voice != nil {
			voice = *body.Voice
		}

		res, err := h.interviews.Start(r.Context(), interview.StartRequest{
			SessionID:     body.SessionID,
			Role:          body.Role,
			ResumeSummary: resume,
			Persona:       body.Persona,
			Difficulty:    body.Difficulty,
			Voice:         voice,
		})
		if err != nil {
			writeFailure(w, err)
			return
		}

		if sh == shapeLegacy {
			writeJSON(w, http.StatusOK, legacyStartResponse{
				SessionID:         res.SessionID,
				AudioResponse:     res.Audio,
				AudioFormat:       res.AudioFormat,
				AgentResponseText: res.ReplyText,
			})
			return
		}
		writeJSON(w, http.StatusOK, startResponse{
			SessionID:      res.SessionID,
			AgentReplyText: res.ReplyText,
			Audio:          res.Audio,
			AudioFormat:    res.AudioFormat,
		})
	}
}

type exchangeRequest struct {
	SessionID     string `json:"session_id"`
	AnswerText    string `json:"answer_text"`
	Audio         []byte `json:"audio"`
	Encoding      string `json:"encoding"`
	AudioEncoding string `json:"audioEncoding"`
	SampleRate    int    `json:"sample_rate"`
	SampleRateHz  int    `json:"sampleRate"`
}

type exchangeResponse struct {
	AgentReplyText string       `json:"agent_reply_text"`
	UserTranscript string       `json:"user_transcript,omitempty"`
	IsEnd          bool         `json:"is_end"`
	Intent         string       `json:"intent,omitempty"`
	Turn           *models.Turn `json:"turn,omitempty"`
	Audio          []byte       `json:"audio,omitempty"`
	AudioFormat    string       `json:"audio_format,omitempty"`
}

type legacyExchangeResponse struct {
	Error             string `json:"error,omitempty"`
	AgentResponseText string `json:"agentResponseText"`
	UserTranscript    string `json:"userTranscript"`
	IsEnd             bool   `json:"isEnd"`
	Intent            string `json:"intent"`
}

func (h *Handler) exchange(sh shape) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if isMultipart(r) {
			req, status, msg := h.readMultipartAudio(w, r)
			if msg != "" {
				writeError(w, status, msg)
				return
			}
			res, err := h.interviews.ExchangeAudio(r.Context(), req)
			h.writeExchange(w, sh, true, res, err)
			return
		}

		var body exchangeRequest
		if err := decodeJSON(w, r, &body, h.limits.MaxBytes*2+formOverhead); err != nil {
			writeError(w, bodyStatus(err), err.Error())
			return
		}

		if len(body.Audio) == 0 {
			if sh == shapeLegacy {
				writeError(w, http.StatusBadRequest, "session_id and audio are required")
				return
			}
			if body.SessionID == "" || strings.TrimSpace(body.AnswerText) == "" {
				writeError(w, http.StatusBadRequest, "session_id and answer_text are required")
				return
			}
			res, err := h.interviews.Exchange(r.Context(), interview.ExchangeRequest{
				SessionID:  body.SessionID,
				AnswerText: body.AnswerText,
			})
			h.writeExchange(w, sh, false, res, err)
			return
		}

		if body.SessionID == "" {
			writeError(w, http.StatusBadRequest, "session_id and audio are required")
			return
		}
		res, err := h.interviews.ExchangeAudio(r.Context(), interview.AudioExchangeRequest{
			SessionID:    body.SessionID,
			Audio:        body.Audio,
			Encoding:     firstNonEmpty(body.Encoding, body.AudioEncoding),
			SampleRateHz: firstPositive(body.SampleRate, body.SampleRateHz),
		})
		h.writeExchange(w, sh, true, res, err)
	}
}

// readMultipartAudio extracts the uploaded answer. A non-empty message means
// the request is rejected with status.
func (h *Handler) readMultipartAudio(w http.ResponseWriter, r *http.Request) (interview.AudioExchangeRequest, int, string) {
	var req interview.AudioExchangeRequest

	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, http.StatusRequestEntityTooLarge, audio.ErrAudioTooLarge.Error()
		}
		return req, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err)
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		file, header, err = r.FormFile("audio_file")
	}
	if err != nil {
		return req, http.StatusBadRequest, "No audio file provided"
	}
	defer file.Close()

	req.SessionID = r.FormValue("session_id")
	if req.SessionID == "" {
		return req, http.StatusBadRequest, "session_id is required"
	}

	data, err := h.limits.Read(file)
	if err != nil {
		return req, statusFor(err), err.Error()
	}
	req.Audio = data
	req.Filename = header.Filename
	req.Encoding = firstNonEmpty(r.FormValue("encoding"), r.FormValue("audioEncoding"))

	if v := firstNonEmpty(r.FormValue("sample_rate"), r.FormValue("sampleRate")); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return req, http.StatusBadRequest, fmt.Sprintf("invalid sample rate %q", v)
		}
		req.SampleRateHz = rate
	}
	return req, 0, ""
}

func (h *Handler) writeExchange(w http.ResponseWriter, sh shape, spoken bool, res *interview.ExchangeResult, err error) {
	if err != nil {
		writeFailure(w, err)
		return
	}

	if spoken && len(res.Audio) > 0 {
		writeAudio(w, res)
		return
	}

	if sh == shapeLegacy {
		body := legacyExchangeResponse{
			AgentResponseText: res.ReplyText,
			UserTranscript:    res.UserTranscript,
			IsEnd:             res.IsEnd,
			Intent:            res.Intent,
		}
		if spoken {
			body.Error = "No audio response from Dialogflow"
		}
		writeJSON(w, http.StatusOK, body)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{
		AgentReplyText: res.ReplyText,
		UserTranscript: res.UserTranscript,
		IsEnd:          res.IsEnd,
		Intent:         res.Intent,
		Turn:           res.Turn,
		Audio:          res.Audio,
		AudioFormat:    res.AudioFormat,
	})
}

type scoreRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) score(w http.ResponseWriter, r *http.Request) {
	var body scoreRequest
	if err := decodeJSON(w, r, &body, formOverhead); err != nil {
		writeError(w, bodyStatus(err), err.Error())
		return
	}
	if body.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	report, err := h.scorer.Score(r.Context(), body.SessionID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type sessionView struct {
	SessionID       string              `json:"session_id"`
	Status          string              `json:"status"`
	SessionInfo     *models.SessionInfo `json:"session_info,omitempty"`
	PendingQuestion string              `json:"pending_question,omitempty"`
	Transcript      []models.Turn       `json:"transcript"`
	ScoreReport     models.ScoreReport  `json:"score_report,omitempty"`
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "sessionID")

	view := sessionView{SessionID: id}

	var info models.SessionInfo
	hasInfo, err := h.store.Get(ctx, id, models.FieldSessionInfo, &info)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if hasInfo {
		view.SessionInfo = &info
	}

	hasPending, err := h.store.Get(ctx, id, models.FieldPendingQuestion, &view.PendingQuestion)
	if err != nil {
		writeFailure(w, err)
		return
	}

	if view.Transcript, err = h.recorder.Read(ctx, id); err != nil {
		writeFailure(w, err)
		return
	}

	if !hasInfo && !hasPending && len(view.Transcript) == 0 {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	state, err := h.tracker.Current(ctx, id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	view.Status = state.String()

	if _, err := h.store.Get(ctx, id, models.FieldScoreReport, &view.ScoreReport); err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
