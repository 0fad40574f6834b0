package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ai-interview-service/internal/observability/logging"
	"ai-interview-service/internal/service/audio"
	"ai-interview-service/internal/service/dialogue"
	"ai-interview-service/internal/service/interview"
	"ai-interview-service/internal/service/stt"
)

// Metadata headers sent alongside a raw audio reply.
const (
	headerResponseText       = "X-Response-Text"
	headerResponseTranscript = "X-Response-Transcript"
	headerResponseIsEnd      = "X-Response-IsEnd"
	headerResponseIntent     = "X-Response-Intent"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := logging.WithComponent("http")
		logger.Warn().Err(err).Msg("Failed to write response body")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeAudio(w http.ResponseWriter, res *interview.ExchangeResult) {
	h := w.Header()
	h.Set("Content-Type", "audio/mpeg")
	h.Set("Content-Disposition", `inline; filename="response.mp3"`)
	h.Set(headerResponseText, headerValue(res.ReplyText))
	h.Set(headerResponseTranscript, headerValue(res.UserTranscript))
	h.Set(headerResponseIsEnd, strconv.FormatBool(res.IsEnd))
	h.Set(headerResponseIntent, headerValue(res.Intent))
	h.Set("Content-Length", strconv.Itoa(len(res.Audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Audio); err != nil {
		logger := logging.WithComponent("http")
		logger.Warn().Err(err).Msg("Failed to write audio response")
	}
}

// headerValue folds s onto one line of printable characters.
func headerValue(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// statusFor maps client input errors to 4xx. Dialogue, generator and
// scoring reply failures surface as 500 with the underlying message.
func statusFor(err error) int {
	switch {
	case errors.Is(err, interview.ErrMissingField),
		errors.Is(err, audio.ErrEmptyAudio),
		errors.Is(err, audio.ErrInvalidWAV),
		errors.Is(err, dialogue.ErrUnsupportedEncoding),
		errors.Is(err, stt.ErrUnsupportedEncoding):
		return http.StatusBadRequest
	case errors.Is(err, audio.ErrAudioTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
