// Package models defines the records persisted per interview session and the
// events published about them.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Store field names. Every record lives under (sessionID, field).
const (
	FieldSessionInfo     = "session_info"
	FieldTranscript      = "transcript"
	FieldPendingQuestion = "last_agent_question"
	FieldScoreReport     = "score_report"
	FieldScoredAt        = "scored_at"
	FieldStatus          = "status"
)

// SessionInfo is the interview configuration captured when a session starts.
type SessionInfo struct {
	SessionID     string    `json:"session_id" firestore:"session_id" bson:"session_id"`
	Role          string    `json:"role" firestore:"role" bson:"role"`
	ResumeSummary string    `json:"resume_summary" firestore:"resume_summary" bson:"resume_summary"`
	Persona       string    `json:"persona" firestore:"persona" bson:"persona"`
	Difficulty    string    `json:"difficulty" firestore:"difficulty" bson:"difficulty"`
	StartedAt     time.Time `json:"started_at" firestore:"started_at" bson:"started_at"`
}

// Turn is one question/answer pair. Turn numbers start at 1 and have no gaps.
type Turn struct {
	Turn     int    `json:"turn" firestore:"turn" bson:"turn"`
	Question string `json:"question" firestore:"question" bson:"question"`
	Answer   string `json:"answer" firestore:"answer" bson:"answer"`
}

// Score report keys the model must return.
const (
	KeyQuestionScores = "question_scores"
	KeyOverallScore   = "overall_score"
	KeySummary        = "summary"
)

// ScoreReport is the score object exactly as the model returned it, extra
// keys included. A new report replaces the previous one for the same session.
type ScoreReport map[string]any

// QuestionCount returns the number of question_scores entries, or 0 when the
// value is not a list.
func (r ScoreReport) QuestionCount() int {
	switch v := r[KeyQuestionScores].(type) {
	case []any:
		return len(v)
	case []map[string]any:
		return len(v)
	}
	return 0
}

// OverallScore returns overall_score when it is a number or a numeric string.
func (r ScoreReport) OverallScore() (float64, bool) {
	switch v := r[KeyOverallScore].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
