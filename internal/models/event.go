package models

// Event types published on the interview topics.
const (
	EventSessionStarted   = "interview.session.started"
	EventSessionCompleted = "interview.session.completed"
	EventSessionScored    = "interview.session.scored"
	EventTurnRecorded     = "interview.turn.recorded"
)

// LifecycleEvent reports a session state change.
type LifecycleEvent struct {
	EventType    string   `json:"eventType"`
	SessionID    string   `json:"sessionId"`
	Timestamp    int64    `json:"timestamp"`
	Status       string   `json:"status"`
	Role         string   `json:"role,omitempty"`
	Intent       string   `json:"intent,omitempty"`
	TurnCount    int      `json:"turnCount,omitempty"`
	OverallScore *float64 `json:"overallScore,omitempty"`
}

// TurnEvent reports a transcript entry that has been persisted.
type TurnEvent struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Turn      int    `json:"turn"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}
