// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc/status"
)

const namespace = "ai_interview"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Session metrics
	SessionsStarted    prometheus.Counter
	SessionsCompleted  prometheus.Counter
	InvalidTransitions *prometheus.CounterVec

	// Transcript metrics
	TurnsRecorded      prometheus.Counter
	TurnRecordFailures prometheus.Counter
	AppendConflicts    prometheus.Counter
	MissingPending     prometheus.Counter

	// Dialogue platform metrics
	DialogueLatency *prometheus.HistogramVec
	DialogueErrors  *prometheus.CounterVec

	// Audio metrics
	AudioBytesReceived prometheus.Counter

	// STT metrics
	STTLatency *prometheus.HistogramVec
	STTErrors  *prometheus.CounterVec

	// Scoring metrics
	ScoringRequests      *prometheus.CounterVec
	ScoringLatency       prometheus.Histogram
	ScoreCountMismatches prometheus.Counter

	// Store metrics
	StoreErrors *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// HTTP metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"route"}),

		// Session metrics
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of interview sessions started",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of interviews the agent marked as finished",
		}),
		InvalidTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_invalid_transitions_total",
			Help:      "Total number of session events not allowed in the current state",
		}, []string{"event"}),

		// Transcript metrics
		TurnsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_recorded_total",
			Help:      "Total number of question/answer pairs recorded",
		}),
		TurnRecordFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turn_record_failures_total",
			Help:      "Total number of question/answer pairs that could not be saved",
		}),
		AppendConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_append_conflicts_total",
			Help:      "Total number of transcript appends that lost every retry",
		}),
		MissingPending: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_question_missing_total",
			Help:      "Total number of answers received with no pending question",
		}),

		// Dialogue platform metrics
		DialogueLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dialogue_latency_seconds",
			Help:      "Dialogue platform detect-intent latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"operation", "input"}),
		DialogueErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogue_errors_total",
			Help:      "Total number of dialogue platform errors",
		}, []string{"operation", "code"}),

		// Audio metrics
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received",
		}),

		// STT metrics
		STTLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Speech-to-text processing latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"provider"}),
		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of STT errors",
		}, []string{"provider", "code"}),

		// Scoring metrics
		ScoringRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_requests_total",
			Help:      "Total number of scoring requests by result",
		}, []string{"result"}),
		ScoringLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scoring_latency_seconds",
			Help:      "Generative scoring latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
		}),
		ScoreCountMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_count_mismatches_total",
			Help:      "Total number of score reports whose per-question count differs from the transcript",
		}),

		// Store metrics
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of best-effort store operations that failed",
		}, []string{"field", "operation"}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, latencySeconds float64) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(latencySeconds)
}

// RecordSessionStarted records a new interview session.
func (m *Metrics) RecordSessionStarted() {
	m.SessionsStarted.Inc()
}

// RecordSessionCompleted records the agent ending an interview.
func (m *Metrics) RecordSessionCompleted() {
	m.SessionsCompleted.Inc()
}

// RecordInvalidTransition records a rejected session event.
func (m *Metrics) RecordInvalidTransition(event string) {
	m.InvalidTransitions.WithLabelValues(event).Inc()
}

// RecordTurn records the outcome of saving a question/answer pair.
func (m *Metrics) RecordTurn(err error, conflict bool) {
	if err == nil {
		m.TurnsRecorded.Inc()
		return
	}
	m.TurnRecordFailures.Inc()
	if conflict {
		m.AppendConflicts.Inc()
	}
}

// RecordMissingPending records an answer that had no question to pair with.
func (m *Metrics) RecordMissingPending() {
	m.MissingPending.Inc()
}

// RecordDialogueCall records one detect-intent call.
func (m *Metrics) RecordDialogueCall(operation, input string, err error, latencySeconds float64) {
	m.DialogueLatency.WithLabelValues(operation, input).Observe(latencySeconds)
	if err != nil {
		m.DialogueErrors.WithLabelValues(operation, ErrorCode(err)).Inc()
	}
}

// RecordAudioReceived records uploaded audio bytes.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordSTT records one transcription call.
func (m *Metrics) RecordSTT(provider string, err error, latencySeconds float64) {
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.STTErrors.WithLabelValues(provider, ErrorCode(err)).Inc()
	}
}

// RecordScoring records a scoring request by result (ok, empty_transcript,
// generator_error, unparsable, missing_field, store_error).
func (m *Metrics) RecordScoring(result string, latencySeconds float64) {
	m.ScoringRequests.WithLabelValues(result).Inc()
	if latencySeconds > 0 {
		m.ScoringLatency.Observe(latencySeconds)
	}
}

// RecordScoreCountMismatch records a report whose per-question count is off.
func (m *Metrics) RecordScoreCountMismatch() {
	m.ScoreCountMismatches.Inc()
}

// RecordStoreError records a swallowed store failure.
func (m *Metrics) RecordStoreError(field, operation string) {
	m.StoreErrors.WithLabelValues(field, operation).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// ErrorCode returns the gRPC status code name of err, searching wrapped
// errors. Errors that carry no status report Unknown.
func ErrorCode(err error) string {
	if err == nil {
		return "OK"
	}
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		return se.GRPCStatus().Code().String()
	}
	return status.Code(err).String()
}
