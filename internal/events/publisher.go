// Package events publishes interview events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-interview-service/internal/models"
	"ai-interview-service/internal/observability/metrics"
)

// Publisher publishes turn and lifecycle events to separate Kafka topics,
// keyed by session id so each session's events stay ordered on one partition.
type Publisher struct {
	writerTurns     *kafka.Writer
	writerLifecycle *kafka.Writer
	principal       string
	topicTurns      string
	topicLifecycle  string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicTurns     string
	TopicLifecycle string
	Principal      string
	Enabled        bool
}

// New creates a publisher. Without brokers, or when disabled, events are only logged.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicTurns:     cfg.TopicTurns,
			topicLifecycle: cfg.TopicLifecycle,
			enabled:        false,
			metrics:        m,
		}
	}

	// Longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicTurns", cfg.TopicTurns).
		Str("topicLifecycle", cfg.TopicLifecycle).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerTurns:     newWriter(cfg.Brokers, cfg.TopicTurns, transport),
		writerLifecycle: newWriter(cfg.Brokers, cfg.TopicLifecycle, transport),
		principal:       cfg.Principal,
		topicTurns:      cfg.TopicTurns,
		topicLifecycle:  cfg.TopicLifecycle,
		enabled:         true,
		metrics:         m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishTurn publishes a recorded transcript entry to the turns topic.
func (p *Publisher) PublishTurn(ctx context.Context, ev models.TurnEvent) error {
	return p.publish(ctx, p.writerTurns, p.topicTurns, ev.EventType, ev.SessionID, ev)
}

// PublishLifecycle publishes a session state change to the lifecycle topic.
func (p *Publisher) PublishLifecycle(ctx context.Context, ev models.LifecycleEvent) error {
	return p.publish(ctx, p.writerLifecycle, p.topicLifecycle, ev.EventType, ev.SessionID, ev)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTurns != nil {
		if e := p.writerTurns.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing turns writer")
			err = e
		}
	}
	if p.writerLifecycle != nil {
		if e := p.writerLifecycle.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing lifecycle writer")
			err = e
		}
	}
	return err
}
