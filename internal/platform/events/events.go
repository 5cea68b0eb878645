// Package events publishes care-pathway transition events for downstream
// consumers such as reporting and audit pipelines.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// TransitionEvent describes one applied pathway transition.
type TransitionEvent struct {
	EventID           uuid.UUID `json:"event_id"`
	PatientID         uuid.UUID `json:"patient_id"`
	PatientIdentifier string    `json:"patient_identifier"`
	PreviousPathway   string    `json:"previous_pathway,omitempty"`
	Pathway           string    `json:"pathway"`
	Status            string    `json:"status"`
	Reason            string    `json:"reason,omitempty"`
	AppointmentIDs    []string  `json:"appointment_ids,omitempty"`
	ActorID           string    `json:"actor_id,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// Publisher emits transition events.
type Publisher interface {
	PublishTransition(ctx context.Context, evt TransitionEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by patient id, so all
// transitions of one patient land on the same partition in order.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// flushInterval bounds how long a single event waits in the writer's batch.
// Publishing is synchronous on the request path.
const flushInterval = 5 * time.Millisecond

// NewKafkaPublisher creates a publisher for topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    1,
			BatchTimeout: flushInterval,
			RequiredAcks: kafka.RequireOne,
		},
		timeout: 10 * time.Second,
	}
}

func (p *KafkaPublisher) PublishTransition(ctx context.Context, evt TransitionEvent) error {
	if evt.EventID == uuid.Nil {
		evt.EventID = uuid.New()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(evt.PatientID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("pathway.transition")},
		},
		Time: evt.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write transition event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransition(context.Context, TransitionEvent) error { return nil }
func (NopPublisher) Close() error                                             { return nil }
