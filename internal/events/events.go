// Package events publishes domain events for the dispatch engine, ported
// from shared/pkg/kafka. The engine itself never reads these back; a
// downstream consumer (out of scope) persists them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/draymaster/dispatchsim/internal/logger"
)

// Topics is the registry of event types the engine emits, mirroring the
// teacher's kafka.Topics constant block.
var Topics = struct {
	AssignmentCreated string
	DayCompleted      string
	CrewSkipped       string
}{
	AssignmentCreated: "dispatch.assignment.created",
	DayCompleted:      "dispatch.day.completed",
	CrewSkipped:       "dispatch.crew.skipped",
}

// Event is a domain event envelope, mirroring shared/pkg/kafka.Event.
type Event struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Source string      `json:"source"`
	Time   time.Time   `json:"time"`
	Data   interface{} `json:"data"`
}

// NewEvent builds an event with a fresh id, stamped with the given time.
func NewEvent(eventType, source string, data interface{}, now time.Time) *Event {
	return &Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		Source: source,
		Time:   now,
		Data:   data,
	}
}

// Producer wraps a kafka-go writer the way shared/pkg/kafka.Producer does.
type Producer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewProducer creates a producer against the given brokers. A nil/empty
// brokers list is valid: Publish becomes a structured-log no-op, letting the
// engine run standalone without a broker (spec.md §1 treats sinks/wiring as
// external collaborators).
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	if len(brokers) == 0 {
		return &Producer{log: log}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &Producer{writer: writer, log: log}
}

// Publish writes an event to topic, falling back to a log line when no
// broker is configured.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) error {
	if p.writer == nil {
		if p.log != nil {
			p.log.WithFields(map[string]interface{}{
				"topic":      topic,
				"event_type": event.Type,
				"event_id":   event.ID,
			}).Infow("event emitted (no broker configured)")
		}
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.ID),
		Value: data,
		Time:  event.Time,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "source", Value: []byte(event.Source)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		if p.log != nil {
			p.log.WithError(err).Errorw("failed to publish event", "topic", topic)
		}
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close closes the underlying writer, if any.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
