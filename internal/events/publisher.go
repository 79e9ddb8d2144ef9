package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Topics for domain events.
const (
	TopicEnrollments = "academiahub.enrollments"
	TopicModules     = "academiahub.modules"
	TopicUsers       = "academiahub.users"
)

// Event types carried on the topics above.
const (
	EventEnrollmentCreated = "enrollment.created"
	EventEnrollmentRemoved = "enrollment.removed"
	EventEnrollmentGraded  = "enrollment.graded"
	EventModuleCreated     = "module.created"
	EventModuleUpdated     = "module.updated"
	EventModuleDeleted     = "module.deleted"
	EventUserRoleChanged   = "user.role_changed"
)

// Event is the envelope published to the message broker.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

// EventPublisher publishes domain events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, eventType string, payload map[string]any) error
	Close() error
}

// KafkaEventPublisher publishes events to Kafka via watermill.
type KafkaEventPublisher struct {
	publisher message.Publisher
}

// NewKafkaEventPublisher creates a watermill Kafka publisher for the given
// brokers.
func NewKafkaEventPublisher(brokers []string) (*KafkaEventPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{publisher: publisher}, nil
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, eventType string, payload map[string]any) error {
	event := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, data)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", eventType)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event %s to %s: %w", eventType, topic, err)
	}

	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records published events in memory. Used in tests and
// when no brokers are configured.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []Event
	topics []string
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (p *MockEventPublisher) Publish(_ context.Context, topic string, eventType string, payload map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	p.topics = append(p.topics, topic)
	return nil
}

func (p *MockEventPublisher) Close() error {
	return nil
}

// GetPublishedEvents returns a copy of everything published so far.
func (p *MockEventPublisher) GetPublishedEvents() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ClearEvents drops everything recorded so far.
func (p *MockEventPublisher) ClearEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.topics = nil
}

// EventsOfType filters recorded events by type.
func (p *MockEventPublisher) EventsOfType(eventType string) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []Event
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
