package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

const partitionKeyHeader = "partition_key"

// EventPublisher publishes quiz lifecycle and reminder events
type EventPublisher interface {
	PublishNotificationEvent(ctx context.Context, event *NotificationEvent) error
	Close() error
}

// Topics routes events by the domain prefix of their type ("quiz", "attempt",
// "reminder"). Domains without an entry go to Default.
type Topics struct {
	Default string
	ByKind  map[string]string
}

// For returns the topic for eventType.
func (t Topics) For(eventType EventType) string {
	kind, _, _ := strings.Cut(string(eventType), ".")
	if topic, ok := t.ByKind[kind]; ok && topic != "" {
		return topic
	}
	return t.Default
}

// KafkaEventPublisher publishes through Watermill's Kafka publisher
type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topics    Topics
	retries   int
	backoff   time.Duration
}

type PublisherConfig struct {
	KafkaBrokers []string
	Topics       Topics
	// Retries is the number of extra publish attempts after a failure.
	Retries int
	Backoff time.Duration
	Logger  *slog.Logger
}

func NewKafkaEventPublisher(config PublisherConfig) (*KafkaEventPublisher, error) {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Events for the same quiz, attempt or learner land on one partition
	// so consumers see them in order.
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers: config.KafkaBrokers,
		Marshaler: kafka.NewWithPartitioningMarshaler(func(_ string, msg *message.Message) (string, error) {
			return msg.Metadata.Get(partitionKeyHeader), nil
		}),
	}, watermill.NewSlogLogger(config.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return newKafkaEventPublisher(publisher, config), nil
}

func newKafkaEventPublisher(publisher message.Publisher, config PublisherConfig) *KafkaEventPublisher {
	if config.Backoff <= 0 {
		config.Backoff = 200 * time.Millisecond
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topics:    config.Topics,
		retries:   config.Retries,
		backoff:   config.Backoff,
	}
}

func (p *KafkaEventPublisher) PublishNotificationEvent(ctx context.Context, event *NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	topic := p.topics.For(event.Type)
	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))
	if key, ok := event.Metadata[partitionKeyHeader].(string); ok {
		msg.Metadata.Set(partitionKeyHeader, key)
	}

	wait := p.backoff
	for attempt := 0; ; attempt++ {
		err = p.publisher.Publish(topic, msg)
		if err == nil {
			break
		}
		if attempt >= p.retries {
			p.logger.Error("Failed to publish notification event",
				"event_id", event.ID,
				"event_type", event.Type,
				"topic", topic,
				"attempts", attempt+1,
				"error", err)
			return fmt.Errorf("failed to publish notification event: %w", err)
		}
		p.logger.Warn("Retrying notification event", "event_id", event.ID, "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to publish notification event: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}

	p.logger.Debug("Published notification event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", topic)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher keeps events in memory. Countdown goroutines publish
// concurrently with handlers, so access is guarded.
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []NotificationEvent
	Logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MockEventPublisher{Logger: logger}
}

func (m *MockEventPublisher) PublishNotificationEvent(_ context.Context, event *NotificationEvent) error {
	m.mu.Lock()
	m.Events = append(m.Events, *event)
	m.mu.Unlock()

	m.Logger.Debug("Recorded notification event", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

// GetPublishedEvents returns a copy of the recorded events in publish order
func (m *MockEventPublisher) GetPublishedEvents() []NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NotificationEvent(nil), m.Events...)
}

func (m *MockEventPublisher) EventsOfType(eventType EventType) []NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []NotificationEvent
	for _, e := range m.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = nil
}
