package config

import (
	"io"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Publisher         string `mapstructure:"publisher"` // kafka or mock
	KafkaBrokers      string `mapstructure:"kafka_brokers"`
	NotificationTopic string `mapstructure:"notification_topic"`
	ReminderTopic     string `mapstructure:"reminder_topic"`
	PublishRetries    int    `mapstructure:"publish_retries"`
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Topics sends reminder events to their own topic when one is configured
func (c *EventConfig) Topics() events.Topics {
	topics := events.Topics{Default: c.NotificationTopic}
	if c.ReminderTopic != "" {
		topics.ByKind = map[string]string{"reminder": c.ReminderTopic}
	}
	return topics
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.NotificationTopic,
			"reminder_topic", c.ReminderTopic)

		publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			Topics:       c.Topics(),
			Retries:      c.PublishRetries,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}
