package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	failures int
	calls    int
	topics   []string
}

func (f *flakyPublisher) Publish(topic string, _ ...*message.Message) error {
	f.calls++
	f.topics = append(f.topics, topic)
	if f.calls <= f.failures {
		return errors.New("broker unavailable")
	}
	return nil
}

func (f *flakyPublisher) Close() error { return nil }

func TestKafkaEventPublisher_RoutesAndStampsMetadata(t *testing.T) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer pubsub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reminders, err := pubsub.Subscribe(ctx, "quiz-reminders")
	require.NoError(t, err)

	p := newKafkaEventPublisher(pubsub, PublisherConfig{
		Topics: Topics{Default: "notifications", ByKind: map[string]string{"reminder": "quiz-reminders"}},
	})

	event := NewReminderSentEvent(ReminderSentEvent{UserID: "u-1", CourseID: 3, ReminderType: "deadline"})
	event.Metadata = map[string]any{"partition_key": "user:u-1"}
	require.NoError(t, p.PublishNotificationEvent(ctx, event))

	select {
	case msg := <-reminders:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventReminderSent), msg.Metadata.Get("event_type"))
		assert.Equal(t, "user:u-1", msg.Metadata.Get("partition_key"))

		var decoded NotificationEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EventReminderSent, decoded.Type)
	case <-ctx.Done():
		t.Fatal("reminder event was not delivered")
	}
}

func TestKafkaEventPublisher_Retries(t *testing.T) {
	event := NewReminderSentEvent(ReminderSentEvent{UserID: "u-1"})

	t.Run("recovers within retry budget", func(t *testing.T) {
		flaky := &flakyPublisher{failures: 2}
		p := newKafkaEventPublisher(flaky, PublisherConfig{Topics: Topics{Default: "n"}, Retries: 2, Backoff: time.Millisecond})

		require.NoError(t, p.PublishNotificationEvent(context.Background(), event))
		assert.Equal(t, 3, flaky.calls)
	})

	t.Run("gives up after retries", func(t *testing.T) {
		flaky := &flakyPublisher{failures: 5}
		p := newKafkaEventPublisher(flaky, PublisherConfig{Topics: Topics{Default: "n"}, Retries: 1, Backoff: time.Millisecond})

		err := p.PublishNotificationEvent(context.Background(), event)
		require.Error(t, err)
		assert.Equal(t, 2, flaky.calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		flaky := &flakyPublisher{failures: 5}
		p := newKafkaEventPublisher(flaky, PublisherConfig{Topics: Topics{Default: "n"}, Retries: 3, Backoff: time.Hour})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := p.PublishNotificationEvent(ctx, event)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, flaky.calls)
	})
}

func TestMockEventPublisher_FiltersByType(t *testing.T) {
	m := NewMockEventPublisher(nil)
	ctx := context.Background()
	require.NoError(t, m.PublishNotificationEvent(ctx, &NotificationEvent{ID: "1", Type: EventAttemptStarted}))
	require.NoError(t, m.PublishNotificationEvent(ctx, &NotificationEvent{ID: "2", Type: EventAttemptGraded}))

	assert.Len(t, m.GetPublishedEvents(), 2)
	graded := m.EventsOfType(EventAttemptGraded)
	require.Len(t, graded, 1)
	assert.Equal(t, "2", graded[0].ID)

	m.ClearEvents()
	assert.Empty(t, m.GetPublishedEvents())
}
