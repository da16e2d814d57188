package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func TestNotificationEventService_PublishEvents(t *testing.T) {
	publisher := events.NewMockEventPublisher(nil)
	service := NewNotificationEventService(publisher, utils.NewNopLogger())
	ctx := context.Background()

	t.Run("QuizPublished", func(t *testing.T) {
		publisher.ClearEvents()
		courseID := uint(4)
		err := service.NotifyQuizPublished(ctx, &models.Quiz{ID: 7, Title: "Go basics", CourseID: &courseID, CreatedBy: "teacher-1"})
		require.NoError(t, err)

		published := publisher.EventsOfType(events.EventQuizPublished)
		require.Len(t, published, 1)
		assert.Equal(t, "quiz:7", published[0].Metadata["partition_key"])
		data, ok := published[0].Data.(events.QuizPublishedEvent)
		require.True(t, ok)
		assert.Equal(t, "Go basics", data.QuizTitle)
		assert.Equal(t, &courseID, data.CourseID)
	})

	t.Run("AttemptFinished publishes submitted then graded", func(t *testing.T) {
		publisher.ClearEvents()
		started := time.Now().Add(-5 * time.Minute)
		attempt := &models.Attempt{ID: 11, QuizID: 7, UserID: "u-1", StartedAt: started}
		attempt.ApplySubmission(gradedSubmission(), models.SubmitTimeout, started.Add(2*time.Minute))

		require.NoError(t, service.NotifyAttemptFinished(ctx, attempt))

		all := publisher.GetPublishedEvents()
		require.Len(t, all, 2)
		assert.Equal(t, events.EventAttemptSubmitted, all[0].Type)
		assert.Equal(t, events.EventAttemptGraded, all[1].Type)

		submitted := all[0].Data.(events.AttemptSubmittedEvent)
		assert.Equal(t, "timeout", submitted.Trigger)
		assert.Equal(t, 120, submitted.TimeSpent)

		graded := all[1].Data.(events.AttemptGradedEvent)
		assert.Equal(t, 50, graded.PercentageScore)
		assert.False(t, graded.IsPassed)
		assert.Equal(t, "attempt:11", all[1].Metadata["partition_key"])
	})

	t.Run("AttemptFinished rejects in-progress attempts", func(t *testing.T) {
		publisher.ClearEvents()
		err := service.NotifyAttemptFinished(ctx, &models.Attempt{ID: 12, Status: models.AttemptInProgress})
		assert.ErrorIs(t, err, ErrAttemptNotActive)
		assert.Empty(t, publisher.GetPublishedEvents())
	})

	t.Run("ReminderSent", func(t *testing.T) {
		publisher.ClearEvents()
		err := service.NotifyReminderSent(ctx, events.ReminderSentEvent{UserID: "u-2", CourseID: 3, ReminderType: "deadline"})
		require.NoError(t, err)

		sent := publisher.EventsOfType(events.EventReminderSent)
		require.Len(t, sent, 1)
		assert.Equal(t, "user:u-2", sent[0].Metadata["partition_key"])
		assert.Equal(t, "quiz-service", sent[0].Source)
	})
}
