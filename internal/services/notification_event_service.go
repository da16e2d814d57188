package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// NotificationEventService turns domain changes into notification events
type NotificationEventService interface {
	// Quiz notifications
	NotifyQuizPublished(ctx context.Context, quiz *models.Quiz) error
	NotifyQuizImported(ctx context.Context, summary *models.ImportSummary, importedBy string) error

	// Attempt notifications
	NotifyAttemptStarted(ctx context.Context, attempt *models.Attempt, quizTitle string) error
	NotifyAttemptFinished(ctx context.Context, attempt *models.Attempt) error

	// Reminder notifications
	NotifyReminderSent(ctx context.Context, reminder events.ReminderSentEvent) error
}

type notificationEventService struct {
	eventPublisher events.EventPublisher
	logger         utils.Logger
}

func NewNotificationEventService(eventPublisher events.EventPublisher, logger utils.Logger) NotificationEventService {
	return &notificationEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// ===== QUIZ NOTIFICATIONS =====

func (s *notificationEventService) NotifyQuizPublished(ctx context.Context, quiz *models.Quiz) error {
	s.logger.Info("Publishing quiz published event", "quiz_id", quiz.ID)

	event := events.NewQuizPublishedEvent(events.QuizPublishedEvent{
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		CourseID:  quiz.CourseID,
		DueDate:   quiz.DueDate,
		CreatorID: quiz.CreatedBy,
	})
	return s.publish(ctx, event, quizPartition(quiz.ID))
}

func (s *notificationEventService) NotifyQuizImported(ctx context.Context, summary *models.ImportSummary, importedBy string) error {
	s.logger.Info("Publishing quiz imported event",
		"quiz_id", summary.QuizID,
		"format", summary.Format,
		"success_count", summary.SuccessCount)

	event := events.NewQuizImportedEvent(events.QuizImportedEvent{
		QuizID:        summary.QuizID,
		Format:        string(summary.Format),
		QuestionCount: summary.SuccessCount,
		ErrorCount:    summary.ErrorCount,
		ImportedBy:    importedBy,
	})
	return s.publish(ctx, event, quizPartition(summary.QuizID))
}

// ===== ATTEMPT NOTIFICATIONS =====

func (s *notificationEventService) NotifyAttemptStarted(ctx context.Context, attempt *models.Attempt, quizTitle string) error {
	s.logger.Info("Publishing attempt started event",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"user_id", attempt.UserID)

	event := events.NewAttemptStartedEvent(events.AttemptStartedEvent{
		AttemptID:     attempt.ID,
		QuizID:        attempt.QuizID,
		QuizTitle:     quizTitle,
		UserID:        attempt.UserID,
		AttemptNumber: attempt.AttemptNumber,
		StartedAt:     attempt.StartedAt,
		Deadline:      attempt.Deadline,
	})
	return s.publish(ctx, event, attemptPartition(attempt.ID))
}

// NotifyAttemptFinished publishes the submitted and graded events for a
// completed attempt, in that order.
func (s *notificationEventService) NotifyAttemptFinished(ctx context.Context, attempt *models.Attempt) error {
	if !attempt.IsCompleted() {
		return ErrAttemptNotActive
	}

	s.logger.Info("Publishing attempt finished events",
		"attempt_id", attempt.ID,
		"percentage_score", attempt.PercentageScore,
		"is_passed", attempt.IsPassed)

	trigger := string(models.SubmitManual)
	if attempt.SubmitTrigger != nil {
		trigger = string(*attempt.SubmitTrigger)
	}
	submitted := events.NewAttemptSubmittedEvent(events.AttemptSubmittedEvent{
		AttemptID:   attempt.ID,
		QuizID:      attempt.QuizID,
		UserID:      attempt.UserID,
		Trigger:     trigger,
		SubmittedAt: *attempt.CompletedAt,
		TimeSpent:   attempt.TimeSpent,
	})
	if err := s.publish(ctx, submitted, attemptPartition(attempt.ID)); err != nil {
		return err
	}

	graded := events.NewAttemptGradedEvent(events.AttemptGradedEvent{
		AttemptID:       attempt.ID,
		QuizID:          attempt.QuizID,
		UserID:          attempt.UserID,
		PercentageScore: attempt.PercentageScore,
		EarnedPoints:    attempt.EarnedPoints,
		TotalPoints:     attempt.TotalPoints,
		IsPassed:        attempt.IsPassed,
	})
	return s.publish(ctx, graded, attemptPartition(attempt.ID))
}

// ===== REMINDER NOTIFICATIONS =====

func (s *notificationEventService) NotifyReminderSent(ctx context.Context, reminder events.ReminderSentEvent) error {
	s.logger.Info("Publishing reminder sent event",
		"user_id", reminder.UserID,
		"course_id", reminder.CourseID,
		"reminder_type", reminder.ReminderType)

	return s.publish(ctx, events.NewReminderSentEvent(reminder), "user:"+reminder.UserID)
}

// ===== HELPER METHODS =====

func (s *notificationEventService) publish(ctx context.Context, event *events.NotificationEvent, partitionKey string) error {
	if event.Metadata == nil {
		event.Metadata = make(map[string]any)
	}
	event.Metadata["partition_key"] = partitionKey

	if err := s.eventPublisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func quizPartition(quizID uint) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

func attemptPartition(attemptID uint) string {
	return fmt.Sprintf("attempt:%d", attemptID)
}
