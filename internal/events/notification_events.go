package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of notification events
type EventType string

const (
	// Quiz events
	EventQuizPublished EventType = "quiz.published"
	EventQuizImported  EventType = "quiz.imported"

	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptGraded    EventType = "attempt.graded"

	// Reminder events
	EventReminderSent EventType = "reminder.sent"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// NotificationEvent is the base event structure for all notification events
type NotificationEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Quiz notification event payloads

type QuizPublishedEvent struct {
	QuizID    uint       `json:"quiz_id"`
	QuizTitle string     `json:"quiz_title"`
	CourseID  *uint      `json:"course_id,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatorID string     `json:"creator_id"`
}

type QuizImportedEvent struct {
	QuizID        uint   `json:"quiz_id"`
	Format        string `json:"format"`
	QuestionCount int    `json:"question_count"`
	ErrorCount    int    `json:"error_count"`
	ImportedBy    string `json:"imported_by"`
}

// Attempt notification event payloads

type AttemptStartedEvent struct {
	AttemptID     uint       `json:"attempt_id"`
	QuizID        uint       `json:"quiz_id"`
	QuizTitle     string     `json:"quiz_title"`
	UserID        string     `json:"user_id"`
	AttemptNumber int        `json:"attempt_number"`
	StartedAt     time.Time  `json:"started_at"`
	Deadline      *time.Time `json:"deadline,omitempty"`
}

type AttemptSubmittedEvent struct {
	AttemptID   uint      `json:"attempt_id"`
	QuizID      uint      `json:"quiz_id"`
	UserID      string    `json:"user_id"`
	Trigger     string    `json:"trigger"` // manual, timeout, expired
	SubmittedAt time.Time `json:"submitted_at"`
	TimeSpent   int       `json:"time_spent"` // seconds
}

type AttemptGradedEvent struct {
	AttemptID       uint   `json:"attempt_id"`
	QuizID          uint   `json:"quiz_id"`
	UserID          string `json:"user_id"`
	PercentageScore int    `json:"percentageScore"`
	EarnedPoints    int    `json:"earnedPoints"`
	TotalPoints     int    `json:"totalPoints"`
	IsPassed        bool   `json:"isPassed"`
}

// Reminder notification event payloads

type ReminderSentEvent struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	CourseID       uint   `json:"course_id"`
	ReminderType   string `json:"reminder_type"`
	DeliveryMethod string `json:"delivery_method"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	ActionURL      string `json:"action_url,omitempty"`
}

func newEvent(eventType EventType, data any) *NotificationEvent {
	return &NotificationEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewQuizPublishedEvent(data QuizPublishedEvent) *NotificationEvent {
	return newEvent(EventQuizPublished, data)
}

func NewQuizImportedEvent(data QuizImportedEvent) *NotificationEvent {
	return newEvent(EventQuizImported, data)
}

func NewAttemptStartedEvent(data AttemptStartedEvent) *NotificationEvent {
	return newEvent(EventAttemptStarted, data)
}

func NewAttemptSubmittedEvent(data AttemptSubmittedEvent) *NotificationEvent {
	return newEvent(EventAttemptSubmitted, data)
}

func NewAttemptGradedEvent(data AttemptGradedEvent) *NotificationEvent {
	return newEvent(EventAttemptGraded, data)
}

func NewReminderSentEvent(data ReminderSentEvent) *NotificationEvent {
	return newEvent(EventReminderSent, data)
}

func GenerateEventID() string {
	return uuid.NewString()
}
