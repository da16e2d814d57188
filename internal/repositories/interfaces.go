package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

var ErrAttemptAlreadyCompleted = errors.New("attempt already completed")

var (
	// ErrAttemptLimitReached is returned by CreateNext when the learner used every attempt.
	ErrAttemptLimitReached = errors.New("attempt limit reached")
	// ErrAttemptInProgress is returned by CreateNext when another request
	// opened an attempt for the same learner and quiz first.
	ErrAttemptInProgress = errors.New("attempt already in progress")
)

// Repository aggregates every repository behind one handle.
type Repository interface {
	Quiz() QuizRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Reminder() ReminderRepository
	User() UserRepository
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Status    *models.QuizStatus `json:"status"`
	CourseID  *uint              `json:"course_id"`
	CreatedBy *string            `json:"created_by"`
	Search    string             `json:"search"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title", "due_date"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status    models.AttemptStatus `json:"status"`
	QuizID    *uint                `json:"quiz_id"`
	UserID    *string              `json:"user_id"`
	Passed    *bool                `json:"passed"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "started_at", "completed_at", "percentage_score"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
