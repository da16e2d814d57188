package validator

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// BusinessValidator holds rules that span fields or depend on time
type BusinessValidator struct {
	now func() time.Time
}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{now: time.Now}
}

func (b *BusinessValidator) ValidateSettings(s models.QuizSettings) ValidationErrors {
	var errs ValidationErrors
	if s.PassingScore < 0 || s.PassingScore > 100 {
		errs = append(errs, ValidationError{Field: "passing_score", Message: "must be between 0 and 100", Rule: "passing_score", Value: s.PassingScore})
	}
	if s.MaxAttempts < 0 {
		errs = append(errs, ValidationError{Field: "max_attempts", Message: "must be zero (unlimited) or a positive number", Rule: "max_attempts", Value: s.MaxAttempts})
	}
	if s.TimeLimitMinutes != nil && (*s.TimeLimitMinutes < 0 || *s.TimeLimitMinutes > 600) {
		errs = append(errs, ValidationError{Field: "time_limit_minutes", Message: "must be between 1 and 600 minutes", Rule: "time_limit", Value: *s.TimeLimitMinutes})
	}
	return errs
}

// ValidateDueDate rejects due dates in the past for quizzes being published
func (b *BusinessValidator) ValidateDueDate(due *time.Time) ValidationErrors {
	if due != nil && due.Before(b.now()) {
		return ValidationErrors{{Field: "due_date", Message: "must be in the future", Rule: "future_date", Value: due.Format(time.RFC3339)}}
	}
	return nil
}

// ValidatePublishable checks a quiz can be opened to learners
func (b *BusinessValidator) ValidatePublishable(quiz *models.Quiz, questionCount int) ValidationErrors {
	var errs ValidationErrors
	if questionCount == 0 {
		errs = append(errs, ValidationError{Field: "questions", Message: "quiz needs at least one question to be published", Rule: "min"})
	}
	errs = append(errs, b.ValidateSettings(quiz.Settings)...)
	return append(errs, b.ValidateDueDate(quiz.DueDate)...)
}
