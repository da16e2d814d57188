package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	// Basic CRUD operations
	// CreateNext numbers and inserts the learner's next attempt while holding
	// a row lock on the quiz, so concurrent starts cannot exceed maxAttempts
	// (zero means unlimited) or open two attempts at once.
	CreateNext(ctx context.Context, attempt *models.Attempt, maxAttempts int) error
	GetByID(ctx context.Context, id uint) (*models.Attempt, error)
	GetWithAnswers(ctx context.Context, id uint) (*models.Attempt, error) // Include answers, questions and quiz

	// Query operations
	List(ctx context.Context, filters AttemptFilters) ([]*models.Attempt, int64, error)
	GetActiveAttempt(ctx context.Context, userID string, quizID uint) (*models.Attempt, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Attempt, error)

	// Completion writes the result and answers atomically; it fails with
	// ErrAttemptAlreadyCompleted if the attempt is no longer in progress.
	Complete(ctx context.Context, attempt *models.Attempt, answers []models.AttemptAnswer) error

	// Statistics and checks
	CountByUserQuiz(ctx context.Context, userID string, quizID uint) (int64, error)
	HasAttempted(ctx context.Context, userID string, quizID uint) (bool, error)
	Stats(ctx context.Context, quizID uint) (*models.QuizStats, error)
	LastActivity(ctx context.Context, userID string, courseID uint) (*time.Time, error)
	ListProgress(ctx context.Context, quizIDs []uint) ([]models.UserQuizProgress, error)
}
