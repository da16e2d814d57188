package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, quiz *models.Quiz) error // Questions are created with the quiz
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetWithQuestions(ctx context.Context, id uint) (*models.Quiz, error)
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	ListPublishedByCourse(ctx context.Context, courseID uint) ([]*models.Quiz, error)
	ListPublishedSince(ctx context.Context, courseID uint, since time.Time) ([]*models.Quiz, error)

	// Settings and status
	UpdateSettings(ctx context.Context, id uint, settings models.QuizSettings) error
	HasAttempts(ctx context.Context, id uint) (bool, error)
}

type QuestionRepository interface {
	ListByQuiz(ctx context.Context, quizID uint) ([]models.Question, error)
	// ReplaceForQuiz deletes the quiz's questions and inserts the given ones in one transaction.
	ReplaceForQuiz(ctx context.Context, quizID uint, questions []models.Question) error
	AppendToQuiz(ctx context.Context, quizID uint, questions []models.Question) error
	GetStats(ctx context.Context, quizID uint) ([]models.QuestionStats, error)
}
