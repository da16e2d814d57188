package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) ListByQuiz(ctx context.Context, quizID uint) ([]models.Question, error) {
	var questions []models.Question
	err := q.db.WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("number ASC, id ASC").
		Find(&questions).Error
	return questions, err
}

func (q *QuestionPostgreSQL) ReplaceForQuiz(ctx context.Context, quizID uint, questions []models.Question) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
			return fmt.Errorf("failed to delete existing questions: %w", err)
		}
		return insertQuestions(tx, quizID, questions, 0)
	})
}

// AppendToQuiz numbers new questions after the quiz's current highest number
func (q *QuestionPostgreSQL) AppendToQuiz(ctx context.Context, quizID uint, questions []models.Question) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		if err := tx.Model(&models.Question{}).
			Where("quiz_id = ?", quizID).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return fmt.Errorf("failed to get next question number: %w", err)
		}
		return insertQuestions(tx, quizID, questions, maxNumber)
	})
}

func insertQuestions(tx *gorm.DB, quizID uint, questions []models.Question, offset int) error {
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		questions[i].QuizID = quizID
		if offset > 0 || questions[i].Number == 0 {
			questions[i].Number = offset + i + 1
		}
	}
	if err := tx.CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

// GetStats returns per-question correctness. Answer rows only exist for completed attempts.
func (q *QuestionPostgreSQL) GetStats(ctx context.Context, quizID uint) ([]models.QuestionStats, error) {
	var stats []models.QuestionStats
	err := q.db.WithContext(ctx).
		Table("quiz_questions AS q").
		Select(`q.id AS question_id, q.number, q.type,
			COUNT(a.id) AS total_responses,
			COALESCE(SUM(CASE WHEN a.is_correct THEN 1 ELSE 0 END), 0) AS correct_responses`).
		Joins("LEFT JOIN quiz_attempt_answers a ON a.question_id = q.id").
		Where("q.quiz_id = ?", quizID).
		Group("q.id, q.number, q.type").
		Order("q.number ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	for i := range stats {
		if stats[i].TotalResponses > 0 {
			stats[i].CorrectRate = float64(stats[i].CorrectResponses) / float64(stats[i].TotalResponses) * 100
		}
	}
	return stats, nil
}
