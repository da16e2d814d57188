package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

// Create creates a quiz together with its questions
func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if quiz.Status == "" {
			quiz.Status = models.QuizStatusDraft
		}
		if err := tx.Create(quiz).Error; err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		return nil
	})
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions loads the quiz with questions ordered by number
func (q *QuizPostgreSQL) GetWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC, id ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}

	calculateComputedFields(&quiz)
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Quiz
		if err := tx.First(&current, quiz.ID).Error; err != nil {
			return err
		}

		quiz.CreatedBy = current.CreatedBy
		quiz.CreatedAt = current.CreatedAt
		quiz.UpdatedAt = time.Now()

		if err := tx.Omit("Questions").Save(quiz).Error; err != nil {
			return fmt.Errorf("failed to update quiz: %w", err)
		}
		return nil
	})
}

// Delete soft deletes a quiz
func (q *QuizPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := q.db.WithContext(ctx).Delete(&models.Quiz{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	query := q.db.WithContext(ctx).Model(&models.Quiz{})
	query = applyQuizFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, quizSortColumns, "created_at", filters.Limit, filters.Offset)

	var quizzes []*models.Quiz
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	if err := q.fillQuestionCounts(ctx, quizzes); err != nil {
		return nil, 0, err
	}
	return quizzes, total, nil
}

func (q *QuizPostgreSQL) ListPublishedByCourse(ctx context.Context, courseID uint) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	err := q.db.WithContext(ctx).
		Where("course_id = ? AND status = ?", courseID, models.QuizStatusPublished).
		Order("due_date ASC NULLS LAST").
		Find(&quizzes).Error
	return quizzes, err
}

func (q *QuizPostgreSQL) ListPublishedSince(ctx context.Context, courseID uint, since time.Time) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	err := q.db.WithContext(ctx).
		Where("course_id = ? AND status = ? AND published_at >= ?", courseID, models.QuizStatusPublished, since).
		Find(&quizzes).Error
	return quizzes, err
}

func (q *QuizPostgreSQL) UpdateSettings(ctx context.Context, id uint, settings models.QuizSettings) error {
	result := q.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		Select("time_limit_minutes", "max_attempts", "passing_score", "show_results", "show_correct_answers", "updated_at").
		Updates(map[string]any{
			"time_limit_minutes":   settings.TimeLimitMinutes,
			"max_attempts":         settings.MaxAttempts,
			"passing_score":        settings.PassingScore,
			"show_results":         settings.ShowResults,
			"show_correct_answers": settings.ShowCorrectAnswers,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) HasAttempts(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := q.db.WithContext(ctx).Model(&models.Attempt{}).Where("quiz_id = ?", id).Limit(1).Count(&count).Error
	return count > 0, err
}

func (q *QuizPostgreSQL) fillQuestionCounts(ctx context.Context, quizzes []*models.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	ids := make([]uint, len(quizzes))
	for i, quiz := range quizzes {
		ids[i] = quiz.ID
	}

	type row struct {
		QuizID uint
		Count  int
		Points int
	}
	var rows []row
	err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Select("quiz_id, COUNT(*) AS count, COALESCE(SUM(points), 0) AS points").
		Where("quiz_id IN ?", ids).
		Group("quiz_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byQuiz := make(map[uint]row, len(rows))
	for _, r := range rows {
		byQuiz[r.QuizID] = r
	}
	for _, quiz := range quizzes {
		quiz.QuestionsCount = byQuiz[quiz.ID].Count
		quiz.TotalPoints = byQuiz[quiz.ID].Points
	}
	return nil
}

func calculateComputedFields(quiz *models.Quiz) {
	quiz.QuestionsCount = len(quiz.Questions)
	quiz.TotalPoints = 0
	for _, question := range quiz.Questions {
		quiz.TotalPoints += question.Points
	}
}
