package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) CreateNext(ctx context.Context, attempt *models.Attempt, maxAttempts int) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz models.Quiz
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&quiz, attempt.QuizID).Error; err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Attempt{}).
			Where("user_id = ? AND quiz_id = ? AND status = ?", attempt.UserID, attempt.QuizID, models.AttemptInProgress).
			Count(&active).Error; err != nil {
			return fmt.Errorf("failed to check active attempts: %w", err)
		}
		if active > 0 {
			return repositories.ErrAttemptInProgress
		}

		var used int64
		if err := tx.Model(&models.Attempt{}).
			Where("user_id = ? AND quiz_id = ?", attempt.UserID, attempt.QuizID).
			Count(&used).Error; err != nil {
			return fmt.Errorf("failed to count attempts: %w", err)
		}
		if maxAttempts > 0 && used >= int64(maxAttempts) {
			return repositories.ErrAttemptLimitReached
		}

		attempt.AttemptNumber = int(used) + 1
		return tx.Create(attempt).Error
	})
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetWithAnswers(ctx context.Context, id uint) (*models.Attempt, error) {
	var attempt models.Attempt
	err := a.db.WithContext(ctx).
		Preload("Quiz").
		Preload("Answers").
		Preload("Answers.Question").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	query := a.db.WithContext(ctx).Model(&models.Attempt{})
	query = applyAttemptFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, attemptSortColumns, "started_at", filters.Limit, filters.Offset)

	var attempts []*models.Attempt
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, userID string, quizID uint) (*models.Attempt, error) {
	var attempt models.Attempt
	err := a.db.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND status = ?", userID, quizID, models.AttemptInProgress).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListExpired returns in-progress attempts whose deadline has passed
func (a *AttemptPostgreSQL) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Attempt, error) {
	if limit <= 0 {
		limit = 100
	}
	var attempts []*models.Attempt
	err := a.db.WithContext(ctx).
		Where("status = ? AND deadline IS NOT NULL AND deadline <= ?", models.AttemptInProgress, now).
		Order("deadline ASC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// Complete persists the scored attempt. The conditional update on status is
// the database side of the exactly-once guarantee.
func (a *AttemptPostgreSQL) Complete(ctx context.Context, attempt *models.Attempt, answers []models.AttemptAnswer) error {
	trigger := string(models.SubmitManual)
	if attempt.SubmitTrigger != nil {
		trigger = string(*attempt.SubmitTrigger)
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Attempt{}).
			Where("id = ? AND status = ?", attempt.ID, models.AttemptInProgress).
			Updates(map[string]any{
				"status":           models.AttemptCompleted,
				"completed_at":     attempt.CompletedAt,
				"time_spent":       attempt.TimeSpent,
				"percentage_score": attempt.PercentageScore,
				"earned_points":    attempt.EarnedPoints,
				"total_points":     attempt.TotalPoints,
				"is_passed":        attempt.IsPassed,
				"submit_trigger":   trigger,
				"updated_at":       time.Now(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete attempt: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			var existing models.Attempt
			if err := tx.Select("id").First(&existing, attempt.ID).Error; err != nil {
				return err
			}
			return repositories.ErrAttemptAlreadyCompleted
		}

		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_labels", "text_answer", "is_correct", "points_earned"}),
		}).Create(&answers).Error; err != nil {
			return fmt.Errorf("failed to save attempt answers: %w", err)
		}
		return nil
	})
}

func (a *AttemptPostgreSQL) CountByUserQuiz(ctx context.Context, userID string, quizID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return count, err
}

func (a *AttemptPostgreSQL) HasAttempted(ctx context.Context, userID string, quizID uint) (bool, error) {
	count, err := a.CountByUserQuiz(ctx, userID, quizID)
	return count > 0, err
}

// Stats aggregates completed attempts; rounding is left to the caller
func (a *AttemptPostgreSQL) Stats(ctx context.Context, quizID uint) (*models.QuizStats, error) {
	stats := &models.QuizStats{QuizID: quizID}

	var row struct {
		Total    int64
		Passed   int64
		Timeouts int64
		AvgScore float64
		AvgTime  float64
		MaxScore int
		MinScore int
	}
	err := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_passed THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(SUM(CASE WHEN submit_trigger <> ? THEN 1 ELSE 0 END), 0) AS timeouts,
			COALESCE(AVG(percentage_score), 0) AS avg_score,
			COALESCE(AVG(time_spent), 0) AS avg_time,
			COALESCE(MAX(percentage_score), 0) AS max_score,
			COALESCE(MIN(percentage_score), 0) AS min_score`, models.SubmitManual).
		Where("quiz_id = ? AND status = ?", quizID, models.AttemptCompleted).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats.TotalAttempts = row.Total
	stats.PassedAttempts = row.Passed
	stats.TimeoutCount = row.Timeouts
	stats.AverageScore = row.AvgScore
	stats.AverageTime = int(row.AvgTime)
	stats.HighestScore = row.MaxScore
	stats.LowestScore = row.MinScore
	if row.Total > 0 {
		stats.PassRate = float64(row.Passed) / float64(row.Total) * 100
	}
	return stats, nil
}

// LastActivity returns the most recent attempt start for the learner in a course
func (a *AttemptPostgreSQL) LastActivity(ctx context.Context, userID string, courseID uint) (*time.Time, error) {
	var last sql.NullTime
	err := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.user_id = ? AND quizzes.course_id = ?", userID, courseID).
		Select("MAX(quiz_attempts.started_at)").
		Row().
		Scan(&last)
	if err != nil {
		return nil, err
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// ListProgress groups attempts by learner and quiz for the given quizzes
func (a *AttemptPostgreSQL) ListProgress(ctx context.Context, quizIDs []uint) ([]models.UserQuizProgress, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	var rows []models.UserQuizProgress
	err := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Select(`user_id, quiz_id, COUNT(*) AS attempts,
			BOOL_OR(status = ?) AS completed,
			MAX(started_at) AS last_started_at`, models.AttemptCompleted).
		Where("quiz_id IN ?", quizIDs).
		Group("user_id, quiz_id").
		Scan(&rows).Error
	return rows, err
}
