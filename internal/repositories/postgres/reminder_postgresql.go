package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type ReminderPostgreSQL struct {
	db *gorm.DB
}

func NewReminderPostgreSQL(db *gorm.DB) repositories.ReminderRepository {
	return &ReminderPostgreSQL{db: db}
}

func (r *ReminderPostgreSQL) ListActiveRules(ctx context.Context) ([]*models.ReminderRule, error) {
	var rules []*models.ReminderRule
	err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("course_id ASC, type ASC").
		Find(&rules).Error
	return rules, err
}

func (r *ReminderPostgreSQL) ListRules(ctx context.Context, courseID *uint) ([]*models.ReminderRule, error) {
	query := r.db.WithContext(ctx).Model(&models.ReminderRule{})
	if courseID != nil {
		query = query.Where("course_id = ?", *courseID)
	}
	var rules []*models.ReminderRule
	err := query.Order("course_id ASC, type ASC").Find(&rules).Error
	return rules, err
}

// UpsertRule keys rules on (course_id, type)
func (r *ReminderPostgreSQL) UpsertRule(ctx context.Context, rule *models.ReminderRule) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "course_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"course_title", "enabled", "trigger_condition", "message_template", "delivery_method", "updated_at",
		}),
	}).Create(rule).Error
}

func (r *ReminderPostgreSQL) ListEnrollments(ctx context.Context, courseID uint, status *models.EnrollmentStatus) ([]*models.CourseEnrollment, error) {
	query := r.db.WithContext(ctx).Preload("User").Where("course_id = ?", courseID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var enrollments []*models.CourseEnrollment
	err := query.Find(&enrollments).Error
	return enrollments, err
}

func (r *ReminderPostgreSQL) GetPreferences(ctx context.Context, userID string) ([]*models.ReminderPreference, error) {
	var prefs []*models.ReminderPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("course_id ASC, type ASC").
		Find(&prefs).Error
	return prefs, err
}

// PreferenceMap returns explicit preferences for a (course, type) keyed by user id
func (r *ReminderPostgreSQL) PreferenceMap(ctx context.Context, courseID uint, reminderType models.ReminderType) (map[string]bool, error) {
	var prefs []models.ReminderPreference
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND type = ?", courseID, reminderType).
		Find(&prefs).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(prefs))
	for _, p := range prefs {
		out[p.UserID] = p.Enabled
	}
	return out, nil
}

func (r *ReminderPostgreSQL) UpsertPreference(ctx context.Context, pref *models.ReminderPreference) error {
	pref.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(pref).Error
}

func (r *ReminderPostgreSQL) RecordLog(ctx context.Context, log *models.ReminderLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ReminderPostgreSQL) SentSince(ctx context.Context, userID string, courseID uint, quizID *uint, reminderType models.ReminderType, since time.Time) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ReminderLog{}).
		Where("user_id = ? AND course_id = ? AND type = ? AND status = ? AND sent_at >= ?",
			userID, courseID, reminderType, models.ReminderSent, since)
	if quizID != nil {
		query = query.Where("quiz_id = ?", *quizID)
	} else {
		query = query.Where("quiz_id IS NULL")
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}
