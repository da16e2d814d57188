package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Upsert mirrors an identity provider account into the local users table.
	Upsert(ctx context.Context, user *models.User) error
}

type ReminderRepository interface {
	// Rules
	ListActiveRules(ctx context.Context) ([]*models.ReminderRule, error)
	ListRules(ctx context.Context, courseID *uint) ([]*models.ReminderRule, error)
	UpsertRule(ctx context.Context, rule *models.ReminderRule) error

	// Learners
	ListEnrollments(ctx context.Context, courseID uint, status *models.EnrollmentStatus) ([]*models.CourseEnrollment, error)

	// Preferences; a missing row means enabled
	GetPreferences(ctx context.Context, userID string) ([]*models.ReminderPreference, error)
	PreferenceMap(ctx context.Context, courseID uint, reminderType models.ReminderType) (map[string]bool, error)
	UpsertPreference(ctx context.Context, pref *models.ReminderPreference) error

	// Delivery log
	RecordLog(ctx context.Context, log *models.ReminderLog) error
	// SentSince reports a successful delivery since the given time. Reminders
	// about a specific quiz are tracked per quiz; a nil quizID matches only
	// course-wide reminders.
	SentSince(ctx context.Context, userID string, courseID uint, quizID *uint, reminderType models.ReminderType, since time.Time) (bool, error)
}
