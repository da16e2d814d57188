package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type ReminderType string

const (
	ReminderProgress   ReminderType = "progress"
	ReminderInactivity ReminderType = "inactivity"
	ReminderDeadline   ReminderType = "deadline"
	ReminderAssignment ReminderType = "assignment"
	ReminderNewContent ReminderType = "new_content"
)

var ReminderTypes = []ReminderType{
	ReminderProgress,
	ReminderInactivity,
	ReminderDeadline,
	ReminderAssignment,
	ReminderNewContent,
}

func (t ReminderType) Valid() bool {
	for _, rt := range ReminderTypes {
		if rt == t {
			return true
		}
	}
	return false
}

type DeliveryMethod string

const (
	DeliveryEmail DeliveryMethod = "email"
	DeliveryInApp DeliveryMethod = "in_app"
	DeliveryBoth  DeliveryMethod = "both"
)

// TriggerCondition holds the thresholds a rule evaluates; zero values fall back to defaults.
type TriggerCondition struct {
	DaysInactive         int `json:"days_inactive,omitempty" validate:"min=0,max=365"`
	DaysBeforeDeadline   int `json:"days_before_deadline,omitempty" validate:"min=0,max=365"`
	HoursAfterNewContent int `json:"hours_after_new_content,omitempty" validate:"min=0,max=8760"`
}

// ReminderRule is an admin-configured reminder for one course.
type ReminderRule struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	CourseID         uint           `json:"course_id" gorm:"not null;uniqueIndex:idx_rule_course_type"`
	CourseTitle      string         `json:"course_title" gorm:"size:200"`
	Type             ReminderType   `json:"reminder_type" gorm:"not null;size:30;uniqueIndex:idx_rule_course_type" validate:"required,oneof=progress inactivity deadline assignment new_content"`
	Enabled          bool           `json:"is_enabled" gorm:"not null"`
	TriggerCondition datatypes.JSON `json:"trigger_condition" gorm:"type:jsonb"` // TriggerCondition
	MessageTemplate  string         `json:"message_template" gorm:"type:text"`
	DeliveryMethod   DeliveryMethod `json:"delivery_method" gorm:"size:20;default:email" validate:"omitempty,oneof=email in_app both"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReminderRule) TableName() string {
	return "course_reminder_rules"
}

func (r *ReminderRule) SetCondition(tc TriggerCondition) error {
	b, err := json.Marshal(tc)
	if err != nil {
		return err
	}
	r.TriggerCondition = datatypes.JSON(b)
	return nil
}

// Channels expands the delivery method; an empty method means email
func (r *ReminderRule) Channels() []DeliveryMethod {
	switch r.DeliveryMethod {
	case DeliveryInApp:
		return []DeliveryMethod{DeliveryInApp}
	case DeliveryBoth:
		return []DeliveryMethod{DeliveryInApp, DeliveryEmail}
	default:
		return []DeliveryMethod{DeliveryEmail}
	}
}

func (r *ReminderRule) Condition() TriggerCondition {
	var tc TriggerCondition
	if len(r.TriggerCondition) > 0 {
		_ = json.Unmarshal(r.TriggerCondition, &tc)
	}
	return tc
}

// ReminderPreference is a learner's opt-in/out for one (course, type); absence means enabled.
type ReminderPreference struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	UserID    string       `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_pref_user_course_type"`
	CourseID  uint         `json:"course_id" gorm:"not null;uniqueIndex:idx_pref_user_course_type"`
	Type      ReminderType `json:"reminder_type" gorm:"not null;size:30;uniqueIndex:idx_pref_user_course_type"`
	Enabled   bool         `json:"is_enabled" gorm:"not null"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (ReminderPreference) TableName() string {
	return "user_reminder_preferences"
}

type ReminderLogStatus string

const (
	ReminderSent   ReminderLogStatus = "sent"
	ReminderFailed ReminderLogStatus = "failed"
)

type ReminderLog struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	UserID         string            `json:"user_id" gorm:"not null;index;size:255"`
	CourseID       uint              `json:"course_id" gorm:"not null;index"`
	QuizID         *uint             `json:"quiz_id,omitempty" gorm:"index"`
	Type           ReminderType      `json:"reminder_type" gorm:"size:30"`
	DeliveryMethod DeliveryMethod    `json:"delivery_method" gorm:"size:20"`
	Status         ReminderLogStatus `json:"status" gorm:"size:20"`
	Subject        string            `json:"subject" gorm:"size:300"`
	Message        string            `json:"message" gorm:"type:text"`
	TriggerData    datatypes.JSON    `json:"trigger_data" gorm:"type:jsonb"`
	ErrorMessage   *string           `json:"error_message" gorm:"type:text"`
	SentAt         *time.Time        `json:"sent_at"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (ReminderLog) TableName() string {
	return "reminder_logs"
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
)

// CourseEnrollment links a learner to a course and tracks their last activity.
type CourseEnrollment struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	CourseID       uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment"`
	UserID         string           `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_enrollment"`
	Status         EnrollmentStatus `json:"status" gorm:"size:20;default:active;index"`
	LastActivityAt *time.Time       `json:"last_activity_at"`
	CreatedAt      time.Time        `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
