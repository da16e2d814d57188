package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) CanAuthor() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// User mirrors the identity provider account; the id is the provider's subject.
type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"size:20;default:student"`

	Language    string     `json:"language" gorm:"default:en;size:10"`
	IsActive    bool       `json:"is_active" gorm:"not null"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// AllModels lists every table the service owns, in migration order.
func AllModels() []any {
	return []any{
		&User{},
		&Quiz{},
		&Question{},
		&Attempt{},
		&AttemptAnswer{},
		&ReminderRule{},
		&ReminderPreference{},
		&ReminderLog{},
		&CourseEnrollment{},
	}
}
