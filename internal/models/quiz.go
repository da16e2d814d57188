package models

import (
	"time"

	"gorm.io/gorm"
)

type QuizStatus string

const (
	QuizStatusDraft     QuizStatus = "draft"
	QuizStatusPublished QuizStatus = "published"
	QuizStatusArchived  QuizStatus = "archived"
)

const DefaultPassingScore = 60

type Quiz struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	CourseID    *uint      `json:"course_id" gorm:"index"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Status      QuizStatus `json:"status" gorm:"default:draft;index" validate:"omitempty,oneof=draft published archived"`
	DueDate     *time.Time `json:"due_date"`
	PublishedAt *time.Time `json:"published_at"`

	Settings QuizSettings `json:"settings" gorm:"embedded"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

// QuizSettings configures the attempt lifecycle and result classification.
type QuizSettings struct {
	// nil or 0 means untimed
	TimeLimitMinutes   *int `json:"time_limit_minutes" yaml:"time_limit_minutes" gorm:"column:time_limit_minutes" validate:"omitempty,min=0,max=600"`
	MaxAttempts        int  `json:"max_attempts" yaml:"max_attempts" gorm:"column:max_attempts;not null" validate:"min=0,max=100"`
	PassingScore       int  `json:"passing_score" yaml:"passing_score" gorm:"column:passing_score;not null" validate:"min=0,max=100"`
	ShowResults        bool `json:"show_results" yaml:"show_results" gorm:"column:show_results;not null"`
	ShowCorrectAnswers bool `json:"show_correct_answers" yaml:"show_correct_answers" gorm:"column:show_correct_answers;not null"`
}

func DefaultQuizSettings() QuizSettings {
	return QuizSettings{
		PassingScore: DefaultPassingScore,
		ShowResults:  true,
	}
}

// TimeLimit returns the attempt duration, zero when untimed.
func (s QuizSettings) TimeLimit() time.Duration {
	if s.TimeLimitMinutes == nil || *s.TimeLimitMinutes <= 0 {
		return 0
	}
	return time.Duration(*s.TimeLimitMinutes) * time.Minute
}

// AttemptsExhausted reports whether used attempts reach the limit. Zero means unlimited.
func (s QuizSettings) AttemptsExhausted(used int64) bool {
	return s.MaxAttempts > 0 && used >= int64(s.MaxAttempts)
}

func (Quiz) TableName() string {
	return "quizzes"
}
