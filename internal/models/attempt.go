package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

type SubmitTrigger string

const (
	SubmitManual  SubmitTrigger = "manual"
	SubmitTimeout SubmitTrigger = "timeout"
	SubmitExpired SubmitTrigger = "expired"
)

type Attempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	QuizID        uint          `json:"quiz_id" gorm:"not null;index;uniqueIndex:idx_attempt_number"`
	UserID        string        `json:"user_id" gorm:"not null;index;size:255;uniqueIndex:idx_attempt_number"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;uniqueIndex:idx_attempt_number"`
	Status        AttemptStatus `json:"status" gorm:"not null;default:in_progress;index"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	Deadline    *time.Time `json:"deadline"`
	CompletedAt *time.Time `json:"completed_at"`
	TimeSpent   int        `json:"time_spent"` // seconds

	PercentageScore int            `json:"percentage_score"`
	EarnedPoints    int            `json:"earned_points"`
	TotalPoints     int            `json:"total_points"`
	IsPassed        bool           `json:"is_passed"`
	SubmitTrigger   *SubmitTrigger `json:"submit_trigger" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Quiz    *Quiz           `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	Answers []AttemptAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (Attempt) TableName() string {
	return "quiz_attempts"
}

func (a *Attempt) IsCompleted() bool {
	return a.Status == AttemptCompleted
}

// Expired reports whether a timed attempt ran past its deadline.
func (a *Attempt) Expired(now time.Time) bool {
	return a.Deadline != nil && !now.Before(*a.Deadline)
}

// ApplySubmission copies a graded result onto the attempt.
func (a *Attempt) ApplySubmission(sub scoring.Submission, trigger SubmitTrigger, completedAt time.Time) {
	a.Status = AttemptCompleted
	a.PercentageScore = sub.PercentageScore
	a.EarnedPoints = sub.EarnedPoints
	a.TotalPoints = sub.TotalPoints
	a.IsPassed = sub.IsPassed
	a.SubmitTrigger = &trigger
	a.CompletedAt = &completedAt
	a.TimeSpent = int(completedAt.Sub(a.StartedAt).Seconds())
}

type AttemptAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`

	SelectedLabels datatypes.JSON `json:"selected_labels" gorm:"type:jsonb"` // []string
	TextAnswer     *string        `json:"text_answer" gorm:"type:text"`

	IsCorrect    bool `json:"is_correct"`
	PointsEarned int  `json:"points_earned"`

	CreatedAt time.Time `json:"created_at"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (AttemptAnswer) TableName() string {
	return "quiz_attempt_answers"
}

// Answer converts the stored row back to a scoring answer.
func (a *AttemptAnswer) Answer() scoring.Answer {
	var out scoring.Answer
	if len(a.SelectedLabels) > 0 {
		_ = json.Unmarshal(a.SelectedLabels, &out.Selected)
	}
	if a.TextAnswer != nil {
		out.Text = *a.TextAnswer
	}
	return out
}

// BuildAttemptAnswers produces one row per answered question with its outcome.
func BuildAttemptAnswers(attemptID uint, answers map[uint]scoring.Answer, outcomes []scoring.Outcome) []AttemptAnswer {
	rows := make([]AttemptAnswer, 0, len(answers))
	for _, out := range outcomes {
		ans, ok := answers[out.QuestionID]
		if !ok || ans.Empty() {
			continue
		}
		row := AttemptAnswer{
			AttemptID:    attemptID,
			QuestionID:   out.QuestionID,
			IsCorrect:    out.Correct,
			PointsEarned: out.PointsEarned,
		}
		if len(ans.Selected) > 0 {
			b, _ := json.Marshal(ans.Selected)
			row.SelectedLabels = datatypes.JSON(b)
		}
		if ans.Text != "" {
			text := ans.Text
			row.TextAnswer = &text
		}
		rows = append(rows, row)
	}
	return rows
}
