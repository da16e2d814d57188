package models

import "time"

// QuizStats summarises completed attempts for a quiz. Rates are percentages rounded to 0.1.
type QuizStats struct {
	QuizID         uint    `json:"quiz_id"`
	TotalAttempts  int64   `json:"total_attempts"`
	PassedAttempts int64   `json:"passed_attempts"`
	AverageScore   float64 `json:"average_score"`
	PassRate       float64 `json:"pass_rate"`
	HighestScore   int     `json:"highest_score"`
	LowestScore    int     `json:"lowest_score"`
	AverageTime    int     `json:"average_time_spent"` // seconds
	TimeoutCount   int64   `json:"timeout_count"`
}

// QuestionStats is the per-question correctness breakdown.
type QuestionStats struct {
	QuestionID       uint         `json:"question_id"`
	Number           int          `json:"number"`
	Type             QuestionType `json:"type"`
	TotalResponses   int64        `json:"total_responses"`
	CorrectResponses int64        `json:"correct_responses"`
	CorrectRate      float64      `json:"correct_rate"`
}

type QuizResults struct {
	Quiz      *Quiz           `json:"quiz"`
	Stats     QuizStats       `json:"stats"`
	Questions []QuestionStats `json:"questions,omitempty"`
	Attempts  []Attempt       `json:"attempts"`
	Generated time.Time       `json:"generated_at"`
}

// UserQuizProgress summarises one learner's attempts on one quiz
type UserQuizProgress struct {
	UserID        string    `json:"user_id"`
	QuizID        uint      `json:"quiz_id"`
	Attempts      int64     `json:"attempts"`
	Completed     bool      `json:"completed"`
	LastStartedAt time.Time `json:"last_started_at"`
}
