package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

type QuestionType string

const (
	QuestionSingle   QuestionType = QuestionType(scoring.TypeSingle)
	QuestionMultiple QuestionType = QuestionType(scoring.TypeMultiple)
	QuestionFill     QuestionType = QuestionType(scoring.TypeFill)
	QuestionEssay    QuestionType = QuestionType(scoring.TypeEssay)
)

func (t QuestionType) IsChoice() bool {
	return t == QuestionSingle || t == QuestionMultiple
}

type QuestionOption struct {
	Label     string `json:"label" validate:"required,option_label"`
	Text      string `json:"text" validate:"required,max=1000"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	QuizID   uint         `json:"quiz_id" gorm:"not null;index"`
	Number   int          `json:"number" gorm:"not null"`
	Type     QuestionType `json:"type" gorm:"not null;size:20" validate:"required,question_type"`
	Text     string       `json:"text" gorm:"type:text;not null" validate:"required,max=5000"`
	ImageURL *string      `json:"image_url" gorm:"size:500"`
	Points   int          `json:"points" gorm:"not null" validate:"min=0,max=1000"`

	Options         datatypes.JSON `json:"options" gorm:"type:jsonb"`          // []QuestionOption
	AcceptedAnswers datatypes.JSON `json:"accepted_answers" gorm:"type:jsonb"` // []string
	Explanation     *string        `json:"explanation" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

func (q *Question) OptionList() ([]QuestionOption, error) {
	var opts []QuestionOption
	if len(q.Options) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, fmt.Errorf("question %d: invalid options: %w", q.ID, err)
	}
	return opts, nil
}

func (q *Question) SetOptions(opts []QuestionOption) error {
	b, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	q.Options = datatypes.JSON(b)
	return nil
}

func (q *Question) AcceptedList() ([]string, error) {
	var answers []string
	if len(q.AcceptedAnswers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(q.AcceptedAnswers, &answers); err != nil {
		return nil, fmt.Errorf("question %d: invalid accepted answers: %w", q.ID, err)
	}
	return answers, nil
}

func (q *Question) SetAccepted(answers []string) error {
	b, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	q.AcceptedAnswers = datatypes.JSON(b)
	return nil
}

// ToScoring converts the stored row into the scoring union.
func (q *Question) ToScoring() (scoring.Question, error) {
	base := scoring.Base{
		ID:     q.ID,
		Number: q.Number,
		Prompt: q.Text,
		Value:  q.Points,
	}
	if q.ImageURL != nil {
		base.ImageURL = *q.ImageURL
	}

	switch q.Type {
	case QuestionSingle, QuestionMultiple:
		opts, err := q.OptionList()
		if err != nil {
			return nil, err
		}
		options := make([]scoring.Option, len(opts))
		for i, o := range opts {
			options[i] = scoring.Option{Label: o.Label, Text: o.Text, Correct: o.IsCorrect}
		}
		if q.Type == QuestionSingle {
			return scoring.SingleChoice{Base: base, Options: options}, nil
		}
		return scoring.MultipleChoice{Base: base, Options: options}, nil
	case QuestionFill:
		accepted, err := q.AcceptedList()
		if err != nil {
			return nil, err
		}
		return scoring.FillBlank{Base: base, Accepted: accepted}, nil
	case QuestionEssay:
		return scoring.Essay{Base: base}, nil
	default:
		return nil, fmt.Errorf("question %d: unknown type %q", q.ID, q.Type)
	}
}

// ToScoringSet converts a whole question list, preserving order.
func ToScoringSet(questions []Question) ([]scoring.Question, error) {
	out := make([]scoring.Question, 0, len(questions))
	for i := range questions {
		sq, err := questions[i].ToScoring()
		if err != nil {
			return nil, err
		}
		out = append(out, sq)
	}
	return out, nil
}

// Redacted returns a copy safe to send to learners: correctness flags and
// accepted answers are stripped.
func (q Question) Redacted() Question {
	out := q
	out.AcceptedAnswers = nil
	out.Explanation = nil
	if opts, err := q.OptionList(); err == nil && len(opts) > 0 {
		for i := range opts {
			opts[i].IsCorrect = false
		}
		_ = out.SetOptions(opts)
	}
	return out
}
