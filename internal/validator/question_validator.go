package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const (
	minChoiceOptions = 2
	maxChoiceOptions = 10
)

// QuestionValidator checks that a question carries answer data its type can be scored with
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// Validate returns every problem found on the question. An empty result means the
// question is scorable.
func (v *QuestionValidator) Validate(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, ValidationError{Field: "text", Message: "is required", Rule: "required"})
	}
	if q.Points < 0 {
		errs = append(errs, ValidationError{Field: "points", Message: "must not be negative", Rule: "points_range", Value: q.Points})
	}

	switch q.Type {
	case models.QuestionSingle, models.QuestionMultiple:
		errs = append(errs, v.validateChoice(q)...)
	case models.QuestionFill:
		errs = append(errs, v.validateFill(q)...)
	case models.QuestionEssay:
	default:
		errs = append(errs, ValidationError{Field: "type", Message: "must be a valid question type (single, multiple, fill, essay)", Rule: "question_type", Value: q.Type})
	}
	return errs
}

// ValidateBatch validates multiple questions, prefixing fields with the question number
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) ValidationErrors {
	var errs ValidationErrors
	for i, q := range questions {
		errs = append(errs, v.Validate(q).Prefix(fmt.Sprintf("questions[%d]", i))...)
	}
	return errs
}

func (v *QuestionValidator) validateChoice(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	opts, err := q.OptionList()
	if err != nil {
		return ValidationErrors{{Field: "options", Message: "must be a list of options", Rule: "options"}}
	}
	if len(opts) < minChoiceOptions {
		errs = append(errs, ValidationError{Field: "options", Message: fmt.Sprintf("must have at least %d options", minChoiceOptions), Rule: "min", Value: len(opts)})
	}
	if len(opts) > maxChoiceOptions {
		errs = append(errs, ValidationError{Field: "options", Message: fmt.Sprintf("cannot have more than %d options", maxChoiceOptions), Rule: "max", Value: len(opts)})
	}

	seen := make(map[string]bool, len(opts))
	correct := 0
	for _, o := range opts {
		if !optionLabelPattern.MatchString(o.Label) {
			errs = append(errs, ValidationError{Field: "options.label", Message: "must be a single uppercase letter (A-Z)", Rule: "option_label", Value: o.Label})
		}
		if seen[o.Label] {
			errs = append(errs, ValidationError{Field: "options.label", Message: "must be unique", Rule: "unique", Value: o.Label})
		}
		seen[o.Label] = true
		if strings.TrimSpace(o.Text) == "" {
			errs = append(errs, ValidationError{Field: "options.text", Message: "is required", Rule: "required", Value: o.Label})
		}
		if o.IsCorrect {
			correct++
		}
	}

	switch {
	case q.Type == models.QuestionSingle && correct != 1:
		errs = append(errs, ValidationError{Field: "options", Message: "single choice needs exactly one correct option", Rule: "correct_answer", Value: correct})
	case q.Type == models.QuestionMultiple && correct == 0:
		errs = append(errs, ValidationError{Field: "options", Message: "multiple choice needs at least one correct option", Rule: "correct_answer", Value: correct})
	}
	return errs
}

func (v *QuestionValidator) validateFill(q *models.Question) ValidationErrors {
	accepted, err := q.AcceptedList()
	if err != nil {
		return ValidationErrors{{Field: "accepted_answers", Message: "must be a list of strings", Rule: "accepted_answers"}}
	}
	if len(accepted) == 0 || strings.TrimSpace(accepted[0]) == "" {
		return ValidationErrors{{Field: "accepted_answers", Message: "fill question needs a non-empty first accepted answer", Rule: "correct_answer"}}
	}
	return nil
}
