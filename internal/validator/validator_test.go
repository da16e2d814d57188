package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

func choiceQuestion(t *testing.T, typ models.QuestionType, opts ...models.QuestionOption) *models.Question {
	t.Helper()
	q := &models.Question{Type: typ, Text: "Pick", Points: 10}
	require.NoError(t, q.SetOptions(opts))
	return q
}

func fillQuestion(t *testing.T, accepted ...string) *models.Question {
	t.Helper()
	q := &models.Question{Type: models.QuestionFill, Text: "Capital of France?", Points: 5}
	require.NoError(t, q.SetAccepted(accepted))
	return q
}

func rules(errs ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Rule)
	}
	return out
}

func TestQuestionValidator_Validate(t *testing.T) {
	a := models.QuestionOption{Label: "A", Text: "one", IsCorrect: true}
	b := models.QuestionOption{Label: "B", Text: "two"}
	bCorrect := models.QuestionOption{Label: "B", Text: "two", IsCorrect: true}

	tests := []struct {
		name     string
		question *models.Question
		rules    []string
	}{
		{"single with one correct", choiceQuestion(t, models.QuestionSingle, a, b), nil},
		{"single with two correct", choiceQuestion(t, models.QuestionSingle, a, bCorrect), []string{"correct_answer"}},
		{"single with none correct", choiceQuestion(t, models.QuestionSingle, b, models.QuestionOption{Label: "C", Text: "three"}), []string{"correct_answer"}},
		{"multiple with two correct", choiceQuestion(t, models.QuestionMultiple, a, bCorrect), nil},
		{"multiple with none correct", choiceQuestion(t, models.QuestionMultiple, b, models.QuestionOption{Label: "C", Text: "x"}), []string{"correct_answer"}},
		{"too few options", choiceQuestion(t, models.QuestionSingle, a), []string{"min"}},
		{"duplicate labels", choiceQuestion(t, models.QuestionMultiple, a, models.QuestionOption{Label: "A", Text: "again"}), []string{"unique"}},
		{"lowercase label", choiceQuestion(t, models.QuestionSingle, a, models.QuestionOption{Label: "b", Text: "x"}), []string{"option_label"}},
		{"fill with answer", fillQuestion(t, "Paris", "paris"), nil},
		{"fill without answer", fillQuestion(t), []string{"correct_answer"}},
		{"fill with blank first answer", fillQuestion(t, "  ", "Paris"), []string{"correct_answer"}},
		{"essay", &models.Question{Type: models.QuestionEssay, Text: "Discuss", Points: 20}, nil},
		{"unknown type", &models.Question{Type: "matching", Text: "?", Points: 1}, []string{"question_type"}},
	}

	v := NewQuestionValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.question)
			if tt.rules == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.rules, rules(errs))
		})
	}
}

func TestQuestionValidator_ValidateBatchPrefixesField(t *testing.T) {
	v := NewQuestionValidator()
	errs := v.ValidateBatch([]*models.Question{
		{Type: models.QuestionEssay, Text: "ok"},
		{Type: models.QuestionEssay, Text: ""},
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "questions[1].text", errs[0].Field)
}

func TestValidator_ValidateStructUsesJSONNames(t *testing.T) {
	v := New()
	err := v.Validate(&models.Question{Type: "bogus", Text: "x"})
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "type", errs[0].Field)
	assert.Equal(t, "question_type", errs[0].Rule)
}

func TestBusinessValidator(t *testing.T) {
	b := NewBusinessValidator()
	b.now = func() time.Time { return time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC) }

	limit := 0
	assert.Empty(t, b.ValidateSettings(models.QuizSettings{PassingScore: 60, TimeLimitMinutes: &limit}))
	assert.Equal(t, []string{"passing_score", "max_attempts"}, rules(b.ValidateSettings(models.QuizSettings{PassingScore: 101, MaxAttempts: -1})))

	past := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	errs := b.ValidatePublishable(&models.Quiz{DueDate: &past, Settings: models.DefaultQuizSettings()}, 0)
	assert.Equal(t, []string{"min", "future_date"}, rules(errs))
}
