package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func single(id uint, points int, correct string) SingleChoice {
	q := SingleChoice{Base: Base{ID: id, Value: points}}
	for _, l := range []string{"A", "B", "C", "D"} {
		q.Options = append(q.Options, Option{Label: l, Correct: l == correct})
	}
	return q
}

func multiple(id uint, points int, correct ...string) MultipleChoice {
	set := toSet(correct)
	q := MultipleChoice{Base: Base{ID: id, Value: points}}
	for _, l := range []string{"A", "B", "C", "D"} {
		_, ok := set[l]
		q.Options = append(q.Options, Option{Label: l, Correct: ok})
	}
	return q
}

func TestGrade_TwoQuestionScenario(t *testing.T) {
	questions := []Question{single(1, 5, "A"), multiple(2, 5, "B", "C")}

	tests := []struct {
		name    string
		answers map[uint]Answer
		earned  int
		percent int
		passed  bool
	}{
		{
			name:    "all correct",
			answers: map[uint]Answer{1: {Selected: []string{"A"}}, 2: {Selected: []string{"B", "C"}}},
			earned:  10,
			percent: 100,
			passed:  true,
		},
		{
			name:    "multiple missing one label",
			answers: map[uint]Answer{1: {Selected: []string{"A"}}, 2: {Selected: []string{"B"}}},
			earned:  5,
			percent: 50,
			passed:  false,
		},
		{
			name:    "multiple order does not matter",
			answers: map[uint]Answer{1: {Selected: []string{"A"}}, 2: {Selected: []string{"C", "B"}}},
			earned:  10,
			percent: 100,
			passed:  true,
		},
		{
			name:    "multiple with extra label earns nothing",
			answers: map[uint]Answer{1: {Selected: []string{"A"}}, 2: {Selected: []string{"B", "C", "D"}}},
			earned:  5,
			percent: 50,
			passed:  false,
		},
		{
			name:    "nothing answered",
			answers: map[uint]Answer{},
			earned:  0,
			percent: 0,
			passed:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(questions, tt.answers, 60)
			assert.Equal(t, tt.earned, got.EarnedPoints)
			assert.Equal(t, 10, got.TotalPoints)
			assert.Equal(t, tt.percent, got.PercentageScore)
			assert.Equal(t, tt.passed, got.IsPassed)
		})
	}
}

func TestScore_FillBlank(t *testing.T) {
	q := FillBlank{Base: Base{ID: 7, Value: 10}, Accepted: []string{"Paris", "Paree"}}

	tests := []struct {
		name    string
		text    string
		correct bool
	}{
		{"surrounding whitespace and case", " paris ", true},
		{"upper case", "PARIS", true},
		{"trailing punctuation", "paris,", false},
		{"only first accepted answer counts", "Paree", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score([]Question{q}, map[uint]Answer{7: {Text: tt.text}})
			require.Len(t, res.Outcomes, 1)
			assert.Equal(t, tt.correct, res.Outcomes[0].Correct)
			if tt.correct {
				assert.Equal(t, 10, res.EarnedPoints)
			} else {
				assert.Equal(t, 0, res.EarnedPoints)
			}
		})
	}
}

func TestScore_SingleChoice(t *testing.T) {
	q := single(1, 4, "B")

	assert.True(t, IsCorrect(q, Answer{Selected: []string{"B"}}))
	assert.False(t, IsCorrect(q, Answer{Selected: []string{"A"}}))
	assert.False(t, IsCorrect(q, Answer{Selected: []string{"B", "A"}}))
	assert.False(t, IsCorrect(q, Answer{}))
}

func TestScore_EssayCountsTowardTotalOnly(t *testing.T) {
	questions := []Question{
		single(1, 5, "A"),
		Essay{Base: Base{ID: 2, Value: 5}},
	}
	answers := map[uint]Answer{
		1: {Selected: []string{"A"}},
		2: {Text: "a thoughtful essay"},
	}

	res := Score(questions, answers)
	assert.Equal(t, 5, res.EarnedPoints)
	assert.Equal(t, 10, res.TotalPoints)
	assert.Equal(t, 50, res.PercentageScore)
	assert.True(t, res.Outcomes[1].Answered)
	assert.False(t, res.Outcomes[1].Correct)
}

func TestScore_NoQuestions(t *testing.T) {
	res := Score(nil, map[uint]Answer{1: {Text: "stray"}})
	assert.Equal(t, 0, res.PercentageScore)
	assert.Equal(t, 0, res.TotalPoints)
	assert.Empty(t, res.Outcomes)
}

func TestScore_BoundsHold(t *testing.T) {
	questions := []Question{
		single(1, 3, "A"),
		multiple(2, 7, "A", "D"),
		FillBlank{Base: Base{ID: 3, Value: 1}, Accepted: []string{"go"}},
		Essay{Base: Base{ID: 4, Value: 9}},
	}
	answerSets := []map[uint]Answer{
		{},
		{1: {Selected: []string{"A"}}},
		{1: {Selected: []string{"A"}}, 2: {Selected: []string{"A", "D"}}, 3: {Text: "Go"}},
		{2: {Selected: []string{"D"}}, 3: {Text: "golang"}, 4: {Text: "x"}},
	}

	for _, answers := range answerSets {
		res := Score(questions, answers)
		assert.LessOrEqual(t, res.EarnedPoints, res.TotalPoints)
		assert.GreaterOrEqual(t, res.PercentageScore, 0)
		assert.LessOrEqual(t, res.PercentageScore, 100)
	}
}

func TestPercentage_Rounding(t *testing.T) {
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 0, Percentage(5, 0))
}

func TestClassify_InclusiveThreshold(t *testing.T) {
	assert.True(t, Classify(60, 60))
	assert.False(t, Classify(59, 60))
	assert.True(t, Classify(100, 100))
	assert.True(t, Classify(0, 0))
}
