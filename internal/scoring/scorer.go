package scoring

import (
	"math"
	"strings"
)

// Outcome is the per-question scoring result.
type Outcome struct {
	QuestionID     uint `json:"question_id"`
	Answered       bool `json:"answered"`
	Correct        bool `json:"is_correct"`
	PointsEarned   int  `json:"points_earned"`
	PointsPossible int  `json:"points_possible"`
}

type Result struct {
	EarnedPoints    int       `json:"earnedPoints"`
	TotalPoints     int       `json:"totalPoints"`
	PercentageScore int       `json:"percentageScore"`
	Outcomes        []Outcome `json:"outcomes,omitempty"`
}

// Score walks the questions in order and compares each stored answer
// against the question's correct answer data. Every question counts toward
// the total; only correct ones earn points.
func Score(questions []Question, answers map[uint]Answer) Result {
	res := Result{Outcomes: make([]Outcome, 0, len(questions))}

	for _, q := range questions {
		points := q.Points()
		answer, answered := answers[q.QuestionID()]
		answered = answered && !answer.Empty()

		out := Outcome{
			QuestionID:     q.QuestionID(),
			Answered:       answered,
			PointsPossible: points,
		}
		if answered && IsCorrect(q, answer) {
			out.Correct = true
			out.PointsEarned = points
		}

		res.TotalPoints += points
		res.EarnedPoints += out.PointsEarned
		res.Outcomes = append(res.Outcomes, out)
	}

	res.PercentageScore = Percentage(res.EarnedPoints, res.TotalPoints)
	return res
}

// IsCorrect reports whether answer satisfies q. Essays are never correct.
func IsCorrect(q Question, answer Answer) bool {
	switch q := q.(type) {
	case SingleChoice:
		want, ok := q.CorrectLabel()
		return ok && len(answer.Selected) == 1 && answer.Selected[0] == want
	case MultipleChoice:
		return sameSet(answer.Selected, q.CorrectLabels())
	case FillBlank:
		if len(q.Accepted) == 0 {
			return false
		}
		return normalizeText(answer.Text) == normalizeText(q.Accepted[0])
	case Essay:
		return false
	default:
		return false
	}
}

// Percentage returns round(100*earned/total), or 0 for an empty quiz.
func Percentage(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(earned) / float64(total)))
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sameSet(a, b []string) bool {
	left := toSet(a)
	right := toSet(b)
	if len(left) != len(right) || len(left) != len(a) {
		return false
	}
	for k := range left {
		if _, ok := right[k]; !ok {
			return false
		}
	}
	return true
}

func toSet(xs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}
