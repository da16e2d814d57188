package scoring

// Submission is the terminal state persisted for an attempt.
type Submission struct {
	PercentageScore int  `json:"percentageScore"`
	EarnedPoints    int  `json:"earnedPoints"`
	TotalPoints     int  `json:"totalPoints"`
	IsPassed        bool `json:"isPassed"`

	Outcomes []Outcome `json:"-"`
}

// Classify applies an inclusive passing threshold.
func Classify(percentage, passingScore int) bool {
	return percentage >= passingScore
}

// Grade scores the answers and classifies the result against passingScore.
func Grade(questions []Question, answers map[uint]Answer, passingScore int) Submission {
	res := Score(questions, answers)
	return Submission{
		PercentageScore: res.PercentageScore,
		EarnedPoints:    res.EarnedPoints,
		TotalPoints:     res.TotalPoints,
		IsPassed:        Classify(res.PercentageScore, passingScore),
		Outcomes:        res.Outcomes,
	}
}
