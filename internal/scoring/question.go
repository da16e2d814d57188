package scoring

import "slices"

// QuestionType identifies which variant of Question a value holds.
type QuestionType string

const (
	TypeSingle   QuestionType = "single"
	TypeMultiple QuestionType = "multiple"
	TypeFill     QuestionType = "fill"
	TypeEssay    QuestionType = "essay"
)

func (t QuestionType) Valid() bool {
	switch t {
	case TypeSingle, TypeMultiple, TypeFill, TypeEssay:
		return true
	}
	return false
}

// Question is a closed union over SingleChoice, MultipleChoice, FillBlank and Essay.
type Question interface {
	QuestionID() uint
	Type() QuestionType
	Points() int

	sealed()
}

// Base carries the fields every question variant shares.
type Base struct {
	ID       uint
	Number   int
	Prompt   string
	ImageURL string
	Value    int
}

func (b Base) QuestionID() uint { return b.ID }
func (b Base) Points() int      { return b.Value }
func (Base) sealed()            {}

// Option is a labelled choice ("A", "B", ...).
type Option struct {
	Label   string
	Text    string
	Correct bool
}

type SingleChoice struct {
	Base
	Options []Option
}

func (SingleChoice) Type() QuestionType { return TypeSingle }

// CorrectLabel returns the first option flagged correct.
func (q SingleChoice) CorrectLabel() (string, bool) {
	for _, o := range q.Options {
		if o.Correct {
			return o.Label, true
		}
	}
	return "", false
}

type MultipleChoice struct {
	Base
	Options []Option
}

func (MultipleChoice) Type() QuestionType { return TypeMultiple }

func (q MultipleChoice) CorrectLabels() []string {
	labels := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if o.Correct {
			labels = append(labels, o.Label)
		}
	}
	return labels
}

type FillBlank struct {
	Base
	Accepted []string
}

func (FillBlank) Type() QuestionType { return TypeFill }

type Essay struct {
	Base
}

func (Essay) Type() QuestionType { return TypeEssay }

// Answer is a learner response: selected labels for choice questions, text otherwise.
type Answer struct {
	Selected []string `json:"selected,omitempty"`
	Text     string   `json:"text,omitempty"`
}

// Empty reports whether the answer carries no selection and no text.
func (a Answer) Empty() bool {
	return len(a.Selected) == 0 && a.Text == ""
}

// Equal compares selections in order and text exactly.
func (a Answer) Equal(b Answer) bool {
	return a.Text == b.Text && slices.Equal(a.Selected, b.Selected)
}

func (a Answer) clone() Answer {
	out := Answer{Text: a.Text}
	if a.Selected != nil {
		out.Selected = append([]string(nil), a.Selected...)
	}
	return out
}
