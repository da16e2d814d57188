package reminders

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func rule(t *testing.T, typ models.ReminderType, cond models.TriggerCondition) models.ReminderRule {
	t.Helper()
	raw, err := json.Marshal(cond)
	require.NoError(t, err)
	return models.ReminderRule{CourseID: 3, CourseTitle: "Go 101", Type: typ, Enabled: true, TriggerCondition: datatypes.JSON(raw)}
}

func userIDs(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Learner.UserID)
	}
	return out
}

func TestEvaluate_Inactivity(t *testing.T) {
	learners := []Learner{
		{UserID: "fresh", LastActivity: at(-30 * time.Hour)},
		{UserID: "stale", LastActivity: at(-4 * 24 * time.Hour)},
		{UserID: "never"},
		{UserID: "very-stale", LastActivity: at(-8 * 24 * time.Hour)},
	}

	tests := []struct {
		name string
		rule models.ReminderRule
		want []string
	}{
		{"progress default 3 days", rule(t, models.ReminderProgress, models.TriggerCondition{}), []string{"never", "stale", "very-stale"}},
		{"inactivity default 7 days", rule(t, models.ReminderInactivity, models.TriggerCondition{}), []string{"never", "very-stale"}},
		{"custom threshold", rule(t, models.ReminderProgress, models.TriggerCondition{DaysInactive: 1}), []string{"fresh", "never", "stale", "very-stale"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(Snapshot{Rule: tt.rule, Learners: learners}, now)
			assert.Equal(t, tt.want, userIDs(got))
		})
	}
}

func TestEvaluate_ProgressSkipsCompletedCourse(t *testing.T) {
	learners := []Learner{
		{UserID: "done", LastActivity: at(-5 * 24 * time.Hour)},
		{UserID: "halfway", LastActivity: at(-5 * 24 * time.Hour)},
	}
	s := Snapshot{
		Quizzes: []Quiz{{ID: 1}, {ID: 2}},
		Completed: map[string]map[uint]bool{
			"done":    {1: true, 2: true},
			"halfway": {1: true},
		},
		Learners: learners,
	}

	s.Rule = rule(t, models.ReminderProgress, models.TriggerCondition{})
	assert.Equal(t, []string{"halfway"}, userIDs(Evaluate(s, now)))
	assert.True(t, s.CourseCompleted("done"))
	assert.False(t, s.CourseCompleted("halfway"))

	s.Rule = rule(t, models.ReminderInactivity, models.TriggerCondition{DaysInactive: 3})
	assert.Equal(t, []string{"done", "halfway"}, userIDs(Evaluate(s, now)))

	assert.False(t, Snapshot{}.CourseCompleted("done"))
}

func TestEvaluate_PreferencesAndDisabledRule(t *testing.T) {
	learners := []Learner{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}
	r := rule(t, models.ReminderProgress, models.TriggerCondition{})

	got := Evaluate(Snapshot{Rule: r, Learners: learners, Preferences: map[string]bool{"a": false, "b": true}}, now)
	assert.Equal(t, []string{"b", "c"}, userIDs(got))

	r.Enabled = false
	assert.Empty(t, Evaluate(Snapshot{Rule: r, Learners: learners}, now))
}

func TestEvaluate_Deadline(t *testing.T) {
	quizzes := []Quiz{
		{ID: 1, Title: "soon", DueDate: at(36 * time.Hour)},
		{ID: 2, Title: "later", DueDate: at(5 * 24 * time.Hour)},
		{ID: 3, Title: "past", DueDate: at(-time.Hour)},
		{ID: 4, Title: "open"},
	}
	s := Snapshot{
		Rule:      rule(t, models.ReminderDeadline, models.TriggerCondition{}),
		Learners:  []Learner{{UserID: "done"}, {UserID: "todo"}},
		Quizzes:   quizzes,
		Completed: map[string]map[uint]bool{"done": {1: true}},
	}

	got := Evaluate(s, now)
	require.Len(t, got, 1)
	assert.Equal(t, "todo", got[0].Learner.UserID)
	assert.Equal(t, uint(1), got[0].Quiz.ID)
}

func TestEvaluate_Assignment(t *testing.T) {
	s := Snapshot{
		Rule:      rule(t, models.ReminderAssignment, models.TriggerCondition{}),
		Learners:  []Learner{{UserID: "u1"}, {UserID: "u2"}},
		Quizzes:   []Quiz{{ID: 1, Title: "q1"}, {ID: 2, Title: "q2", DueDate: at(-time.Hour)}},
		Attempted: map[string]map[uint]bool{"u1": {1: true}},
	}

	got := Evaluate(s, now)
	require.Len(t, got, 1)
	assert.Equal(t, "u2", got[0].Learner.UserID)
	assert.Equal(t, "q1", got[0].Quiz.Title)
}

func TestEvaluate_NewContent(t *testing.T) {
	learners := []Learner{{UserID: "u1"}}
	quizzes := []Quiz{
		{ID: 1, PublishedAt: at(-2 * time.Hour)},
		{ID: 2, PublishedAt: at(-30 * time.Hour)},
		{ID: 3},
	}

	got := Evaluate(Snapshot{Rule: rule(t, models.ReminderNewContent, models.TriggerCondition{}), Learners: learners, Quizzes: quizzes}, now)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].NewContentCount)

	got = Evaluate(Snapshot{Rule: rule(t, models.ReminderNewContent, models.TriggerCondition{HoursAfterNewContent: 48}), Learners: learners, Quizzes: quizzes}, now)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].NewContentCount)

	got = Evaluate(Snapshot{Rule: rule(t, models.ReminderNewContent, models.TriggerCondition{HoursAfterNewContent: 1}), Learners: learners, Quizzes: quizzes}, now)
	assert.Empty(t, got)
}

func TestRenderAndMessage(t *testing.T) {
	assert.Equal(t, "Hi Ann, {{unknown}}", Render("Hi {{user_name}}, {{unknown}}", map[string]string{"user_name": "Ann"}))

	r := rule(t, models.ReminderDeadline, models.TriggerCondition{})
	r.MessageTemplate = "{{user_name}}: {{assignment_title}} ({{course_url}})"
	subject, body := Message(r, Candidate{Learner: Learner{Email: "bob@example.com"}, Quiz: &Quiz{Title: "Quiz 1"}}, "https://learn.example.com/")

	assert.Equal(t, "Go 101 - deadline reminder", subject)
	assert.Equal(t, "bob: Quiz 1 (https://learn.example.com/courses/3)", body)
}
