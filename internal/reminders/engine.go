// Package reminders decides which learners should receive a course reminder.
// It works on a snapshot of course state and performs no I/O.
package reminders

import (
	"fmt"
	"sort"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const (
	DefaultProgressDays     = 3
	DefaultInactivityDays   = 7
	DefaultDaysBeforeDue    = 2
	DefaultNewContentWindow = 24 * time.Hour
)

type Learner struct {
	UserID       string
	Email        string
	Name         string
	LastActivity *time.Time
}

type Quiz struct {
	ID          uint
	Title       string
	DueDate     *time.Time
	PublishedAt *time.Time
}

// Snapshot is everything a rule needs for one course
type Snapshot struct {
	Rule     models.ReminderRule
	Learners []Learner
	Quizzes  []Quiz
	// Attempted and Completed are keyed by user id then quiz id
	Attempted map[string]map[uint]bool
	Completed map[string]map[uint]bool
	// Preferences holds explicit choices; a learner missing from the map is opted in
	Preferences map[string]bool
}

// CourseCompleted reports whether userID has completed every published quiz.
// A course without quizzes is never complete.
func (s Snapshot) CourseCompleted(userID string) bool {
	if len(s.Quizzes) == 0 {
		return false
	}
	for _, q := range s.Quizzes {
		if !s.Completed[userID][q.ID] {
			return false
		}
	}
	return true
}

type Candidate struct {
	Learner         Learner
	Reason          string
	Quiz            *Quiz
	NewContentCount int
}

// Evaluate returns the learners the rule fires for at now, in user id order
func Evaluate(s Snapshot, now time.Time) []Candidate {
	if !s.Rule.Enabled {
		return nil
	}
	cond := s.Rule.Condition()

	learners := make([]Learner, 0, len(s.Learners))
	for _, l := range s.Learners {
		if enabled, ok := s.Preferences[l.UserID]; ok && !enabled {
			continue
		}
		learners = append(learners, l)
	}
	sort.Slice(learners, func(i, j int) bool { return learners[i].UserID < learners[j].UserID })

	switch s.Rule.Type {
	case models.ReminderProgress:
		pending := make([]Learner, 0, len(learners))
		for _, l := range learners {
			if !s.CourseCompleted(l.UserID) {
				pending = append(pending, l)
			}
		}
		return inactive(pending, now, daysOr(cond.DaysInactive, DefaultProgressDays))
	case models.ReminderInactivity:
		return inactive(learners, now, daysOr(cond.DaysInactive, DefaultInactivityDays))
	case models.ReminderDeadline:
		return deadline(s, learners, now, daysOr(cond.DaysBeforeDeadline, DefaultDaysBeforeDue))
	case models.ReminderAssignment:
		return assignment(s, learners, now)
	case models.ReminderNewContent:
		window := DefaultNewContentWindow
		if cond.HoursAfterNewContent > 0 {
			window = time.Duration(cond.HoursAfterNewContent) * time.Hour
		}
		return newContent(s, learners, now, window)
	}
	return nil
}

func daysOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func inactive(learners []Learner, now time.Time, days int) []Candidate {
	cutoff := now.AddDate(0, 0, -days)
	var out []Candidate
	for _, l := range learners {
		if l.LastActivity != nil && !l.LastActivity.Before(cutoff) {
			continue
		}
		out = append(out, Candidate{
			Learner: l,
			Reason:  fmt.Sprintf("no learning activity for %d days", days),
		})
	}
	return out
}

func deadline(s Snapshot, learners []Learner, now time.Time, days int) []Candidate {
	horizon := now.AddDate(0, 0, days)
	var due []Quiz
	for _, q := range s.Quizzes {
		if q.DueDate != nil && !q.DueDate.Before(now) && !q.DueDate.After(horizon) {
			due = append(due, q)
		}
	}

	var out []Candidate
	for _, l := range learners {
		for i := range due {
			if s.Completed[l.UserID][due[i].ID] {
				continue
			}
			out = append(out, Candidate{
				Learner: l,
				Quiz:    &due[i],
				Reason:  fmt.Sprintf("quiz due in %d days", days),
			})
		}
	}
	return out
}

func assignment(s Snapshot, learners []Learner, now time.Time) []Candidate {
	var open []Quiz
	for _, q := range s.Quizzes {
		if q.DueDate == nil || !q.DueDate.Before(now) {
			open = append(open, q)
		}
	}

	var out []Candidate
	for _, l := range learners {
		for i := range open {
			if s.Attempted[l.UserID][open[i].ID] {
				continue
			}
			out = append(out, Candidate{
				Learner: l,
				Quiz:    &open[i],
				Reason:  "quiz not attempted yet",
			})
		}
	}
	return out
}

func newContent(s Snapshot, learners []Learner, now time.Time, window time.Duration) []Candidate {
	since := now.Add(-window)
	count := 0
	for _, q := range s.Quizzes {
		if q.PublishedAt != nil && !q.PublishedAt.Before(since) && !q.PublishedAt.After(now) {
			count++
		}
	}
	if count == 0 {
		return nil
	}

	out := make([]Candidate, 0, len(learners))
	for _, l := range learners {
		out = append(out, Candidate{
			Learner:         l,
			Reason:          fmt.Sprintf("%d new quizzes published", count),
			NewContentCount: count,
		})
	}
	return out
}
