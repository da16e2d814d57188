package reminders

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Render replaces every {{name}} in template with vars[name]. Unknown
// placeholders are left untouched.
func Render(template string, vars map[string]string) string {
	if template == "" || len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

var defaultTemplates = map[models.ReminderType]string{
	models.ReminderProgress:   "Hi {{user_name}}, you have not studied {{course_title}} recently ({{reason}}). Pick up where you left off!",
	models.ReminderInactivity: "Hi {{user_name}}, we miss you in {{course_title}}. It has been a while: {{reason}}.",
	models.ReminderDeadline:   "Hi {{user_name}}, \"{{assignment_title}}\" in {{course_title}} is due soon ({{reason}}).",
	models.ReminderAssignment: "Hi {{user_name}}, \"{{assignment_title}}\" in {{course_title}} is waiting for you.",
	models.ReminderNewContent: "Hi {{user_name}}, {{course_title}} has {{new_content_count}} new quizzes.",
}

// Message renders the rule's template, or the built-in one when the rule has none
func Message(rule models.ReminderRule, c Candidate, baseURL string) (subject, body string) {
	courseTitle := rule.CourseTitle
	if courseTitle == "" {
		courseTitle = fmt.Sprintf("course %d", rule.CourseID)
	}

	vars := map[string]string{
		"course_title":      courseTitle,
		"user_name":         displayName(c.Learner),
		"reason":            c.Reason,
		"assignment_title":  "",
		"new_content_count": fmt.Sprint(c.NewContentCount),
		"course_url":        fmt.Sprintf("%s/courses/%d", strings.TrimRight(baseURL, "/"), rule.CourseID),
		"preferences_url":   strings.TrimRight(baseURL, "/") + "/user/reminder-preferences",
	}
	if c.Quiz != nil {
		vars["assignment_title"] = c.Quiz.Title
	}

	tpl := rule.MessageTemplate
	if tpl == "" {
		tpl = defaultTemplates[rule.Type]
	}
	return fmt.Sprintf("%s - %s reminder", courseTitle, rule.Type), Render(tpl, vars)
}

func displayName(l Learner) string {
	if l.Name != "" {
		return l.Name
	}
	if at := strings.IndexByte(l.Email, '@'); at > 0 {
		return l.Email[:at]
	}
	return "learner"
}
