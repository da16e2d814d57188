package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/email"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/reminders"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg/monitoring"
)

// ReminderService evaluates course reminder rules and delivers the reminders
type ReminderService interface {
	// Run sends every reminder that is due. An empty Type runs all types.
	Run(ctx context.Context, req *RunRemindersRequest) (*RunRemindersResponse, error)
	Preview(ctx context.Context, reminderType models.ReminderType) (*ReminderPreview, error)

	// Rules
	ListRules(ctx context.Context, courseID *uint) ([]*models.ReminderRule, error)
	UpsertRule(ctx context.Context, req *ReminderRuleRequest) (*models.ReminderRule, error)

	// Preferences
	GetPreferences(ctx context.Context, userID string) ([]*models.ReminderPreference, error)
	UpdatePreferences(ctx context.Context, userID string, req *UpdatePreferencesRequest) ([]*models.ReminderPreference, error)
}

// ===== REQUEST / RESPONSE TYPES =====

type RunRemindersRequest struct {
	Type     models.ReminderType `json:"reminder_type" validate:"omitempty,reminder_type"`
	CourseID *uint               `json:"course_id"`
	UserID   string              `json:"user_id"`
	TestMode bool                `json:"test_mode"`
}

type SentReminder struct {
	UserID    string              `json:"user_id"`
	Email     string              `json:"email"`
	CourseID  uint                `json:"course_id"`
	Type      models.ReminderType `json:"reminder_type"`
	Reason    string              `json:"reason"`
	EmailSent bool                `json:"email_sent"`
	InAppSent bool                `json:"in_app_sent"`
}

type FailedReminder struct {
	UserID   string              `json:"user_id"`
	Email    string              `json:"email"`
	CourseID uint                `json:"course_id"`
	Type     models.ReminderType `json:"reminder_type"`
	Error    string              `json:"error"`
}

type RunRemindersResponse struct {
	Total     int              `json:"total"`
	Sent      []SentReminder   `json:"sent"`
	Failed    []FailedReminder `json:"failed"`
	Skipped   int              `json:"skipped"`
	EmailSent int              `json:"email_sent"`
	InAppSent int              `json:"in_app_sent"`
	TestMode  bool             `json:"test_mode"`
}

type ReminderCandidateView struct {
	UserID   string              `json:"user_id"`
	Email    string              `json:"email"`
	CourseID uint                `json:"course_id"`
	Type     models.ReminderType `json:"reminder_type"`
	Reason   string              `json:"reason"`
	QuizID   *uint               `json:"quiz_id,omitempty"`
}

type ReminderPreview struct {
	Candidates map[models.ReminderType][]ReminderCandidateView `json:"candidates"`
	Total      int                                             `json:"total"`
}

type ReminderRuleRequest struct {
	CourseID         uint                    `json:"course_id" validate:"required"`
	CourseTitle      string                  `json:"course_title" validate:"max=200"`
	Type             models.ReminderType     `json:"reminder_type" validate:"required,reminder_type"`
	Enabled          *bool                   `json:"is_enabled" validate:"required"`
	TriggerCondition models.TriggerCondition `json:"trigger_condition"`
	MessageTemplate  string                  `json:"message_template" validate:"max=2000"`
	DeliveryMethod   models.DeliveryMethod   `json:"delivery_method" validate:"omitempty,oneof=email in_app both"`
}

type PreferenceUpdate struct {
	CourseID uint                `json:"course_id" validate:"required"`
	Type     models.ReminderType `json:"reminder_type" validate:"required,reminder_type"`
	Enabled  *bool               `json:"is_enabled" validate:"required"`
}

type UpdatePreferencesRequest struct {
	Preferences []PreferenceUpdate `json:"preferences" validate:"required,min=1,max=100,dive"`
}

type ReminderOptions struct {
	BaseURL string
	// DedupeWindow suppresses a repeat of the same (user, course, type) reminder
	DedupeWindow time.Duration
}

const defaultDedupeWindow = 24 * time.Hour

type reminderService struct {
	repo      repositories.Repository
	sender    email.Sender
	notifier  NotificationEventService
	logger    utils.Logger
	validator *validator.Validator
	opts      ReminderOptions
	now       func() time.Time
}

func NewReminderService(
	repo repositories.Repository,
	sender email.Sender,
	notifier NotificationEventService,
	logger utils.Logger,
	validator *validator.Validator,
	opts ReminderOptions,
) ReminderService {
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = defaultDedupeWindow
	}
	return &reminderService{
		repo:      repo,
		sender:    sender,
		notifier:  notifier,
		logger:    logger,
		validator: validator,
		opts:      opts,
		now:       time.Now,
	}
}

// dueReminder is one candidate paired with the rule that produced it
type dueReminder struct {
	rule      *models.ReminderRule
	candidate reminders.Candidate
}

func (d dueReminder) quizID() *uint {
	if d.candidate.Quiz == nil {
		return nil
	}
	id := d.candidate.Quiz.ID
	return &id
}

// ===== DELIVERY =====

func (s *reminderService) Run(ctx context.Context, req *RunRemindersRequest) (*RunRemindersResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	now := s.now()
	s.logger.Info("Running reminders", "reminder_type", req.Type, "test_mode", req.TestMode)

	due, err := s.collect(ctx, req.Type, req.CourseID, now)
	if err != nil {
		return nil, err
	}

	resp := &RunRemindersResponse{TestMode: req.TestMode, Sent: []SentReminder{}, Failed: []FailedReminder{}}
	for _, d := range due {
		learner := d.candidate.Learner
		if req.UserID != "" && learner.UserID != req.UserID {
			continue
		}
		resp.Total++

		if !req.TestMode {
			recent, err := s.repo.Reminder().SentSince(ctx, learner.UserID, d.rule.CourseID, d.quizID(), d.rule.Type, now.Add(-s.opts.DedupeWindow))
			if err != nil {
				return nil, fmt.Errorf("failed to check reminder history: %w", err)
			}
			if recent {
				resp.Skipped++
				continue
			}
		}

		sent, deliveryErr := s.deliver(ctx, d, now, req.TestMode)
		if sent.EmailSent {
			resp.EmailSent++
		}
		if sent.InAppSent {
			resp.InAppSent++
		}
		if sent.EmailSent || sent.InAppSent {
			resp.Sent = append(resp.Sent, sent)
			continue
		}
		msg := "no delivery channel succeeded"
		if deliveryErr != nil {
			msg = deliveryErr.Error()
		}
		resp.Failed = append(resp.Failed, FailedReminder{
			UserID:   learner.UserID,
			Email:    learner.Email,
			CourseID: d.rule.CourseID,
			Type:     d.rule.Type,
			Error:    msg,
		})
	}

	s.logger.Info("Reminders processed",
		"total", resp.Total,
		"sent", len(resp.Sent),
		"failed", len(resp.Failed),
		"skipped", resp.Skipped)
	return resp, nil
}

func (s *reminderService) Preview(ctx context.Context, reminderType models.ReminderType) (*ReminderPreview, error) {
	if reminderType != "" && !reminderType.Valid() {
		return nil, ErrInvalidReminderType
	}
	due, err := s.collect(ctx, reminderType, nil, s.now())
	if err != nil {
		return nil, err
	}

	preview := &ReminderPreview{Candidates: make(map[models.ReminderType][]ReminderCandidateView)}
	for _, d := range due {
		view := ReminderCandidateView{
			UserID:   d.candidate.Learner.UserID,
			Email:    d.candidate.Learner.Email,
			CourseID: d.rule.CourseID,
			Type:     d.rule.Type,
			Reason:   d.candidate.Reason,
		}
		view.QuizID = d.quizID()
		preview.Candidates[d.rule.Type] = append(preview.Candidates[d.rule.Type], view)
		preview.Total++
	}
	return preview, nil
}

// deliver sends one reminder on each channel of its rule. In test mode
// nothing leaves the service and every channel counts as delivered.
func (s *reminderService) deliver(ctx context.Context, d dueReminder, now time.Time, testMode bool) (SentReminder, error) {
	learner := d.candidate.Learner
	subject, body := reminders.Message(*d.rule, d.candidate, s.opts.BaseURL)
	actionURL := fmt.Sprintf("/courses/%d", d.rule.CourseID)

	result := SentReminder{
		UserID:   learner.UserID,
		Email:    learner.Email,
		CourseID: d.rule.CourseID,
		Type:     d.rule.Type,
		Reason:   d.candidate.Reason,
	}

	var lastErr error
	for _, channel := range d.rule.Channels() {
		if testMode {
			if channel == models.DeliveryEmail {
				result.EmailSent = true
			} else {
				result.InAppSent = true
			}
			continue
		}

		var err error
		switch channel {
		case models.DeliveryEmail:
			if learner.Email == "" {
				err = fmt.Errorf("learner %s has no email address", learner.UserID)
				break
			}
			err = s.sender.Send(ctx, email.Message{
				ToName:      learner.Name,
				ToAddress:   learner.Email,
				Subject:     subject,
				TextContent: body,
			})
		case models.DeliveryInApp:
			err = s.notifier.NotifyReminderSent(ctx, events.ReminderSentEvent{
				UserID:         learner.UserID,
				Email:          learner.Email,
				CourseID:       d.rule.CourseID,
				ReminderType:   string(d.rule.Type),
				DeliveryMethod: string(channel),
				Subject:        subject,
				Message:        body,
				ActionURL:      actionURL,
			})
		}

		status := models.ReminderSent
		if err != nil {
			status = models.ReminderFailed
			lastErr = err
			s.logger.Warn("Reminder delivery failed",
				"user_id", learner.UserID,
				"course_id", d.rule.CourseID,
				"channel", channel,
				"error", err)
		} else if channel == models.DeliveryEmail {
			result.EmailSent = true
		} else {
			result.InAppSent = true
		}
		monitoring.RemindersSent.WithLabelValues(string(d.rule.Type), string(status)).Inc()
		s.recordLog(ctx, d, channel, status, subject, body, now, err)
	}
	return result, lastErr
}

func (s *reminderService) recordLog(ctx context.Context, d dueReminder, channel models.DeliveryMethod, status models.ReminderLogStatus, subject, body string, now time.Time, sendErr error) {
	trigger := map[string]any{"reason": d.candidate.Reason, "new_content_count": d.candidate.NewContentCount}
	if d.candidate.Quiz != nil {
		trigger["quiz_id"] = d.candidate.Quiz.ID
	}
	triggerData, _ := json.Marshal(trigger)

	entry := &models.ReminderLog{
		UserID:         d.candidate.Learner.UserID,
		CourseID:       d.rule.CourseID,
		QuizID:         d.quizID(),
		Type:           d.rule.Type,
		DeliveryMethod: channel,
		Status:         status,
		Subject:        subject,
		Message:        body,
		TriggerData:    datatypes.JSON(triggerData),
	}
	if sendErr != nil {
		msg := sendErr.Error()
		entry.ErrorMessage = &msg
	} else {
		sentAt := now
		entry.SentAt = &sentAt
	}
	if err := s.repo.Reminder().RecordLog(ctx, entry); err != nil {
		s.logger.Error("Failed to record reminder log", "user_id", entry.UserID, "course_id", entry.CourseID, "error", err)
	}
}

// ===== EVALUATION =====

// collect evaluates every enabled rule matching the filters
func (s *reminderService) collect(ctx context.Context, reminderType models.ReminderType, courseID *uint, now time.Time) ([]dueReminder, error) {
	rules, err := s.repo.Reminder().ListActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder rules: %w", err)
	}

	var due []dueReminder
	for _, rule := range rules {
		if reminderType != "" && rule.Type != reminderType {
			continue
		}
		if courseID != nil && rule.CourseID != *courseID {
			continue
		}
		snapshot, err := s.snapshot(ctx, rule)
		if err != nil {
			return nil, err
		}
		for _, c := range reminders.Evaluate(snapshot, now) {
			due = append(due, dueReminder{rule: rule, candidate: c})
		}
	}
	return due, nil
}

func (s *reminderService) snapshot(ctx context.Context, rule *models.ReminderRule) (reminders.Snapshot, error) {
	snapshot := reminders.Snapshot{
		Rule:      *rule,
		Attempted: make(map[string]map[uint]bool),
		Completed: make(map[string]map[uint]bool),
	}

	active := models.EnrollmentActive
	enrollments, err := s.repo.Reminder().ListEnrollments(ctx, rule.CourseID, &active)
	if err != nil {
		return snapshot, fmt.Errorf("failed to list enrollments for course %d: %w", rule.CourseID, err)
	}

	quizzes, err := s.repo.Quiz().ListPublishedByCourse(ctx, rule.CourseID)
	if err != nil {
		return snapshot, fmt.Errorf("failed to list quizzes for course %d: %w", rule.CourseID, err)
	}
	quizIDs := make([]uint, 0, len(quizzes))
	for _, q := range quizzes {
		quizIDs = append(quizIDs, q.ID)
		snapshot.Quizzes = append(snapshot.Quizzes, reminders.Quiz{
			ID:          q.ID,
			Title:       q.Title,
			DueDate:     q.DueDate,
			PublishedAt: q.PublishedAt,
		})
	}

	progress, err := s.repo.Attempt().ListProgress(ctx, quizIDs)
	if err != nil {
		return snapshot, fmt.Errorf("failed to load quiz progress: %w", err)
	}
	lastAttempt := make(map[string]time.Time)
	for _, p := range progress {
		if snapshot.Attempted[p.UserID] == nil {
			snapshot.Attempted[p.UserID] = make(map[uint]bool)
			snapshot.Completed[p.UserID] = make(map[uint]bool)
		}
		snapshot.Attempted[p.UserID][p.QuizID] = p.Attempts > 0
		snapshot.Completed[p.UserID][p.QuizID] = p.Completed
		if p.LastStartedAt.After(lastAttempt[p.UserID]) {
			lastAttempt[p.UserID] = p.LastStartedAt
		}
	}

	for _, e := range enrollments {
		learner := reminders.Learner{UserID: e.UserID, LastActivity: e.LastActivityAt}
		if e.User != nil {
			learner.Email = e.User.Email
			learner.Name = e.User.FullName
		}
		if t, ok := lastAttempt[e.UserID]; ok && (learner.LastActivity == nil || t.After(*learner.LastActivity)) {
			learner.LastActivity = &t
		}
		snapshot.Learners = append(snapshot.Learners, learner)
	}

	snapshot.Preferences, err = s.repo.Reminder().PreferenceMap(ctx, rule.CourseID, rule.Type)
	if err != nil {
		return snapshot, fmt.Errorf("failed to load reminder preferences: %w", err)
	}
	return snapshot, nil
}

// ===== RULES =====

func (s *reminderService) ListRules(ctx context.Context, courseID *uint) ([]*models.ReminderRule, error) {
	rules, err := s.repo.Reminder().ListRules(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder rules: %w", err)
	}
	return rules, nil
}

func (s *reminderService) UpsertRule(ctx context.Context, req *ReminderRuleRequest) (*models.ReminderRule, error) {
	s.logger.Info("Saving reminder rule", "course_id", req.CourseID, "reminder_type", req.Type)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	rule := &models.ReminderRule{
		CourseID:        req.CourseID,
		CourseTitle:     req.CourseTitle,
		Type:            req.Type,
		Enabled:         *req.Enabled,
		MessageTemplate: req.MessageTemplate,
		DeliveryMethod:  req.DeliveryMethod,
	}
	if rule.DeliveryMethod == "" {
		rule.DeliveryMethod = models.DeliveryEmail
	}
	if err := rule.SetCondition(req.TriggerCondition); err != nil {
		return nil, fmt.Errorf("failed to encode trigger condition: %w", err)
	}

	if err := s.repo.Reminder().UpsertRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save reminder rule: %w", err)
	}
	return rule, nil
}

// ===== PREFERENCES =====

func (s *reminderService) GetPreferences(ctx context.Context, userID string) ([]*models.ReminderPreference, error) {
	prefs, err := s.repo.Reminder().GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder preferences: %w", err)
	}
	return prefs, nil
}

func (s *reminderService) UpdatePreferences(ctx context.Context, userID string, req *UpdatePreferencesRequest) ([]*models.ReminderPreference, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	for _, u := range req.Preferences {
		pref := &models.ReminderPreference{
			UserID:   userID,
			CourseID: u.CourseID,
			Type:     u.Type,
			Enabled:  *u.Enabled,
		}
		if err := s.repo.Reminder().UpsertPreference(ctx, pref); err != nil {
			return nil, fmt.Errorf("failed to save reminder preference: %w", err)
		}
	}

	s.logger.Info("Reminder preferences updated", "user_id", userID, "count", len(req.Preferences))
	return s.GetPreferences(ctx, userID)
}
