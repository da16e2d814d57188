package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type ReminderHandler struct {
	BaseHandler
	reminderService services.ReminderService
}

func NewReminderHandler(reminderService services.ReminderService, logger utils.Logger) *ReminderHandler {
	return &ReminderHandler{
		BaseHandler:     NewBaseHandler(logger),
		reminderService: reminderService,
	}
}

// RunReminders sends every due reminder, optionally restricted by type, course or user
// @Summary Run reminders
// @Tags reminders
// @Accept json
// @Produce json
// @Param request body services.RunRemindersRequest false "Filters"
// @Success 200 {object} services.RunRemindersResponse
// @Router /admin/reminders/run [post]
func (h *ReminderHandler) RunReminders(c *gin.Context) {
	var req services.RunRemindersRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Running reminders", "reminder_type", req.Type, "test_mode", req.TestMode)

	resp, err := h.reminderService.Run(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Reminders processed", resp,
		"total", resp.Total,
		"failed", len(resp.Failed),
		"skipped", resp.Skipped)
}

// PreviewReminders lists who would receive a reminder of the given type
// @Summary Preview reminders
// @Tags reminders
// @Produce json
// @Param type query string false "Reminder type"
// @Success 200 {object} services.ReminderPreview
// @Router /admin/reminders/preview [get]
func (h *ReminderHandler) PreviewReminders(c *gin.Context) {
	reminderType := models.ReminderType(c.Query("type"))

	h.LogRequest(c, "Previewing reminders", "reminder_type", reminderType)

	preview, err := h.reminderService.Preview(c.Request.Context(), reminderType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ListRules lists reminder rules, optionally for one course
// @Summary List reminder rules
// @Tags reminders
// @Produce json
// @Param course_id query int false "Course ID"
// @Success 200 {array} models.ReminderRule
// @Router /admin/reminder-rules [get]
func (h *ReminderHandler) ListRules(c *gin.Context) {
	rules, err := h.reminderService.ListRules(c.Request.Context(), h.parseUintQueryPtr(c, "course_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

// UpsertRule creates or replaces the rule for a (course, type) pair
// @Summary Save reminder rule
// @Tags reminders
// @Accept json
// @Produce json
// @Param rule body services.ReminderRuleRequest true "Rule"
// @Success 200 {object} models.ReminderRule
// @Router /admin/reminder-rules [put]
func (h *ReminderHandler) UpsertRule(c *gin.Context) {
	var req services.ReminderRuleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Saving reminder rule", "course_id", req.CourseID, "reminder_type", req.Type)

	rule, err := h.reminderService.UpsertRule(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// GetMyPreferences returns the caller's reminder opt-ins
// @Summary Get reminder preferences
// @Tags reminders
// @Produce json
// @Success 200 {array} models.ReminderPreference
// @Router /users/me/reminder-preferences [get]
func (h *ReminderHandler) GetMyPreferences(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	prefs, err := h.reminderService.GetPreferences(c.Request.Context(), requester.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// UpdateMyPreferences opts the caller in or out of reminders per course and type
// @Summary Update reminder preferences
// @Tags reminders
// @Accept json
// @Produce json
// @Param preferences body services.UpdatePreferencesRequest true "Preferences"
// @Success 200 {array} models.ReminderPreference
// @Router /users/me/reminder-preferences [put]
func (h *ReminderHandler) UpdateMyPreferences(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var req services.UpdatePreferencesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating reminder preferences", "count", len(req.Preferences))

	prefs, err := h.reminderService.UpdatePreferences(c.Request.Context(), requester.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, prefs)
}
