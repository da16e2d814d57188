package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt starts a new attempt or resumes the caller's attempt in progress
// @Summary Start attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 201 {object} services.AttemptResponse
// @Success 200 {object} services.AttemptResponse "resumed"
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "quiz_id", quizID)

	resp, err := h.attemptService.Start(c.Request.Context(), quizID, requester.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// GetAttempt returns an attempt with its answers
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting attempt", "attempt_id", id)

	resp, err := h.attemptService.Get(c.Request.Context(), id, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SaveAnswer records one answer change on an attempt in progress
// @Summary Save answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SaveAnswerRequest true "Answer change"
// @Success 200 {object} services.SaveAnswerResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answers [put]
func (h *AttemptHandler) SaveAnswer(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	var req services.SaveAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Saving answer", "attempt_id", id, "question_id", req.QuestionID)

	resp, err := h.attemptService.SaveAnswer(c.Request.Context(), id, requester.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAttempt finalizes and scores an attempt
// @Summary Submit attempt
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResultResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", id)

	resp, err := h.attemptService.Submit(c.Request.Context(), id, requester.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTimeRemaining reports the countdown of a timed attempt
// @Summary Time remaining
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.TimeRemainingResponse
// @Router /attempts/{id}/time [get]
func (h *AttemptHandler) GetTimeRemaining(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	resp, err := h.attemptService.Remaining(c.Request.Context(), id, requester.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListMyAttempts lists the caller's attempts
// @Summary List my attempts
// @Tags attempts
// @Produce json
// @Param status query string false "in_progress or completed"
// @Param quiz_id query int false "Quiz ID"
// @Success 200 {object} services.AttemptListResponse
// @Router /users/me/attempts [get]
func (h *AttemptHandler) ListMyAttempts(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Listing attempts")

	limit, offset := h.pagination(c)
	filters := repositories.AttemptFilters{
		Status:    models.AttemptStatus(c.Query("status")),
		QuizID:    h.parseUintQueryPtr(c, "quiz_id"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	resp, err := h.attemptService.ListByUser(c.Request.Context(), requester.UserID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
