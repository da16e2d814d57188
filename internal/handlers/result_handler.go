package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultHandler struct {
	BaseHandler
	resultService services.ResultService
}

func NewResultHandler(resultService services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler:   NewBaseHandler(logger),
		resultService: resultService,
	}
}

// GetQuizResults returns aggregate statistics and completed attempts for a quiz
// @Summary Quiz results
// @Tags results
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} models.QuizResults
// @Failure 403 {object} ErrorResponse
// @Router /quizzes/{id}/results [get]
func (h *ResultHandler) GetQuizResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting quiz results", "quiz_id", id)

	results, err := h.resultService.QuizResults(c.Request.Context(), id, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ExportQuizResults downloads the quiz results as a spreadsheet
// @Summary Export quiz results
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Quiz ID"
// @Success 200 {file} file
// @Router /quizzes/{id}/results/export [get]
func (h *ResultHandler) ExportQuizResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting quiz results", "quiz_id", id)

	data, filename, err := h.resultService.ExportQuizResults(c.Request.Context(), id, requester)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetMyResults returns the caller's completed attempts across quizzes
// @Summary My results
// @Tags results
// @Produce json
// @Success 200 {object} services.UserResultsResponse
// @Router /users/me/results [get]
func (h *ResultHandler) GetMyResults(c *gin.Context) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting user results")

	resp, err := h.resultService.UserResults(c.Request.Context(), requester.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
