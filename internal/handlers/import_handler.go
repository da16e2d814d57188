package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type ImportHandler struct {
	BaseHandler
	importService services.ImportService
}

func NewImportHandler(importService services.ImportService, logger utils.Logger) *ImportHandler {
	return &ImportHandler{
		BaseHandler:   NewBaseHandler(logger),
		importService: importService,
	}
}

// ImportIntoQuiz imports questions from an uploaded file into an existing quiz
// @Summary Import questions
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param file formData file true "xlsx, csv, yaml, json or zip bundle"
// @Param mode formData string false "replace or append"
// @Param preview formData bool false "Validate without saving"
// @Success 200 {object} models.ImportSummary
// @Failure 422 {object} models.ImportSummary
// @Router /quizzes/{id}/import [post]
func (h *ImportHandler) ImportIntoQuiz(c *gin.Context) {
	quizID := h.parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	h.handleImport(c, &quizID)
}

// ImportQuiz creates a new draft quiz from an uploaded file
// @Summary Import quiz
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx, csv, yaml, json or zip bundle"
// @Param title formData string false "Quiz title"
// @Success 201 {object} models.ImportSummary
// @Router /quizzes/import [post]
func (h *ImportHandler) ImportQuiz(c *gin.Context) {
	h.handleImport(c, nil)
}

func (h *ImportHandler) handleImport(c *gin.Context, quizID *uint) {
	requester, ok := h.requester(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxImportSize+(1<<20))

	var req services.ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	req.QuizID = quizID

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.RespondWithError(c, http.StatusRequestEntityTooLarge, "File too large", err)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "File is required",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > services.MaxImportSize {
		h.RespondWithError(c, http.StatusRequestEntityTooLarge, "File too large", services.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unable to read uploaded file", err)
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions",
		"quiz_id", quizID,
		"filename", fileHeader.Filename,
		"size", fileHeader.Size,
		"mode", req.Mode,
		"preview", req.Preview)

	summary, err := h.importService.Import(c.Request.Context(), &req, file, fileHeader.Filename, requester)
	if err != nil {
		if errors.Is(err, services.ErrImportFailed) && summary != nil {
			h.LogWarn(c, "Import rejected", "errors", summary.ErrorCount)
			c.JSON(http.StatusUnprocessableEntity, summary)
			return
		}
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if quizID == nil && !summary.Preview {
		status = http.StatusCreated
	}
	c.JSON(status, summary)
}
