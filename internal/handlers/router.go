package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/middleware"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type HandlerManager struct {
	quizHandler     *QuizHandler
	attemptHandler  *AttemptHandler
	resultHandler   *ResultHandler
	importHandler   *ImportHandler
	reminderHandler *ReminderHandler
	verifier        middleware.TokenVerifier
	logger          utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	verifier middleware.TokenVerifier,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:     NewQuizHandler(serviceManager.Quiz(), logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), logger),
		resultHandler:   NewResultHandler(serviceManager.Result(), logger),
		importHandler:   NewImportHandler(serviceManager.Import(), logger),
		reminderHandler: NewReminderHandler(serviceManager.Reminder(), logger),
		verifier:        verifier,
		logger:          logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(hm.verifier, hm.logger))
	{
		authors := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)

		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", authors, hm.quizHandler.CreateQuiz)
			quizzes.GET("", hm.quizHandler.ListQuizzes)
			quizzes.POST("/import", authors, hm.importHandler.ImportQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.PUT("/:id", authors, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", authors, hm.quizHandler.DeleteQuiz)
			quizzes.PUT("/:id/settings", authors, hm.quizHandler.UpdateSettings)
			quizzes.POST("/:id/publish", authors, hm.quizHandler.PublishQuiz)
			quizzes.POST("/:id/import", authors, hm.importHandler.ImportIntoQuiz)

			// Results
			quizzes.GET("/:id/results", authors, hm.resultHandler.GetQuizResults)
			quizzes.GET("/:id/results/export", authors, hm.resultHandler.ExportQuizResults)

			// Attempts
			quizzes.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/time", hm.attemptHandler.GetTimeRemaining)
		}

		me := v1.Group("/users/me")
		{
			me.GET("/attempts", hm.attemptHandler.ListMyAttempts)
			me.GET("/results", hm.resultHandler.GetMyResults)
			me.GET("/reminder-preferences", hm.reminderHandler.GetMyPreferences)
			me.PUT("/reminder-preferences", hm.reminderHandler.UpdateMyPreferences)
		}

		admin := v1.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/reminders/run", hm.reminderHandler.RunReminders)
			admin.GET("/reminders/preview", hm.reminderHandler.PreviewReminders)
			admin.GET("/reminder-rules", hm.reminderHandler.ListRules)
			admin.PUT("/reminder-rules", hm.reminderHandler.UpsertRule)
		}
	}
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "quiz-service",
	})
}
