package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/scoring"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// ResultService reports on completed attempts
type ResultService interface {
	QuizResults(ctx context.Context, quizID uint, requester Requester) (*models.QuizResults, error)
	UserResults(ctx context.Context, userID string) (*UserResultsResponse, error)
	ExportQuizResults(ctx context.Context, quizID uint, requester Requester) ([]byte, string, error)
}

type UserResult struct {
	AttemptID     uint                  `json:"attempt_id"`
	QuizID        uint                  `json:"quiz_id"`
	QuizTitle     string                `json:"quiz_title"`
	AttemptNumber int                   `json:"attempt_number"`
	CompletedAt   *time.Time            `json:"completed_at"`
	Trigger       *models.SubmitTrigger `json:"submit_trigger"`
	TimeSpent     int                   `json:"time_spent"`
	Result        *scoring.Submission   `json:"result,omitempty"`
}

type UserResultsResponse struct {
	UserID         string       `json:"user_id"`
	TotalAttempts  int          `json:"total_attempts"`
	PassedAttempts int          `json:"passed_attempts"`
	AverageScore   float64      `json:"average_score"`
	Results        []UserResult `json:"results"`
}

const (
	resultsCacheTTL   = time.Minute
	maxReportAttempts = 1000
)

type resultService struct {
	repo    repositories.Repository
	quizzes *quizLoader
	cache   cache.CacheService
	logger  utils.Logger
	now     func() time.Time
}

func NewResultService(repo repositories.Repository, cacheService cache.CacheService, logger utils.Logger, quizTTL time.Duration) ResultService {
	return &resultService{
		repo:    repo,
		quizzes: newQuizLoader(repo.Quiz(), cacheService, quizTTL, logger),
		cache:   cacheService,
		logger:  logger,
		now:     time.Now,
	}
}

func quizResultsKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d:results", quizID)
}

func (s *resultService) QuizResults(ctx context.Context, quizID uint, requester Requester) (*models.QuizResults, error) {
	quiz, err := s.authorizedQuiz(ctx, quizID, requester, "view_results")
	if err != nil {
		return nil, err
	}

	var cached models.QuizResults
	err = s.cache.Get(ctx, quizResultsKey(quizID), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Results cache read failed", "quiz_id", quizID, "error", err)
	}

	results, err := s.buildResults(ctx, quiz)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, quizResultsKey(quizID), results, resultsCacheTTL); err != nil {
		s.logger.Warn("Results cache write failed", "quiz_id", quizID, "error", err)
	}
	return results, nil
}

func (s *resultService) UserResults(ctx context.Context, userID string) (*UserResultsResponse, error) {
	attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{
		Status:    models.AttemptCompleted,
		UserID:    &userID,
		Limit:     maxReportAttempts,
		SortBy:    "completed_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	resp := &UserResultsResponse{UserID: userID, Results: make([]UserResult, 0, len(attempts))}
	scored := 0
	scoreSum := 0
	for _, a := range attempts {
		result := UserResult{
			AttemptID:     a.ID,
			QuizID:        a.QuizID,
			AttemptNumber: a.AttemptNumber,
			CompletedAt:   a.CompletedAt,
			Trigger:       a.SubmitTrigger,
			TimeSpent:     a.TimeSpent,
		}
		quiz, err := s.quizzes.load(ctx, a.QuizID)
		if err != nil && !errors.Is(err, ErrQuizNotFound) {
			return nil, err
		}
		if quiz != nil {
			result.QuizTitle = quiz.Title
		}
		if quiz == nil || quiz.Settings.ShowResults {
			result.Result = submissionOf(a)
			scored++
			scoreSum += a.PercentageScore
			if a.IsPassed {
				resp.PassedAttempts++
			}
		}
		resp.Results = append(resp.Results, result)
	}

	resp.TotalAttempts = len(attempts)
	if scored > 0 {
		resp.AverageScore = roundTenth(float64(scoreSum) / float64(scored))
	}
	return resp, nil
}

// ExportQuizResults renders the quiz results as an xlsx workbook and returns
// it with a suggested file name.
func (s *resultService) ExportQuizResults(ctx context.Context, quizID uint, requester Requester) ([]byte, string, error) {
	quiz, err := s.authorizedQuiz(ctx, quizID, requester, "export_results")
	if err != nil {
		return nil, "", err
	}
	results, err := s.buildResults(ctx, quiz)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Results"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, "", fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []any{
		"Attempt ID", "User ID", "Attempt", "Started At", "Completed At", "Submitted By",
		"Percentage", "Earned Points", "Total Points", "Passed", "Time Spent (seconds)",
	}
	if err := writeRow(f, sheetName, 1, headers); err != nil {
		return nil, "", err
	}
	for i, a := range results.Attempts {
		completed, trigger := "", ""
		if a.CompletedAt != nil {
			completed = a.CompletedAt.Format(time.RFC3339)
		}
		if a.SubmitTrigger != nil {
			trigger = string(*a.SubmitTrigger)
		}
		row := []any{
			a.ID, a.UserID, a.AttemptNumber, a.StartedAt.Format(time.RFC3339), completed, trigger,
			a.PercentageScore, a.EarnedPoints, a.TotalPoints, a.IsPassed, a.TimeSpent,
		}
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return nil, "", err
		}
	}

	summary := "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return nil, "", fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	stats := results.Stats
	summaryRows := [][]any{
		{"Quiz", quiz.Title},
		{"Total Attempts", stats.TotalAttempts},
		{"Passed Attempts", stats.PassedAttempts},
		{"Average Score", stats.AverageScore},
		{"Pass Rate (%)", stats.PassRate},
		{"Highest Score", stats.HighestScore},
		{"Lowest Score", stats.LowestScore},
		{"Timeouts", stats.TimeoutCount},
		{"Generated At", results.Generated.Format(time.RFC3339)},
	}
	for i, row := range summaryRows {
		if err := writeRow(f, summary, i+1, row); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Quiz results exported", "quiz_id", quizID, "rows", len(results.Attempts))
	return buf.Bytes(), fmt.Sprintf("quiz-%d-results.xlsx", quizID), nil
}

// ===== HELPER METHODS =====

func (s *resultService) authorizedQuiz(ctx context.Context, quizID uint, requester Requester, action string) (*models.Quiz, error) {
	quiz, err := s.quizzes.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && !(requester.Role.CanAuthor() && quiz.CreatedBy == requester.UserID) {
		return nil, NewPermissionError(requester.UserID, quizID, "quiz", action, "not the quiz owner")
	}
	return quiz, nil
}

func (s *resultService) buildResults(ctx context.Context, quiz *models.Quiz) (*models.QuizResults, error) {
	stats, err := s.repo.Attempt().Stats(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute quiz stats: %w", err)
	}
	stats.AverageScore = roundTenth(stats.AverageScore)
	stats.PassRate = roundTenth(stats.PassRate)

	questionStats, err := s.repo.Question().GetStats(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute question stats: %w", err)
	}
	for i := range questionStats {
		questionStats[i].CorrectRate = roundTenth(questionStats[i].CorrectRate)
	}

	attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{
		Status:    models.AttemptCompleted,
		QuizID:    &quiz.ID,
		Limit:     maxReportAttempts,
		SortBy:    "completed_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	summary := *quiz
	summary.Questions = nil
	rows := make([]models.Attempt, len(attempts))
	for i, a := range attempts {
		rows[i] = *a
	}
	return &models.QuizResults{
		Quiz:      &summary,
		Stats:     *stats,
		Questions: questionStats,
		Attempts:  rows,
		Generated: s.now(),
	}, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// roundTenth rounds half away from zero to one decimal place
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
