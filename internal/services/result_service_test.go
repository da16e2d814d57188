package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func completedAttempt(id uint, userID string, score int, passed bool, trigger models.SubmitTrigger) *models.Attempt {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a := &models.Attempt{ID: id, QuizID: 1, UserID: userID, AttemptNumber: 1, StartedAt: started}
	a.ApplySubmission(gradedSubmission(), trigger, started.Add(10*time.Minute))
	a.PercentageScore = score
	a.IsPassed = passed
	return a
}

func newResultServiceForTest() (ResultService, *MockRepository) {
	repo := newMockRepository()
	return NewResultService(repo, cache.NewMemoryCache(), utils.NewNopLogger(), 0), repo
}

func expectResults(repo *MockRepository) {
	repo.quizRepo.On("GetWithQuestions", mock.Anything, uint(1)).Return(publishedQuiz(), nil)
	repo.attemptRepo.On("Stats", mock.Anything, uint(1)).Return(&models.QuizStats{
		QuizID:         1,
		TotalAttempts:  3,
		PassedAttempts: 2,
		AverageScore:   66.66666,
		PassRate:       66.66666,
		HighestScore:   100,
		LowestScore:    20,
		TimeoutCount:   1,
	}, nil)
	repo.questionRepo.On("GetStats", mock.Anything, uint(1)).Return([]models.QuestionStats{
		{QuestionID: 101, Number: 1, Type: models.QuestionSingle, TotalResponses: 3, CorrectResponses: 2, CorrectRate: 66.666},
		{QuestionID: 102, Number: 2, Type: models.QuestionMultiple, TotalResponses: 3, CorrectResponses: 1, CorrectRate: 33.35},
	}, nil)
	repo.attemptRepo.On("List", mock.Anything, mock.AnythingOfType("repositories.AttemptFilters")).Return([]*models.Attempt{
		completedAttempt(1, "student-1", 100, true, models.SubmitManual),
		completedAttempt(2, "student-2", 80, true, models.SubmitManual),
		completedAttempt(3, "student-3", 20, false, models.SubmitTimeout),
	}, int64(3), nil)
}

func TestResultService_QuizResults(t *testing.T) {
	ctx := context.Background()

	t.Run("rounds rates to one decimal", func(t *testing.T) {
		svc, repo := newResultServiceForTest()
		expectResults(repo)

		results, err := svc.QuizResults(ctx, 1, teacher)
		require.NoError(t, err)
		assert.Equal(t, 66.7, results.Stats.AverageScore)
		assert.Equal(t, 66.7, results.Stats.PassRate)
		assert.Equal(t, 66.7, results.Questions[0].CorrectRate)
		assert.Equal(t, 33.4, results.Questions[1].CorrectRate)
		assert.Len(t, results.Attempts, 3)
		assert.Nil(t, results.Quiz.Questions)
	})

	t.Run("cached until invalidated", func(t *testing.T) {
		svc, repo := newResultServiceForTest()
		expectResults(repo)

		_, err := svc.QuizResults(ctx, 1, teacher)
		require.NoError(t, err)
		_, err = svc.QuizResults(ctx, 1, teacher)
		require.NoError(t, err)
		repo.attemptRepo.AssertNumberOfCalls(t, "Stats", 1)
	})

	t.Run("learners and other teachers are refused", func(t *testing.T) {
		for _, requester := range []Requester{learner, {UserID: "teacher-2", Role: models.RoleTeacher}} {
			svc, repo := newResultServiceForTest()
			repo.quizRepo.On("GetWithQuestions", mock.Anything, uint(1)).Return(publishedQuiz(), nil)

			_, err := svc.QuizResults(ctx, 1, requester)
			assert.True(t, IsUnauthorized(err), requester.UserID)
			repo.attemptRepo.AssertNotCalled(t, "Stats", mock.Anything, mock.Anything)
		}
	})
}

func TestResultService_UserResults(t *testing.T) {
	ctx := context.Background()
	svc, repo := newResultServiceForTest()

	hidden := publishedQuiz()
	hidden.ID = 2
	hidden.Settings.ShowResults = false
	repo.quizRepo.On("GetWithQuestions", mock.Anything, uint(1)).Return(publishedQuiz(), nil)
	repo.quizRepo.On("GetWithQuestions", mock.Anything, uint(2)).Return(hidden, nil)

	onHidden := completedAttempt(5, "student-1", 90, true, models.SubmitManual)
	onHidden.QuizID = 2
	var filters repositories.AttemptFilters
	repo.attemptRepo.On("List", mock.Anything, mock.AnythingOfType("repositories.AttemptFilters")).
		Run(func(args mock.Arguments) { filters = args.Get(1).(repositories.AttemptFilters) }).
		Return([]*models.Attempt{
			completedAttempt(3, "student-1", 45, false, models.SubmitManual),
			completedAttempt(4, "student-1", 80, true, models.SubmitTimeout),
			onHidden,
		}, int64(3), nil)

	resp, err := svc.UserResults(ctx, "student-1")
	require.NoError(t, err)
	require.NotNil(t, filters.UserID)
	assert.Equal(t, "student-1", *filters.UserID)
	assert.Equal(t, models.AttemptCompleted, filters.Status)

	assert.Equal(t, 3, resp.TotalAttempts)
	assert.Equal(t, 1, resp.PassedAttempts)
	assert.Equal(t, 62.5, resp.AverageScore)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "Go basics", resp.Results[0].QuizTitle)
	assert.Nil(t, resp.Results[2].Result)
}

func TestResultService_ExportQuizResults(t *testing.T) {
	svc, repo := newResultServiceForTest()
	expectResults(repo)

	data, name, err := svc.ExportQuizResults(context.Background(), 1, admin)
	require.NoError(t, err)
	assert.Equal(t, "quiz-1-results.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Attempt ID", rows[0][0])
	assert.Equal(t, "student-3", rows[3][1])
	assert.Equal(t, "timeout", rows[3][5])

	avg, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "66.7", avg)
}

func TestRoundTenth(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{66.66, 66.7},
		{66.64, 66.6},
		{12.25, 12.3},
		{100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundTenth(tt.in), "%v", tt.in)
	}
}
