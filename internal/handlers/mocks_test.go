package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/services"
)

type MockQuizService struct{ mock.Mock }

func (m *MockQuizService) Create(ctx context.Context, req *services.CreateQuizRequest, creatorID string) (*models.Quiz, error) {
	args := m.Called(ctx, req, creatorID)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockQuizService) GetByID(ctx context.Context, id uint, requester services.Requester) (*models.Quiz, error) {
	args := m.Called(ctx, id, requester)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockQuizService) List(ctx context.Context, filters repositories.QuizFilters, requester services.Requester) (*services.QuizListResponse, error) {
	args := m.Called(ctx, filters, requester)
	resp, _ := args.Get(0).(*services.QuizListResponse)
	return resp, args.Error(1)
}

func (m *MockQuizService) Update(ctx context.Context, id uint, req *services.UpdateQuizRequest, requester services.Requester) (*models.Quiz, error) {
	args := m.Called(ctx, id, req, requester)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockQuizService) UpdateSettings(ctx context.Context, id uint, settings *models.QuizSettings, requester services.Requester) (*models.Quiz, error) {
	args := m.Called(ctx, id, settings, requester)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockQuizService) Publish(ctx context.Context, id uint, requester services.Requester) (*models.Quiz, error) {
	args := m.Called(ctx, id, requester)
	quiz, _ := args.Get(0).(*models.Quiz)
	return quiz, args.Error(1)
}

func (m *MockQuizService) Delete(ctx context.Context, id uint, requester services.Requester) error {
	return m.Called(ctx, id, requester).Error(0)
}

type MockAttemptService struct{ mock.Mock }

func (m *MockAttemptService) Start(ctx context.Context, quizID uint, userID string) (*services.AttemptResponse, error) {
	args := m.Called(ctx, quizID, userID)
	resp, _ := args.Get(0).(*services.AttemptResponse)
	return resp, args.Error(1)
}

func (m *MockAttemptService) SaveAnswer(ctx context.Context, attemptID uint, userID string, req *services.SaveAnswerRequest) (*services.SaveAnswerResponse, error) {
	args := m.Called(ctx, attemptID, userID, req)
	resp, _ := args.Get(0).(*services.SaveAnswerResponse)
	return resp, args.Error(1)
}

func (m *MockAttemptService) Submit(ctx context.Context, attemptID uint, userID string) (*services.AttemptResultResponse, error) {
	args := m.Called(ctx, attemptID, userID)
	resp, _ := args.Get(0).(*services.AttemptResultResponse)
	return resp, args.Error(1)
}

func (m *MockAttemptService) Get(ctx context.Context, attemptID uint, requester services.Requester) (*services.AttemptDetailResponse, error) {
	args := m.Called(ctx, attemptID, requester)
	resp, _ := args.Get(0).(*services.AttemptDetailResponse)
	return resp, args.Error(1)
}

func (m *MockAttemptService) Remaining(ctx context.Context, attemptID uint, userID string) (*services.TimeRemainingResponse, error) {
	args := m.Called(ctx, attemptID, userID)
	resp, _ := args.Get(0).(*services.TimeRemainingResponse)
	return resp, args.Error(1)
}

func (m *MockAttemptService) ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) (*services.AttemptListResponse, error) {
	args := m.Called(ctx, userID, filters)
	resp, _ := args.Get(0).(*services.AttemptListResponse)
	return resp, args.Error(1)
}

func (m *MockAttemptService) ExpireStale(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockAttemptService) Shutdown() { m.Called() }

type MockResultService struct{ mock.Mock }

func (m *MockResultService) QuizResults(ctx context.Context, quizID uint, requester services.Requester) (*models.QuizResults, error) {
	args := m.Called(ctx, quizID, requester)
	resp, _ := args.Get(0).(*models.QuizResults)
	return resp, args.Error(1)
}

func (m *MockResultService) UserResults(ctx context.Context, userID string) (*services.UserResultsResponse, error) {
	args := m.Called(ctx, userID)
	resp, _ := args.Get(0).(*services.UserResultsResponse)
	return resp, args.Error(1)
}

func (m *MockResultService) ExportQuizResults(ctx context.Context, quizID uint, requester services.Requester) ([]byte, string, error) {
	args := m.Called(ctx, quizID, requester)
	data, _ := args.Get(0).([]byte)
	return data, args.String(1), args.Error(2)
}

type MockImportService struct{ mock.Mock }

func (m *MockImportService) Import(ctx context.Context, req *services.ImportRequest, file io.Reader, filename string, requester services.Requester) (*models.ImportSummary, error) {
	args := m.Called(ctx, req, file, filename, requester)
	summary, _ := args.Get(0).(*models.ImportSummary)
	return summary, args.Error(1)
}

type MockReminderService struct{ mock.Mock }

func (m *MockReminderService) Run(ctx context.Context, req *services.RunRemindersRequest) (*services.RunRemindersResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*services.RunRemindersResponse)
	return resp, args.Error(1)
}

func (m *MockReminderService) Preview(ctx context.Context, reminderType models.ReminderType) (*services.ReminderPreview, error) {
	args := m.Called(ctx, reminderType)
	resp, _ := args.Get(0).(*services.ReminderPreview)
	return resp, args.Error(1)
}

func (m *MockReminderService) ListRules(ctx context.Context, courseID *uint) ([]*models.ReminderRule, error) {
	args := m.Called(ctx, courseID)
	rules, _ := args.Get(0).([]*models.ReminderRule)
	return rules, args.Error(1)
}

func (m *MockReminderService) UpsertRule(ctx context.Context, req *services.ReminderRuleRequest) (*models.ReminderRule, error) {
	args := m.Called(ctx, req)
	rule, _ := args.Get(0).(*models.ReminderRule)
	return rule, args.Error(1)
}

func (m *MockReminderService) GetPreferences(ctx context.Context, userID string) ([]*models.ReminderPreference, error) {
	args := m.Called(ctx, userID)
	prefs, _ := args.Get(0).([]*models.ReminderPreference)
	return prefs, args.Error(1)
}

func (m *MockReminderService) UpdatePreferences(ctx context.Context, userID string, req *services.UpdatePreferencesRequest) ([]*models.ReminderPreference, error) {
	args := m.Called(ctx, userID, req)
	prefs, _ := args.Get(0).([]*models.ReminderPreference)
	return prefs, args.Error(1)
}

type mockServiceManager struct {
	quiz     *MockQuizService
	attempt  *MockAttemptService
	result   *MockResultService
	imports  *MockImportService
	reminder *MockReminderService
}

func newMockServiceManager() *mockServiceManager {
	return &mockServiceManager{
		quiz:     new(MockQuizService),
		attempt:  new(MockAttemptService),
		result:   new(MockResultService),
		imports:  new(MockImportService),
		reminder: new(MockReminderService),
	}
}

func (m *mockServiceManager) Quiz() services.QuizService         { return m.quiz }
func (m *mockServiceManager) Attempt() services.AttemptService   { return m.attempt }
func (m *mockServiceManager) Result() services.ResultService     { return m.result }
func (m *mockServiceManager) Import() services.ImportService     { return m.imports }
func (m *mockServiceManager) Reminder() services.ReminderService { return m.reminder }
