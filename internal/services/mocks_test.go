package services

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/SAP-F-2025/quiz-service/internal/email"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if q := args.Get(0); q != nil {
		return q.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuizRepository) GetWithQuestions(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if q := args.Get(0); q != nil {
		return q.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockQuizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuizRepository) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Quiz), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) ListPublishedByCourse(ctx context.Context, courseID uint) ([]*models.Quiz, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).([]*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) ListPublishedSince(ctx context.Context, courseID uint, since time.Time) ([]*models.Quiz, error) {
	args := m.Called(ctx, courseID, since)
	return args.Get(0).([]*models.Quiz), args.Error(1)
}

func (m *MockQuizRepository) UpdateSettings(ctx context.Context, id uint, settings models.QuizSettings) error {
	args := m.Called(ctx, id, settings)
	return args.Error(0)
}

func (m *MockQuizRepository) HasAttempts(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) ListByQuiz(ctx context.Context, quizID uint) ([]models.Question, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockQuestionRepository) ReplaceForQuiz(ctx context.Context, quizID uint, questions []models.Question) error {
	args := m.Called(ctx, quizID, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) AppendToQuiz(ctx context.Context, quizID uint, questions []models.Question) error {
	args := m.Called(ctx, quizID, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetStats(ctx context.Context, quizID uint) ([]models.QuestionStats, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).([]models.QuestionStats), args.Error(1)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) CreateNext(ctx context.Context, attempt *models.Attempt, maxAttempts int) error {
	args := m.Called(ctx, attempt, maxAttempts)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uint) (*models.Attempt, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Attempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) GetWithAnswers(ctx context.Context, id uint) (*models.Attempt, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Attempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetActiveAttempt(ctx context.Context, userID string, quizID uint) (*models.Attempt, error) {
	args := m.Called(ctx, userID, quizID)
	if a := args.Get(0); a != nil {
		return a.(*models.Attempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Attempt, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) Complete(ctx context.Context, attempt *models.Attempt, answers []models.AttemptAnswer) error {
	args := m.Called(ctx, attempt, answers)
	return args.Error(0)
}

func (m *MockAttemptRepository) CountByUserQuiz(ctx context.Context, userID string, quizID uint) (int64, error) {
	args := m.Called(ctx, userID, quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAttemptRepository) HasAttempted(ctx context.Context, userID string, quizID uint) (bool, error) {
	args := m.Called(ctx, userID, quizID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) Stats(ctx context.Context, quizID uint) (*models.QuizStats, error) {
	args := m.Called(ctx, quizID)
	if s := args.Get(0); s != nil {
		return s.(*models.QuizStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) LastActivity(ctx context.Context, userID string, courseID uint) (*time.Time, error) {
	args := m.Called(ctx, userID, courseID)
	if t := args.Get(0); t != nil {
		return t.(*time.Time), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAttemptRepository) ListProgress(ctx context.Context, quizIDs []uint) ([]models.UserQuizProgress, error) {
	args := m.Called(ctx, quizIDs)
	return args.Get(0).([]models.UserQuizProgress), args.Error(1)
}

// MockReminderRepository is a mock implementation of ReminderRepository
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) ListActiveRules(ctx context.Context) ([]*models.ReminderRule, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.ReminderRule), args.Error(1)
}

func (m *MockReminderRepository) ListRules(ctx context.Context, courseID *uint) ([]*models.ReminderRule, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).([]*models.ReminderRule), args.Error(1)
}

func (m *MockReminderRepository) UpsertRule(ctx context.Context, rule *models.ReminderRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockReminderRepository) ListEnrollments(ctx context.Context, courseID uint, status *models.EnrollmentStatus) ([]*models.CourseEnrollment, error) {
	args := m.Called(ctx, courseID, status)
	return args.Get(0).([]*models.CourseEnrollment), args.Error(1)
}

func (m *MockReminderRepository) GetPreferences(ctx context.Context, userID string) ([]*models.ReminderPreference, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.ReminderPreference), args.Error(1)
}

func (m *MockReminderRepository) PreferenceMap(ctx context.Context, courseID uint, reminderType models.ReminderType) (map[string]bool, error) {
	args := m.Called(ctx, courseID, reminderType)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockReminderRepository) UpsertPreference(ctx context.Context, pref *models.ReminderPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

func (m *MockReminderRepository) RecordLog(ctx context.Context, log *models.ReminderLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockReminderRepository) SentSince(ctx context.Context, userID string, courseID uint, quizID *uint, reminderType models.ReminderType, since time.Time) (bool, error) {
	args := m.Called(ctx, userID, courseID, quizID, reminderType, since)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockRepository is a mock implementation of the main Repository interface
type MockRepository struct {
	quizRepo     *MockQuizRepository
	questionRepo *MockQuestionRepository
	attemptRepo  *MockAttemptRepository
	reminderRepo *MockReminderRepository
	userRepo     *MockUserRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		quizRepo:     &MockQuizRepository{},
		questionRepo: &MockQuestionRepository{},
		attemptRepo:  &MockAttemptRepository{},
		reminderRepo: &MockReminderRepository{},
		userRepo:     &MockUserRepository{},
	}
}

func (m *MockRepository) Quiz() repositories.QuizRepository         { return m.quizRepo }
func (m *MockRepository) Question() repositories.QuestionRepository { return m.questionRepo }
func (m *MockRepository) Attempt() repositories.AttemptRepository   { return m.attemptRepo }
func (m *MockRepository) Reminder() repositories.ReminderRepository { return m.reminderRepo }
func (m *MockRepository) User() repositories.UserRepository         { return m.userRepo }

func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.quizRepo.AssertExpectations(t)
	m.questionRepo.AssertExpectations(t)
	m.attemptRepo.AssertExpectations(t)
	m.reminderRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
}

// MockStorage is a mock implementation of storage.Provider
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) GetURL(key string) string {
	return "https://cdn.example.com/" + key
}

// MockSender is a mock implementation of email.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// ===== FIXTURES =====

func intPtr(v int) *int { return &v }

func uintPtr(v uint) *uint { return &v }

func gradedSubmission() scoring.Submission {
	return scoring.Submission{PercentageScore: 50, EarnedPoints: 5, TotalPoints: 10, IsPassed: false}
}

func choiceQuestion(id uint, number, points int, typ models.QuestionType, correct ...string) models.Question {
	q := models.Question{ID: id, QuizID: 1, Number: number, Type: typ, Text: "question", Points: points}
	isCorrect := make(map[string]bool)
	for _, c := range correct {
		isCorrect[c] = true
	}
	opts := []models.QuestionOption{
		{Label: "A", Text: "alpha", IsCorrect: isCorrect["A"]},
		{Label: "B", Text: "beta", IsCorrect: isCorrect["B"]},
		{Label: "C", Text: "gamma", IsCorrect: isCorrect["C"]},
	}
	_ = q.SetOptions(opts)
	return q
}

// publishedQuiz has a 10 point single choice (A) and a 10 point multiple choice (A, C)
func publishedQuiz() *models.Quiz {
	return &models.Quiz{
		ID:        1,
		Title:     "Go basics",
		Status:    models.QuizStatusPublished,
		Settings:  models.DefaultQuizSettings(),
		CreatedBy: "teacher-1",
		Questions: []models.Question{
			choiceQuestion(101, 1, 10, models.QuestionSingle, "A"),
			choiceQuestion(102, 2, 10, models.QuestionMultiple, "A", "C"),
		},
	}
}

var (
	teacher = Requester{UserID: "teacher-1", Role: models.RoleTeacher}
	admin   = Requester{UserID: "admin-1", Role: models.RoleAdmin}
	learner = Requester{UserID: "student-1", Role: models.RoleStudent}
)
