package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// QuizService manages quiz definitions and their settings
type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error)
	GetByID(ctx context.Context, id uint, requester Requester) (*models.Quiz, error)
	List(ctx context.Context, filters repositories.QuizFilters, requester Requester) (*QuizListResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, requester Requester) (*models.Quiz, error)
	UpdateSettings(ctx context.Context, id uint, settings *models.QuizSettings, requester Requester) (*models.Quiz, error)
	Publish(ctx context.Context, id uint, requester Requester) (*models.Quiz, error)
	Delete(ctx context.Context, id uint, requester Requester) error
}

// Requester identifies the caller of a service operation
type Requester struct {
	UserID string
	Role   models.UserRole
}

func (r Requester) IsAdmin() bool { return r.Role == models.RoleAdmin }

// ===== REQUEST / RESPONSE TYPES =====

type QuestionRequest struct {
	Type            models.QuestionType     `json:"type" validate:"required,question_type"`
	Text            string                  `json:"text" validate:"required,max=5000"`
	ImageURL        *string                 `json:"image_url" validate:"omitempty,max=500"`
	Points          *int                    `json:"points" validate:"omitempty,min=0,max=1000"`
	Options         []models.QuestionOption `json:"options" validate:"omitempty,max=10,dive"`
	AcceptedAnswers []string                `json:"accepted_answers"`
	Explanation     *string                 `json:"explanation"`
}

type CreateQuizRequest struct {
	Title       string               `json:"title" validate:"required,min=1,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=2000"`
	CourseID    *uint                `json:"course_id"`
	DueDate     *time.Time           `json:"due_date"`
	Settings    *models.QuizSettings `json:"settings"`
	Questions   []QuestionRequest    `json:"questions" validate:"omitempty,dive"`
}

// UpdateQuizRequest applies only the fields that are set. Questions, when
// present, replace the whole question set.
type UpdateQuizRequest struct {
	Title       *string            `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	CourseID    *uint              `json:"course_id"`
	DueDate     *time.Time         `json:"due_date"`
	Status      *models.QuizStatus `json:"status" validate:"omitempty,quiz_status"`
	Questions   *[]QuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type QuizListResponse struct {
	Quizzes []*models.Quiz `json:"quizzes"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

const defaultQuestionPoints = 10

type quizService struct {
	repo      repositories.Repository
	quizzes   *quizLoader
	notifier  NotificationEventService
	logger    utils.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewQuizService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	notifier NotificationEventService,
	logger utils.Logger,
	validator *validator.Validator,
	cacheTTL time.Duration,
) QuizService {
	return &quizService{
		repo:      repo,
		quizzes:   newQuizLoader(repo.Quiz(), cacheService, cacheTTL, logger),
		notifier:  notifier,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// ===== CORE QUIZ OPERATIONS =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "title", req.Title, "creator_id", creatorID)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	settings := models.DefaultQuizSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	if errs := s.validator.Business().ValidateSettings(settings); len(errs) > 0 {
		return nil, errs
	}

	questions, err := s.buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.QuizStatusDraft,
		DueDate:     req.DueDate,
		Settings:    settings,
		CreatedBy:   creatorID,
		Questions:   questions,
	}
	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created successfully", "quiz_id", quiz.ID, "questions", len(questions))
	return s.quizzes.load(ctx, quiz.ID)
}

func (s *quizService) GetByID(ctx context.Context, id uint, requester Requester) (*models.Quiz, error) {
	quiz, err := s.quizzes.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.canManage(quiz, requester) {
		return quiz, nil
	}
	if quiz.Status != models.QuizStatusPublished {
		return nil, ErrQuizNotFound
	}
	return redactQuiz(quiz), nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters, requester Requester) (*QuizListResponse, error) {
	if !requester.Role.CanAuthor() {
		published := models.QuizStatusPublished
		filters.Status = &published
	} else if !requester.IsAdmin() && filters.CreatedBy == nil {
		filters.CreatedBy = &requester.UserID
	}
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return &QuizListResponse{
		Quizzes: quizzes,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, requester Requester) (*models.Quiz, error) {
	s.logger.Info("Updating quiz", "quiz_id", id, "user_id", requester.UserID)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	quiz, err := s.loadForWrite(ctx, id, requester, "update")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.CourseID != nil {
		quiz.CourseID = req.CourseID
	}
	if req.DueDate != nil {
		if errs := s.validator.Business().ValidateDueDate(req.DueDate); len(errs) > 0 {
			return nil, errs
		}
		quiz.DueDate = req.DueDate
	}

	if req.Questions != nil {
		hasAttempts, err := s.repo.Quiz().HasAttempts(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check quiz attempts: %w", err)
		}
		if hasAttempts {
			return nil, NewBusinessRuleError("questions_locked", "questions cannot be replaced once learners have attempted the quiz", map[string]any{"quiz_id": id})
		}
		questions, err := s.buildQuestions(*req.Questions)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Question().ReplaceForQuiz(ctx, id, questions); err != nil {
			return nil, fmt.Errorf("failed to replace questions: %w", err)
		}
	}

	publishing := false
	if req.Status != nil && *req.Status != quiz.Status {
		if *req.Status == models.QuizStatusPublished {
			if err := s.preparePublish(ctx, quiz); err != nil {
				return nil, err
			}
			publishing = true
		}
		quiz.Status = *req.Status
	}

	quiz.Questions = nil
	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}
	s.quizzes.invalidate(ctx, id)

	if publishing {
		s.notifyPublished(ctx, quiz)
	}

	s.logger.Info("Quiz updated successfully", "quiz_id", id)
	return s.quizzes.load(ctx, id)
}

func (s *quizService) UpdateSettings(ctx context.Context, id uint, settings *models.QuizSettings, requester Requester) (*models.Quiz, error) {
	s.logger.Info("Updating quiz settings", "quiz_id", id, "user_id", requester.UserID)

	if err := s.validator.Validate(settings); err != nil {
		return nil, err
	}
	if _, err := s.loadForWrite(ctx, id, requester, "update_settings"); err != nil {
		return nil, err
	}

	if err := s.repo.Quiz().UpdateSettings(ctx, id, *settings); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to update quiz settings: %w", err)
	}
	s.quizzes.invalidate(ctx, id)
	return s.quizzes.load(ctx, id)
}

// Publish opens the quiz to learners and stamps PublishedAt
func (s *quizService) Publish(ctx context.Context, id uint, requester Requester) (*models.Quiz, error) {
	s.logger.Info("Publishing quiz", "quiz_id", id, "user_id", requester.UserID)

	quiz, err := s.loadForWrite(ctx, id, requester, "publish")
	if err != nil {
		return nil, err
	}
	if quiz.Status == models.QuizStatusPublished {
		return quiz, nil
	}
	if err := s.preparePublish(ctx, quiz); err != nil {
		return nil, err
	}
	quiz.Status = models.QuizStatusPublished

	quiz.Questions = nil
	if err := s.repo.Quiz().Update(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to publish quiz: %w", err)
	}
	s.quizzes.invalidate(ctx, id)
	s.notifyPublished(ctx, quiz)

	return s.quizzes.load(ctx, id)
}

func (s *quizService) Delete(ctx context.Context, id uint, requester Requester) error {
	s.logger.Info("Deleting quiz", "quiz_id", id, "user_id", requester.UserID)

	if _, err := s.loadForWrite(ctx, id, requester, "delete"); err != nil {
		return err
	}

	hasAttempts, err := s.repo.Quiz().HasAttempts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check quiz attempts: %w", err)
	}
	if hasAttempts {
		return ErrQuizNotDeletable
	}

	if err := s.repo.Quiz().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	s.quizzes.invalidate(ctx, id)

	s.logger.Info("Quiz deleted successfully", "quiz_id", id)
	return nil
}

// ===== HELPER METHODS =====

func (s *quizService) canManage(quiz *models.Quiz, requester Requester) bool {
	return requester.IsAdmin() || (requester.Role.CanAuthor() && quiz.CreatedBy == requester.UserID)
}

// loadForWrite returns an uncached copy the caller may mutate
func (s *quizService) loadForWrite(ctx context.Context, id uint, requester Requester, action string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !s.canManage(quiz, requester) {
		return nil, NewPermissionError(requester.UserID, id, "quiz", action, "not the quiz owner")
	}
	return quiz, nil
}

func (s *quizService) preparePublish(ctx context.Context, quiz *models.Quiz) error {
	questions, err := s.repo.Question().ListByQuiz(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrQuizHasNoQuestion
	}
	if errs := s.validator.Business().ValidatePublishable(quiz, len(questions)); len(errs) > 0 {
		return errs
	}
	ptrs := make([]*models.Question, len(questions))
	for i := range questions {
		ptrs[i] = &questions[i]
	}
	if errs := s.validator.Question().ValidateBatch(ptrs); len(errs) > 0 {
		return errs
	}

	now := s.now()
	quiz.PublishedAt = &now
	return nil
}

func (s *quizService) notifyPublished(ctx context.Context, quiz *models.Quiz) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyQuizPublished(ctx, quiz); err != nil {
		s.logger.Warn("Failed to publish quiz published event", "quiz_id", quiz.ID, "error", err)
	}
}

func (s *quizService) buildQuestions(reqs []QuestionRequest) ([]models.Question, error) {
	questions := make([]models.Question, 0, len(reqs))
	var errs ValidationErrors
	for i, req := range reqs {
		q, err := buildQuestion(i+1, req)
		if err != nil {
			return nil, err
		}
		errs = append(errs, s.validator.Question().Validate(&q).Prefix(fmt.Sprintf("questions[%d]", i))...)
		questions = append(questions, q)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return questions, nil
}

func buildQuestion(number int, req QuestionRequest) (models.Question, error) {
	q := models.Question{
		Number:      number,
		Type:        req.Type,
		Text:        req.Text,
		ImageURL:    req.ImageURL,
		Points:      defaultQuestionPoints,
		Explanation: req.Explanation,
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if len(req.Options) > 0 {
		if err := q.SetOptions(req.Options); err != nil {
			return q, fmt.Errorf("failed to encode options: %w", err)
		}
	}
	if len(req.AcceptedAnswers) > 0 {
		if err := q.SetAccepted(req.AcceptedAnswers); err != nil {
			return q, fmt.Errorf("failed to encode accepted answers: %w", err)
		}
	}
	return q, nil
}

// redactQuiz strips correct answers before a quiz is shown to learners
func redactQuiz(quiz *models.Quiz) *models.Quiz {
	out := *quiz
	out.Questions = make([]models.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		out.Questions[i] = q.Redacted()
	}
	return &out
}

// ===== CACHED LOADER =====

// quizLoader reads quizzes with their questions through the cache
type quizLoader struct {
	repo   repositories.QuizRepository
	cache  cache.CacheService
	ttl    time.Duration
	logger utils.Logger
}

func newQuizLoader(repo repositories.QuizRepository, cacheService cache.CacheService, ttl time.Duration, logger utils.Logger) *quizLoader {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &quizLoader{repo: repo, cache: cacheService, ttl: ttl, logger: logger}
}

func (l *quizLoader) load(ctx context.Context, id uint) (*models.Quiz, error) {
	key := cache.QuizKey(id)

	var cached models.Quiz
	err := l.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.logger.Warn("Quiz cache read failed", "quiz_id", id, "error", err)
	}

	quiz, err := l.repo.GetWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if err := l.cache.Set(ctx, key, quiz, l.ttl); err != nil {
		l.logger.Warn("Quiz cache write failed", "quiz_id", id, "error", err)
	}
	return quiz, nil
}

// invalidate drops the quiz and every derived entry such as results
func (l *quizLoader) invalidate(ctx context.Context, id uint) {
	if err := l.cache.Delete(ctx, cache.QuizKey(id)); err != nil {
		l.logger.Warn("Quiz cache invalidation failed", "quiz_id", id, "error", err)
	}
	if err := l.cache.DeletePattern(ctx, cache.QuizResultsPattern(id)); err != nil {
		l.logger.Warn("Quiz results cache invalidation failed", "quiz_id", id, "error", err)
	}
}
