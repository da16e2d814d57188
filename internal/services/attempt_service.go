package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/SAP-F-2025/quiz-service/internal/attempt"
	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/scoring"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg/monitoring"
	"github.com/SAP-F-2025/quiz-service/pkg/tracing"
)

// AttemptService runs learner attempts from start to the scored result
type AttemptService interface {
	Start(ctx context.Context, quizID uint, userID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, attemptID uint, userID string, req *SaveAnswerRequest) (*SaveAnswerResponse, error)
	Submit(ctx context.Context, attemptID uint, userID string) (*AttemptResultResponse, error)
	Get(ctx context.Context, attemptID uint, requester Requester) (*AttemptDetailResponse, error)
	Remaining(ctx context.Context, attemptID uint, userID string) (*TimeRemainingResponse, error)
	ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) (*AttemptListResponse, error)

	// ExpireStale finalizes in-progress attempts whose deadline passed while
	// no countdown was running, e.g. across a restart.
	ExpireStale(ctx context.Context) (int, error)
	Shutdown()
}

// ===== REQUEST / RESPONSE TYPES =====

type AnswerAction string

const (
	ActionSelect AnswerAction = "select"
	ActionToggle AnswerAction = "toggle"
	ActionText   AnswerAction = "text"
)

type SaveAnswerRequest struct {
	QuestionID uint         `json:"question_id" validate:"required"`
	Action     AnswerAction `json:"action" validate:"required,oneof=select toggle text"`
	Label      string       `json:"label" validate:"omitempty,option_label"`
	Text       string       `json:"text" validate:"max=10000"`
}

type AttemptResponse struct {
	Attempt          *models.Attempt         `json:"attempt"`
	QuizTitle        string                  `json:"quiz_title"`
	Questions        []models.Question       `json:"questions"`
	Answers          map[uint]scoring.Answer `json:"answers"`
	RemainingSeconds *int                    `json:"remaining_seconds,omitempty"`
	Resumed          bool                    `json:"resumed"`
}

type SaveAnswerResponse struct {
	AttemptID        uint           `json:"attempt_id"`
	QuestionID       uint           `json:"question_id"`
	Answer           scoring.Answer `json:"answer"`
	AnsweredCount    int            `json:"answered_count"`
	RemainingSeconds *int           `json:"remaining_seconds,omitempty"`
}

// AttemptResultResponse carries the scored result. Result is nil when the
// quiz hides results from learners.
type AttemptResultResponse struct {
	AttemptID   uint                  `json:"attempt_id"`
	QuizID      uint                  `json:"quiz_id"`
	Status      models.AttemptStatus  `json:"status"`
	Trigger     *models.SubmitTrigger `json:"submit_trigger"`
	CompletedAt *time.Time            `json:"completed_at"`
	TimeSpent   int                   `json:"time_spent"`
	Result      *scoring.Submission   `json:"result,omitempty"`
}

type AttemptQuestionView struct {
	Question     models.Question `json:"question"`
	Answer       *scoring.Answer `json:"answer,omitempty"`
	IsCorrect    *bool           `json:"is_correct,omitempty"`
	PointsEarned *int            `json:"points_earned,omitempty"`
}

type AttemptDetailResponse struct {
	AttemptResultResponse
	UserID           string                `json:"user_id"`
	QuizTitle        string                `json:"quiz_title"`
	AttemptNumber    int                   `json:"attempt_number"`
	StartedAt        time.Time             `json:"started_at"`
	Deadline         *time.Time            `json:"deadline"`
	RemainingSeconds *int                  `json:"remaining_seconds,omitempty"`
	Questions        []AttemptQuestionView `json:"questions"`
}

type TimeRemainingResponse struct {
	AttemptID        uint                 `json:"attempt_id"`
	Status           models.AttemptStatus `json:"status"`
	Timed            bool                 `json:"timed"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	Deadline         *time.Time           `json:"deadline"`
}

type AttemptListResponse struct {
	Attempts []*models.Attempt `json:"attempts"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// AttemptOptions tunes session timing and draft retention
type AttemptOptions struct {
	TickInterval time.Duration
	DraftTTL     time.Duration
	QuizTTL      time.Duration
	// IdleTimeout releases untimed sessions without activity; the draft
	// store reopens them on the next request. Defaults to half of DraftTTL.
	IdleTimeout time.Duration
}

const expireBatchSize = 100

type attemptService struct {
	repo      repositories.Repository
	quizzes   *quizLoader
	cache     cache.CacheService
	drafts    cache.DraftStore
	registry  *attempt.Registry
	notifier  NotificationEventService
	logger    utils.Logger
	ops       *ServiceLogger
	validator *validator.Validator
	opts      AttemptOptions
	now       func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	drafts cache.DraftStore,
	registry *attempt.Registry,
	notifier NotificationEventService,
	logger utils.Logger,
	validator *validator.Validator,
	opts AttemptOptions,
) AttemptService {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.DraftTTL <= 0 {
		opts.DraftTTL = 24 * time.Hour
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = opts.DraftTTL / 2
	}
	return &attemptService{
		repo:      repo,
		quizzes:   newQuizLoader(repo.Quiz(), cacheService, opts.QuizTTL, logger),
		cache:     cacheService,
		drafts:    drafts,
		registry:  registry,
		notifier:  notifier,
		logger:    logger,
		ops:       NewServiceLogger(logger, "attempt"),
		validator: validator,
		opts:      opts,
		now:       time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, quizID uint, userID string) (resp *AttemptResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "attempt.start", attribute.Int64("quiz.id", int64(quizID)))
	op := s.ops.WithOperation(ctx, "start_attempt", userID)
	defer func() {
		tracing.EndSpan(span, err)
		op.LogResult(quizID, "quiz", err)
	}()

	s.logger.Info("Starting quiz attempt", "quiz_id", quizID, "user_id", userID)

	quiz, err := s.quizzes.load(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.QuizStatusPublished {
		return nil, ErrQuizNotPublished
	}
	if len(quiz.Questions) == 0 {
		return nil, ErrQuizHasNoQuestion
	}

	// An unfinished attempt is resumed rather than counted again
	active, err := s.repo.Attempt().GetActiveAttempt(ctx, userID, quizID)
	switch {
	case err == nil:
		if !active.Expired(s.now()) {
			s.logger.Info("Resuming existing attempt", "attempt_id", active.ID)
			sess, err := s.session(ctx, active, quiz)
			if err != nil {
				return nil, err
			}
			return s.attemptResponse(active, quiz, sess, true), nil
		}
		if err := s.finalizeExpired(ctx, active, quiz); err != nil {
			return nil, err
		}
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}

	now := s.now()
	record := &models.Attempt{
		QuizID:    quizID,
		UserID:    userID,
		Status:    models.AttemptInProgress,
		StartedAt: now,
	}
	if limit := quiz.Settings.TimeLimit(); limit > 0 {
		deadline := now.Add(limit)
		record.Deadline = &deadline
	}
	err = s.repo.Attempt().CreateNext(ctx, record, quiz.Settings.MaxAttempts)
	switch {
	case errors.Is(err, repositories.ErrAttemptLimitReached):
		return nil, ErrAttemptLimitExceeded
	case errors.Is(err, repositories.ErrAttemptInProgress):
		// A concurrent start for the same learner won; resume its attempt.
		active, err := s.repo.Attempt().GetActiveAttempt(ctx, userID, quizID)
		if err != nil {
			return nil, fmt.Errorf("failed to load concurrent attempt: %w", err)
		}
		sess, err := s.session(ctx, active, quiz)
		if err != nil {
			return nil, err
		}
		return s.attemptResponse(active, quiz, sess, true), nil
	case err != nil:
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	sess, err := s.session(ctx, record, quiz)
	if err != nil {
		return nil, err
	}
	monitoring.AttemptsStarted.Inc()

	if s.notifier != nil {
		if err := s.notifier.NotifyAttemptStarted(ctx, record, quiz.Title); err != nil {
			s.logger.Warn("Failed to publish attempt started event", "attempt_id", record.ID, "error", err)
		}
	}

	s.logger.Info("Quiz attempt started successfully",
		"attempt_id", record.ID,
		"attempt_number", record.AttemptNumber,
		"timed", record.Deadline != nil)
	return s.attemptResponse(record, quiz, sess, false), nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, attemptID uint, userID string, req *SaveAnswerRequest) (*SaveAnswerResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	record, err := s.ownedAttempt(ctx, attemptID, userID, "answer")
	if err != nil {
		return nil, err
	}
	if record.IsCompleted() {
		return nil, ErrAttemptNotActive
	}

	quiz, err := s.quizzes.load(ctx, record.QuizID)
	if err != nil {
		return nil, err
	}
	if record.Expired(s.now()) {
		if err := s.finalizeExpired(ctx, record, quiz); err != nil {
			return nil, err
		}
		return nil, ErrAttemptTimeExpired
	}

	question := findQuestion(quiz, req.QuestionID)
	if question == nil {
		return nil, ErrUnknownQuestion
	}
	if err := checkAnswerShape(question, req); err != nil {
		return nil, err
	}

	sess, err := s.session(ctx, record, quiz)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionSelect:
		err = sess.SetChoice(req.QuestionID, req.Label)
	case ActionToggle:
		err = sess.Toggle(req.QuestionID, req.Label)
	case ActionText:
		err = sess.SetText(req.QuestionID, req.Text)
	}
	if errors.Is(err, attempt.ErrSessionClosed) {
		return nil, ErrAttemptNotActive
	}
	if err != nil {
		return nil, err
	}

	answers := sess.Answers()
	answer := answers[req.QuestionID]
	if err := s.drafts.SaveDraftAnswer(ctx, attemptID, req.QuestionID, answer, s.opts.DraftTTL); err != nil {
		s.logger.Warn("Failed to store draft answer", "attempt_id", attemptID, "question_id", req.QuestionID, "error", err)
	}

	resp := &SaveAnswerResponse{
		AttemptID:     attemptID,
		QuestionID:    req.QuestionID,
		Answer:        answer,
		AnsweredCount: countAnswered(answers),
	}
	if remaining, timed := sess.Remaining(); timed {
		resp.RemainingSeconds = seconds(remaining)
	}
	return resp, nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID uint, userID string) (resp *AttemptResultResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "attempt.submit", attribute.Int64("attempt.id", int64(attemptID)))
	op := s.ops.WithOperation(ctx, "submit_attempt", userID)
	defer func() {
		tracing.EndSpan(span, err)
		op.LogResult(attemptID, "attempt", err)
	}()

	s.logger.Info("Submitting quiz attempt", "attempt_id", attemptID, "user_id", userID)

	record, err := s.ownedAttempt(ctx, attemptID, userID, "submit")
	if err != nil {
		return nil, err
	}
	if record.IsCompleted() {
		return nil, ErrAttemptAlreadySubmitted
	}

	quiz, err := s.quizzes.load(ctx, record.QuizID)
	if err != nil {
		return nil, err
	}

	if record.Expired(s.now()) {
		if err := s.finalizeExpired(ctx, record, quiz); err != nil {
			return nil, err
		}
	} else {
		sess, err := s.session(ctx, record, quiz)
		if err != nil {
			return nil, err
		}
		if _, err := sess.Finalize(ctx, attempt.TriggerManual); err != nil {
			if errors.Is(err, attempt.ErrAlreadyFinalized) {
				return nil, ErrAttemptAlreadySubmitted
			}
			return nil, err
		}
	}

	completed, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attempt: %w", err)
	}
	return resultResponse(completed, quiz), nil
}

func (s *attemptService) Get(ctx context.Context, attemptID uint, requester Requester) (*AttemptDetailResponse, error) {
	record, err := s.repo.Attempt().GetWithAnswers(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	quiz, err := s.quizzes.load(ctx, record.QuizID)
	if err != nil {
		return nil, err
	}

	staff := requester.IsAdmin() || (requester.Role.CanAuthor() && quiz.CreatedBy == requester.UserID)
	if record.UserID != requester.UserID && !staff {
		return nil, ErrAttemptAccessDenied
	}

	stored := record.Answers
	record.Answers = nil
	record.Quiz = nil

	detail := &AttemptDetailResponse{
		AttemptResultResponse: *resultResponse(record, quiz),
		UserID:                record.UserID,
		QuizTitle:             quiz.Title,
		AttemptNumber:         record.AttemptNumber,
		StartedAt:             record.StartedAt,
		Deadline:              record.Deadline,
	}
	if staff && record.IsCompleted() && detail.Result == nil {
		detail.Result = submissionOf(record)
	}

	if !record.IsCompleted() {
		answers := s.inProgressAnswers(ctx, record)
		if sess, ok := s.registry.Get(record.ID); ok {
			if remaining, timed := sess.Remaining(); timed {
				detail.RemainingSeconds = seconds(remaining)
			}
		} else if record.Deadline != nil {
			detail.RemainingSeconds = seconds(clampRemaining(record.Deadline.Sub(s.now())))
		}
		for _, q := range quiz.Questions {
			view := AttemptQuestionView{Question: q.Redacted()}
			if a, ok := answers[q.ID]; ok {
				view.Answer = &a
			}
			detail.Questions = append(detail.Questions, view)
		}
		return detail, nil
	}

	showScores := quiz.Settings.ShowResults || staff
	showCorrect := quiz.Settings.ShowCorrectAnswers || staff
	byQuestion := make(map[uint]models.AttemptAnswer, len(stored))
	for _, a := range stored {
		byQuestion[a.QuestionID] = a
	}
	for _, q := range quiz.Questions {
		view := AttemptQuestionView{Question: q}
		if !showCorrect {
			view.Question = q.Redacted()
		}
		if row, ok := byQuestion[q.ID]; ok {
			answer := row.Answer()
			view.Answer = &answer
			if showScores {
				correct, points := row.IsCorrect, row.PointsEarned
				view.IsCorrect = &correct
				view.PointsEarned = &points
			}
		}
		detail.Questions = append(detail.Questions, view)
	}
	return detail, nil
}

func (s *attemptService) Remaining(ctx context.Context, attemptID uint, userID string) (*TimeRemainingResponse, error) {
	record, err := s.ownedAttempt(ctx, attemptID, userID, "view")
	if err != nil {
		return nil, err
	}

	resp := &TimeRemainingResponse{
		AttemptID: attemptID,
		Status:    record.Status,
		Timed:     record.Deadline != nil,
		Deadline:  record.Deadline,
	}
	if record.IsCompleted() || record.Deadline == nil {
		return resp, nil
	}

	if sess, ok := s.registry.Get(attemptID); ok {
		remaining, _ := sess.Remaining()
		resp.RemainingSeconds = int(remaining / time.Second)
		return resp, nil
	}

	remaining := clampRemaining(record.Deadline.Sub(s.now()))
	if remaining == 0 {
		quiz, err := s.quizzes.load(ctx, record.QuizID)
		if err != nil {
			return nil, err
		}
		if err := s.finalizeExpired(ctx, record, quiz); err != nil {
			return nil, err
		}
		resp.Status = models.AttemptCompleted
	}
	resp.RemainingSeconds = int(remaining / time.Second)
	return resp, nil
}

func (s *attemptService) ListByUser(ctx context.Context, userID string, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	filters.UserID = &userID
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	attempts, total, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	hidden := make(map[uint]bool)
	for _, a := range attempts {
		hide, seen := hidden[a.QuizID]
		if !seen {
			quiz, err := s.quizzes.load(ctx, a.QuizID)
			hide = err == nil && !quiz.Settings.ShowResults
			hidden[a.QuizID] = hide
		}
		if hide {
			hideScore(a)
		}
	}

	return &AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

func (s *attemptService) ExpireStale(ctx context.Context) (int, error) {
	expired, err := s.repo.Attempt().ListExpired(ctx, s.now(), expireBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired attempts: %w", err)
	}

	finalized := 0
	for _, record := range expired {
		quiz, err := s.quizzes.load(ctx, record.QuizID)
		if err != nil {
			s.logger.Error("Failed to load quiz for expired attempt", "attempt_id", record.ID, "error", err)
			continue
		}
		if err := s.finalizeExpired(ctx, record, quiz); err != nil {
			s.logger.Error("Failed to finalize expired attempt", "attempt_id", record.ID, "error", err)
			continue
		}
		finalized++
	}

	if evicted := s.registry.EvictIdle(s.now(), s.opts.IdleTimeout); len(evicted) > 0 {
		s.logger.Info("Released idle attempt sessions", "count", len(evicted), "attempt_ids", evicted)
	}
	monitoring.ActiveSessions.Set(float64(s.registry.Len()))
	if finalized > 0 {
		s.logger.Info("Expired attempts finalized", "count", finalized)
	}
	return finalized, nil
}

func (s *attemptService) Shutdown() {
	s.registry.CloseAll()
	monitoring.ActiveSessions.Set(0)
}

// ===== SESSION MANAGEMENT =====

// session returns the live session for the attempt, reopening it from the
// stored draft when this process has none.
func (s *attemptService) session(ctx context.Context, record *models.Attempt, quiz *models.Quiz) (*attempt.Session, error) {
	if sess, ok := s.registry.Get(record.ID); ok {
		return sess, nil
	}

	answers, err := s.drafts.LoadDraft(ctx, record.ID)
	if err != nil {
		s.logger.Warn("Failed to load draft answers", "attempt_id", record.ID, "error", err)
		answers = nil
	}

	questions, err := models.ToScoringSet(quiz.Questions)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare questions: %w", err)
	}

	var limit time.Duration
	if record.Deadline != nil {
		limit = clampRemaining(record.Deadline.Sub(s.now()))
		if limit == 0 {
			return nil, ErrAttemptTimeExpired
		}
	}

	snapshot := *record
	snapshot.Quiz = nil
	snapshot.Answers = nil
	sess := attempt.NewSession(attempt.Config{
		AttemptID:    record.ID,
		Questions:    questions,
		PassingScore: quiz.Settings.PassingScore,
		TimeLimit:    limit,
		TickInterval: s.opts.TickInterval,
		Answers:      answers,
		Now:          s.now,
		Finalizer: func(fctx context.Context, sub scoring.Submission, answers map[uint]scoring.Answer, trigger attempt.Trigger) (err error) {
			// Timeouts finalize on the countdown goroutine.
			defer func() {
				if r := recover(); r != nil {
					s.ops.LogRecovery(fctx, "finalize_attempt", r, debug.Stack())
					err = fmt.Errorf("panic while finalizing attempt %d: %v", snapshot.ID, r)
				}
			}()
			fctx = context.WithoutCancel(fctx)
			if merged, changed := s.mergeDraft(fctx, snapshot.ID, answers); changed {
				answers = merged
				sub = scoring.Grade(questions, merged, quiz.Settings.PassingScore)
			}
			completed := snapshot
			return s.complete(fctx, &completed, sub, answers, models.SubmitTrigger(trigger))
		},
	})
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}

	if !s.registry.Add(sess) {
		sess.Close()
		existing, ok := s.registry.Get(record.ID)
		if !ok {
			return nil, ErrAttemptNotActive
		}
		return existing, nil
	}
	monitoring.ActiveSessions.Set(float64(s.registry.Len()))
	return sess, nil
}

// finalizeExpired completes an attempt whose deadline has passed. A live
// session is finalized through its own guard; otherwise the stored draft is graded.
func (s *attemptService) finalizeExpired(ctx context.Context, record *models.Attempt, quiz *models.Quiz) error {
	if sess, ok := s.registry.Get(record.ID); ok {
		_, err := sess.Finalize(ctx, attempt.TriggerTimeout)
		if err != nil && !errors.Is(err, attempt.ErrAlreadyFinalized) {
			return err
		}
		return nil
	}

	answers, err := s.drafts.LoadDraft(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("failed to load draft answers: %w", err)
	}
	questions, err := models.ToScoringSet(quiz.Questions)
	if err != nil {
		return fmt.Errorf("failed to prepare questions: %w", err)
	}

	sub := scoring.Grade(questions, answers, quiz.Settings.PassingScore)
	completed := *record
	err = s.complete(ctx, &completed, sub, answers, models.SubmitExpired)
	if errors.Is(err, ErrAttemptAlreadySubmitted) {
		return nil
	}
	return err
}

// complete is the single persistence path for a graded attempt
func (s *attemptService) complete(ctx context.Context, record *models.Attempt, sub scoring.Submission, answers map[uint]scoring.Answer, trigger models.SubmitTrigger) (err error) {
	ctx, span := tracing.StartSpan(ctx, "attempt.complete",
		attribute.Int64("attempt.id", int64(record.ID)),
		attribute.String("attempt.trigger", string(trigger)))
	defer func() { tracing.EndSpan(span, err) }()

	completedAt := s.now()
	if trigger != models.SubmitManual && record.Deadline != nil && completedAt.After(*record.Deadline) {
		completedAt = *record.Deadline
	}
	record.ApplySubmission(sub, trigger, completedAt)

	rows := models.BuildAttemptAnswers(record.ID, answers, sub.Outcomes)
	if err := s.repo.Attempt().Complete(ctx, record, rows); err != nil {
		if errors.Is(err, repositories.ErrAttemptAlreadyCompleted) {
			return ErrAttemptAlreadySubmitted
		}
		return fmt.Errorf("failed to persist attempt result: %w", err)
	}

	if err := s.drafts.ClearDraft(ctx, record.ID); err != nil {
		s.logger.Warn("Failed to clear draft answers", "attempt_id", record.ID, "error", err)
	}
	if err := s.cache.DeletePattern(ctx, cache.QuizResultsPattern(record.QuizID)); err != nil {
		s.logger.Warn("Failed to invalidate quiz results", "quiz_id", record.QuizID, "error", err)
	}
	monitoring.RecordFinalized(string(trigger), sub.IsPassed, sub.PercentageScore)

	if s.notifier != nil {
		if err := s.notifier.NotifyAttemptFinished(ctx, record); err != nil {
			s.logger.Warn("Failed to publish attempt finished events", "attempt_id", record.ID, "error", err)
		}
	}

	s.logger.Info("Quiz attempt completed",
		"attempt_id", record.ID,
		"trigger", trigger,
		"percentage_score", sub.PercentageScore,
		"earned_points", sub.EarnedPoints,
		"total_points", sub.TotalPoints,
		"is_passed", sub.IsPassed)
	return nil
}

// ===== HELPER METHODS =====

func (s *attemptService) ownedAttempt(ctx context.Context, attemptID uint, userID, action string) (*models.Attempt, error) {
	record, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if record.UserID != userID {
		return nil, NewPermissionError(userID, attemptID, "attempt", action, "not owned by user")
	}
	return record, nil
}

// mergeDraft overlays the shared draft store on a session snapshot. Every
// instance writes each saved answer to the draft store, so it holds answers
// saved through other instances. The snapshot is returned unchanged when
// the draft cannot be read.
func (s *attemptService) mergeDraft(ctx context.Context, attemptID uint, answers map[uint]scoring.Answer) (map[uint]scoring.Answer, bool) {
	draft, err := s.drafts.LoadDraft(ctx, attemptID)
	if err != nil {
		s.logger.Warn("Failed to load draft answers", "attempt_id", attemptID, "error", err)
		return answers, false
	}

	merged := make(map[uint]scoring.Answer, len(answers)+len(draft))
	for id, a := range answers {
		merged[id] = a
	}
	changed := false
	for id, a := range draft {
		if cur, ok := merged[id]; !ok || !cur.Equal(a) {
			merged[id] = a
			changed = true
		}
	}
	return merged, changed
}

func (s *attemptService) inProgressAnswers(ctx context.Context, record *models.Attempt) map[uint]scoring.Answer {
	if sess, ok := s.registry.Get(record.ID); ok {
		merged, _ := s.mergeDraft(ctx, record.ID, sess.Answers())
		return merged
	}
	answers, err := s.drafts.LoadDraft(ctx, record.ID)
	if err != nil {
		s.logger.Warn("Failed to load draft answers", "attempt_id", record.ID, "error", err)
		return nil
	}
	return answers
}

func (s *attemptService) attemptResponse(record *models.Attempt, quiz *models.Quiz, sess *attempt.Session, resumed bool) *AttemptResponse {
	questions := make([]models.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = q.Redacted()
	}
	resp := &AttemptResponse{
		Attempt:   record,
		QuizTitle: quiz.Title,
		Questions: questions,
		Answers:   sess.Answers(),
		Resumed:   resumed,
	}
	if remaining, timed := sess.Remaining(); timed {
		resp.RemainingSeconds = seconds(remaining)
	}
	return resp
}

func resultResponse(record *models.Attempt, quiz *models.Quiz) *AttemptResultResponse {
	resp := &AttemptResultResponse{
		AttemptID:   record.ID,
		QuizID:      record.QuizID,
		Status:      record.Status,
		Trigger:     record.SubmitTrigger,
		CompletedAt: record.CompletedAt,
		TimeSpent:   record.TimeSpent,
	}
	if record.IsCompleted() && quiz.Settings.ShowResults {
		resp.Result = submissionOf(record)
	}
	return resp
}

func submissionOf(record *models.Attempt) *scoring.Submission {
	return &scoring.Submission{
		PercentageScore: record.PercentageScore,
		EarnedPoints:    record.EarnedPoints,
		TotalPoints:     record.TotalPoints,
		IsPassed:        record.IsPassed,
	}
}

func hideScore(a *models.Attempt) {
	a.PercentageScore = 0
	a.EarnedPoints = 0
	a.TotalPoints = 0
	a.IsPassed = false
}

func findQuestion(quiz *models.Quiz, questionID uint) *models.Question {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			return &quiz.Questions[i]
		}
	}
	return nil
}

// checkAnswerShape matches the collector action to the question type and
// rejects labels the question does not offer.
func checkAnswerShape(q *models.Question, req *SaveAnswerRequest) error {
	switch req.Action {
	case ActionSelect:
		if !q.Type.IsChoice() {
			return ErrInvalidAnswer
		}
	case ActionToggle:
		if q.Type != models.QuestionMultiple {
			return ErrInvalidAnswer
		}
	case ActionText:
		if q.Type != models.QuestionFill && q.Type != models.QuestionEssay {
			return ErrInvalidAnswer
		}
		return nil
	}

	opts, err := q.OptionList()
	if err != nil {
		return err
	}
	for _, o := range opts {
		if o.Label == req.Label {
			return nil
		}
	}
	return ErrInvalidAnswer
}

func countAnswered(answers map[uint]scoring.Answer) int {
	n := 0
	for _, a := range answers {
		if !a.Empty() {
			n++
		}
	}
	return n
}

func clampRemaining(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func seconds(d time.Duration) *int {
	v := int(d / time.Second)
	return &v
}
