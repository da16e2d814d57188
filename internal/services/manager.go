package services

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/attempt"
	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/email"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/storage"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// ServiceManager exposes every service to the transport layer
type ServiceManager interface {
	Quiz() QuizService
	Attempt() AttemptService
	Result() ResultService
	Import() ImportService
	Reminder() ReminderService
}

// Dependencies are the infrastructure pieces shared by all services
type Dependencies struct {
	Repository repositories.Repository
	Cache      cache.CacheService
	Drafts     cache.DraftStore
	Storage    storage.Provider
	Email      email.Sender
	Publisher  events.EventPublisher
	Logger     utils.Logger
	Validator  *validator.Validator

	QuizTTL  time.Duration
	Attempt  AttemptOptions
	Reminder ReminderOptions
}

type serviceManager struct {
	quiz     QuizService
	attempt  AttemptService
	result   ResultService
	imports  ImportService
	reminder ReminderService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	notifier := NewNotificationEventService(deps.Publisher, deps.Logger)

	attemptOpts := deps.Attempt
	if attemptOpts.QuizTTL == 0 {
		attemptOpts.QuizTTL = deps.QuizTTL
	}

	return &serviceManager{
		quiz: NewQuizService(deps.Repository, deps.Cache, notifier, deps.Logger, deps.Validator, deps.QuizTTL),
		attempt: NewAttemptService(deps.Repository, deps.Cache, deps.Drafts, attempt.NewRegistry(),
			notifier, deps.Logger, deps.Validator, attemptOpts),
		result:   NewResultService(deps.Repository, deps.Cache, deps.Logger, deps.QuizTTL),
		imports:  NewImportService(deps.Repository, deps.Storage, deps.Cache, notifier, deps.Logger, deps.Validator, deps.QuizTTL),
		reminder: NewReminderService(deps.Repository, deps.Email, notifier, deps.Logger, deps.Validator, deps.Reminder),
	}
}

func (m *serviceManager) Quiz() QuizService         { return m.quiz }
func (m *serviceManager) Attempt() AttemptService   { return m.attempt }
func (m *serviceManager) Result() ResultService     { return m.result }
func (m *serviceManager) Import() ImportService     { return m.imports }
func (m *serviceManager) Reminder() ReminderService { return m.reminder }
