package postgres

import (
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type repository struct {
	quiz     repositories.QuizRepository
	question repositories.QuestionRepository
	attempt  repositories.AttemptRepository
	reminder repositories.ReminderRepository
	user     repositories.UserRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		quiz:     NewQuizPostgreSQL(db),
		question: NewQuestionPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
		reminder: NewReminderPostgreSQL(db),
		user:     NewUserPostgreSQL(db),
	}
}

func (r *repository) Quiz() repositories.QuizRepository         { return r.quiz }
func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *repository) Reminder() repositories.ReminderRepository { return r.reminder }
func (r *repository) User() repositories.UserRepository         { return r.user }
