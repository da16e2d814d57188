package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator is the main validator instance that combines all validation types
type Validator struct {
	structValidator   *validator.Validate
	businessValidator *BusinessValidator
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		businessValidator: NewBusinessValidator(),
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s any) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// Validate performs struct tag validation followed by type-specific question checks
// when s is a question.
func (v *Validator) Validate(s any) error {
	if err := v.ValidateStruct(s); err != nil {
		return err
	}

	switch q := s.(type) {
	case *models.Question:
		if errs := v.questionValidator.Validate(q); len(errs) > 0 {
			return errs
		}
	case *models.QuizSettings:
		if errs := v.businessValidator.ValidateSettings(*q); len(errs) > 0 {
			return errs
		}
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// Business returns the business validator
func (v *Validator) Business() *BusinessValidator {
	return v.businessValidator
}

var optionLabelPattern = regexp.MustCompile(`^[A-Z]$`)

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("option_label", validateOptionLabel)
	validate.RegisterValidation("quiz_status", validateQuizStatus)
	validate.RegisterValidation("reminder_type", validateReminderType)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validation functions
func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.QuestionSingle,
		models.QuestionMultiple,
		models.QuestionFill,
		models.QuestionEssay,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateOptionLabel(fl validator.FieldLevel) bool {
	return optionLabelPattern.MatchString(fl.Field().String())
}

func validateQuizStatus(fl validator.FieldLevel) bool {
	switch models.QuizStatus(fl.Field().String()) {
	case models.QuizStatusDraft, models.QuizStatusPublished, models.QuizStatusArchived:
		return true
	}
	return false
}

func validateReminderType(fl validator.FieldLevel) bool {
	return models.ReminderType(fl.Field().String()).Valid()
}
