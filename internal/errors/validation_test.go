package errors

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	// Test NewValidationError
	err := NewValidationError("test_field", "test message", "test_value")

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message to be 'test message', got '%s'", err.Message)
	}

	if err.Value != "test_value" {
		t.Errorf("Expected value to be 'test_value', got '%v'", err.Value)
	}

	// Test Error method
	expected := "validation error on field 'test_field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Test empty ValidationErrors
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	// Test single ValidationError
	errs = append(errs, *NewValidationError("field1", "message1", nil))
	expected := "validation failed: field1 message1"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	// Test multiple ValidationErrors
	errs = append(errs, *NewValidationError("field2", "message2", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("test_field", "test message", "required", "test_value")

	if err.Rule != "required" {
		t.Errorf("Expected rule to be 'required', got '%s'", err.Rule)
	}

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}
}

func TestToValidationErrors(t *testing.T) {
	type payload struct {
		Title  string `validate:"required"`
		Points int    `validate:"min=0"`
	}

	err := validator.New().Struct(payload{Points: -1})
	errs := ToValidationErrors(err)

	if len(errs) != 2 {
		t.Fatalf("Expected 2 validation errors, got %d", len(errs))
	}
	if errs[0].Field != "Title" || errs[0].Message != "is required" || errs[0].Rule != "required" {
		t.Errorf("Unexpected first error: %+v", errs[0])
	}
	if errs[1].Message != "must be at least 0" {
		t.Errorf("Unexpected second message: '%s'", errs[1].Message)
	}

	if got := ToValidationErrors(nil); len(got) != 0 {
		t.Errorf("Expected no errors for nil input, got %d", len(got))
	}
}

func TestToValidationErrors_NestedAndWrapped(t *testing.T) {
	type settings struct {
		PassingScore int `json:"passing_score" validate:"max=100"`
	}
	type request struct {
		Settings settings `json:"settings"`
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string { return f.Tag.Get("json") })

	err := fmt.Errorf("create quiz: %w", v.Struct(request{Settings: settings{PassingScore: 120}}))
	errs := ToValidationErrors(err)

	if len(errs) != 1 {
		t.Fatalf("Expected 1 validation error, got %d", len(errs))
	}
	if errs[0].Field != "settings.passing_score" || errs[0].Message != "must be at most 100" {
		t.Errorf("Unexpected error: %+v", errs[0])
	}
}

func TestValidationErrors_Prefix(t *testing.T) {
	errs := ValidationErrors{{Field: "options", Rule: "min"}, {Field: "", Rule: "correct_answer"}}
	prefixed := errs.Prefix("questions[2]")

	if prefixed[0].Field != "questions[2].options" || prefixed[1].Field != "questions[2]" {
		t.Errorf("Unexpected prefixed fields: %+v", prefixed)
	}
	if errs[0].Field != "options" {
		t.Errorf("Prefix must not modify the receiver, got '%s'", errs[0].Field)
	}
}
