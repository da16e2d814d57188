package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger utils.Logger
}

func NewServiceLogger(logger utils.Logger, service string) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", service),
	}
}

// ===== OPERATION LOGGING =====

func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID string, resourceID uint, resourceType string, duration time.Duration, err error) {
	status := "success"
	args := []any{
		"operation", operation,
		"user_id", userID,
		"resource_id", resourceID,
		"resource_type", resourceType,
		"duration", duration,
	}

	if err == nil {
		l.logger.InfoContext(ctx, fmt.Sprintf("%s operation %s", operation, status), append(args, "status", status)...)
		return
	}

	args = append(args, "error", err.Error())

	var (
		validationErrs ValidationErrors
		businessErr    *BusinessRuleError
		permErr        *PermissionError
	)
	switch {
	case errors.As(err, &validationErrs):
		status = "validation_error"
		args = append(args, "validation_errors_count", len(validationErrs))
	case errors.As(err, &businessErr):
		status = "validation_error"
		args = append(args, "business_rule", businessErr.Rule)
	case errors.As(err, &permErr):
		status = "unauthorized"
		args = append(args, "permission_action", permErr.Action)
	case IsUnauthorized(err):
		status = "unauthorized"
	case IsNotFound(err):
		status = "not_found"
	case IsConflict(err):
		status = "conflict"
	default:
		status = "error"
	}
	args = append(args, "status", status)
	message := fmt.Sprintf("%s operation %s", operation, status)

	switch status {
	case "error":
		l.logger.ErrorContext(ctx, message, args...)
	case "not_found":
		l.logger.InfoContext(ctx, message, args...)
	default:
		l.logger.WarnContext(ctx, message, args...)
	}
}

func (l *ServiceLogger) LogRecovery(ctx context.Context, operation string, recovered any, stack []byte) {
	l.logger.ErrorContext(ctx, "Panic recovered",
		"operation", operation,
		"panic_value", recovered,
		"stack_trace", string(stack))
}

// ===== MIDDLEWARE AND HELPERS =====

// ContextualLogger wraps operations with automatic logging
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	userID    string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, userID string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		userID:    userID,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resourceID uint, resourceType string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, cl.userID, resourceID, resourceType, time.Since(cl.startTime), err)
}
