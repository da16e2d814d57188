package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// applyPaginationAndSort only accepts whitelisted sort columns.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, allowed map[string]bool, fallback string, limit, offset int) *gorm.DB {
	column := fallback
	if allowed[sortBy] {
		column = sortBy
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	query = query.Order(column + " " + direction)

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}

var quizSortColumns = map[string]bool{
	"created_at": true,
	"title":      true,
	"due_date":   true,
}

func applyQuizFilters(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	return query
}

var attemptSortColumns = map[string]bool{
	"started_at":       true,
	"completed_at":     true,
	"percentage_score": true,
}

func applyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.Passed != nil {
		query = query.Where("is_passed = ?", *filters.Passed)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}
