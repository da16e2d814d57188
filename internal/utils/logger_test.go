package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WritesFieldsToCore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	logger.With("attempt_id", uint(7)).Info("Submitting quiz attempt", "trigger", "timeout", "score", 50)
	logger.Debug("hidden below level")
	logger.LogError(errors.New("boom"), "Failed to persist attempt")

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "Submitting quiz attempt", entries[0].Message)
	assert.Equal(t, uint64(7), first["attempt_id"])
	assert.Equal(t, "timeout", first["trigger"])
	assert.Equal(t, int64(50), first["score"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestZapLogger_GroupPrefixesKeys(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.WithGroup("reminder").Warn("Skipping learner", "user_id", "u-1")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "u-1", logs.All()[0].ContextMap()["reminder.user_id"])
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestLoggerMiddleware_LogsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(LoggerMiddleware(NewZapLogger(zap.New(core))))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, int64(http.StatusNotFound), entry.ContextMap()["status_code"])
	assert.Equal(t, "/missing", entry.ContextMap()["route"])
}

func TestLoggerMiddleware_IncludesCallerAfterAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(LoggerMiddleware(NewZapLogger(zap.New(core))), ContextLogger(NewNopLogger()))
	r.GET("/attempts/:id", func(c *gin.Context) {
		c.Set("user_id", "student-1")
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attempts/9", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "/attempts/:id", fields["route"])
	assert.Equal(t, "student-1", fields["user_id"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, fields["request_id"], w.Header().Get(RequestIDHeader))
}

func TestContextLogger_StoresRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(ContextLogger(NewZapLogger(zap.New(core))))
	r.GET("/quizzes", func(c *gin.Context) {
		GetLoggerFromContext(c).Info("handled")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/quizzes", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "/quizzes", fields["path"])
}

func TestContextLogger_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ContextLogger(NewNopLogger()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
