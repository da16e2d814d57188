package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(verifier TokenVerifier, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(verifier, utils.NewNopLogger())}, mw...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(ContextUserID),
			"role":    c.MustGet(ContextUserRole),
		})
	})
	r.GET("/me", handlers...)
	return r
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v := NewHMACVerifier("secret")
	token, err := v.IssueToken("teacher-1", models.RoleTeacher, time.Hour)
	require.NoError(t, err)

	identity, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", identity.UserID)
	assert.Equal(t, models.RoleTeacher, identity.Role)

	_, err = NewHMACVerifier("other").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := v.IssueToken("teacher-1", models.RoleTeacher, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth(t *testing.T) {
	v := NewHMACVerifier("secret")
	token, err := v.IssueToken("student-1", models.RoleStudent, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(v)
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"user_id":"student-1"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	v := NewHMACVerifier("secret")
	r := newAuthRouter(v, RequireRole(models.RoleAdmin))

	for role, want := range map[models.UserRole]int{
		models.RoleAdmin:   http.StatusOK,
		models.RoleTeacher: http.StatusForbidden,
		models.RoleStudent: http.StatusForbidden,
	} {
		token, err := v.IssueToken("u-1", role, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}
