package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// Context keys set by Auth
const (
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
	ContextUserEmail = "user_email"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller extracted from a bearer token
type Identity struct {
	UserID string
	Role   models.UserRole
	Email  string
}

type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// NewVerifier picks the identity provider when configured, otherwise the
// shared secret verifier.
func NewVerifier(cfg config.AuthConfig) TokenVerifier {
	if cfg.CasdoorEnabled() {
		return NewCasdoorVerifier(cfg)
	}
	return NewHMACVerifier(cfg.JWTSecret)
}

// ===== CASDOOR =====

type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.AuthConfig) *CasdoorVerifier {
	return &CasdoorVerifier{
		client: casdoorsdk.NewClient(
			cfg.CasdoorEndpoint,
			cfg.ClientID,
			cfg.ClientSecret,
			cfg.Certificate,
			cfg.OrganizationName,
			cfg.ApplicationName,
		),
	}
}

func (v *CasdoorVerifier) Verify(token string) (*Identity, error) {
	claims, err := v.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := claims.User.Id
	if userID == "" {
		userID = claims.User.Name
	}
	if userID == "" {
		return nil, ErrInvalidToken
	}

	role := models.RoleStudent
	switch {
	case claims.User.IsAdmin:
		role = models.RoleAdmin
	case strings.EqualFold(claims.User.Tag, string(models.RoleTeacher)),
		strings.EqualFold(claims.User.Type, string(models.RoleTeacher)):
		role = models.RoleTeacher
	}

	return &Identity{UserID: userID, Role: role, Email: claims.User.Email}, nil
}

// ===== SHARED SECRET =====

type Claims struct {
	Role  models.UserRole `json:"role"`
	Email string          `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(token string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	role := claims.Role
	if role == "" {
		role = models.RoleStudent
	}
	return &Identity{UserID: claims.Subject, Role: role, Email: claims.Email}, nil
}

// IssueToken signs a token the HMAC verifier accepts. Used by tests and local tooling.
func (v *HMACVerifier) IssueToken(userID string, role models.UserRole, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "quiz-service",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// ===== GIN MIDDLEWARE =====

// Auth rejects requests without a valid bearer token and stores the caller
// identity on the gin context.
func Auth(verifier TokenVerifier, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not authenticated"})
			return
		}

		identity, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("Rejected bearer token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextUserRole, identity.Role)
		if identity.Email != "" {
			c.Set(ContextUserEmail, identity.Email)
		}
		c.Next()
	}
}

// RequireRole allows only callers holding one of roles. Must run after Auth.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextUserRole)
		userRole, _ := role.(models.UserRole)
		if !slices.Contains(roles, userRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
