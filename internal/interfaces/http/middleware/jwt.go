package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/auth"
	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	JWTEmailKey   = "jwt_email"
	JWTRoleKey    = "jwt_role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates an access token, including revocation
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	// Validator is required for token validation
	Validator TokenValidator
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(validator TokenValidator) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		Validator: validator,
		SkipPaths: []string{
			"/health",
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
	}
}

// JWTAuthMiddleware creates JWT authentication middleware
func JWTAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(validator))
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.Validator.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			log.Warn("JWT authentication failed",
				zap.Error(err),
				zap.String("path", path),
			)
			abortTokenError(c, err)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets the
// request through anonymously otherwise
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := validator.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose token does not carry one of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeForbidden, "Insufficient permissions", GetRequestID(c)))
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTEmailKey, claims.Email)
	c.Set(JWTRoleKey, claims.Role)

	ctx, _ := logger.WithUserID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.UserID)
	c.Request = c.Request.WithContext(ctx)
}

func abortTokenError(c *gin.Context, err error) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		abortUnauthorized(c, de.Code, de.Message)
		return
	}
	abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid token")
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from JWT claims in context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTRole retrieves the role from JWT claims in context
func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}

// GetJWTEmail retrieves the email from JWT claims in context
func GetJWTEmail(c *gin.Context) string {
	return c.GetString(JWTEmailKey)
}

// GetUserUUID returns the authenticated user id, if any
func GetUserUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(GetJWTUserID(c))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
