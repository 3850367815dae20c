package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/perfume/backend/internal/application/identity"
	"github.com/perfume/backend/internal/infrastructure/auth"
	"github.com/perfume/backend/internal/infrastructure/config"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwtFixture struct {
	jwt       *auth.JWTService
	revoked   *auth.MemoryRevocationStore
	validator TokenValidator
}

func newJWTFixture() *jwtFixture {
	svc := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
	revoked := auth.NewMemoryRevocationStore()
	return &jwtFixture{
		jwt:       svc,
		revoked:   revoked,
		validator: identityapp.NewAuthService(nil, svc, revoked, nil, nil),
	}
}

func (f *jwtFixture) token(t *testing.T, role string) (*auth.TokenPair, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	pair, err := f.jwt.GenerateTokenPair(auth.Subject{UserID: id, Email: "user@example.com", Role: role})
	require.NoError(t, err)
	return pair, id
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	}
	return req
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware(t *testing.T) {
	f := newJWTFixture()
	pair, userID := f.token(t, "customer")

	router := gin.New()
	router.Use(JWTAuthMiddleware(f.validator))
	router.GET("/test", func(c *gin.Context) {
		id, ok := GetUserUUID(c)
		assert.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String(), "role": GetJWTRole(c), "email": GetJWTEmail(c)})
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("valid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest(pair.AccessToken))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"`+userID.String()+`","role":"customer","email":"user@example.com"}`, w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest(""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
		assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest("not-a-jwt"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest(pair.RefreshToken))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		revoked, _ := f.token(t, "customer")
		claims, err := f.jwt.ValidateAccessToken(revoked.AccessToken)
		require.NoError(t, err)
		require.NoError(t, f.revoked.RevokeToken(context.Background(), claims.ID, time.Minute))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authRequest(revoked.AccessToken))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, w))
	})

	t.Run("skip path", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	f := newJWTFixture()
	pair, userID := f.token(t, "customer")

	router := gin.New()
	router.Use(OptionalAuth(f.validator))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTUserID(c))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest(pair.AccessToken))
	assert.Equal(t, userID.String(), w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest(""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest("expired-or-broken"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	f := newJWTFixture()
	admin, _ := f.token(t, "admin")
	customer, _ := f.token(t, "customer")

	router := gin.New()
	router.GET("/test", JWTAuthMiddleware(f.validator), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/no-auth", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authRequest(admin.AccessToken))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authRequest(customer.AccessToken))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/no-auth", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
