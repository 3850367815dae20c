package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	identityapp "github.com/perfume/backend/internal/application/identity"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(env *testEnv) *gin.Engine {
	h := NewAuthHandler(env.auth, env.users)
	r := newEngine()
	g := r.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	secured := g.Group("", middleware.JWTAuthMiddleware(env.auth))
	secured.POST("/logout", h.Logout)
	secured.GET("/me", h.Me)
	secured.PUT("/me", h.UpdateProfile)
	secured.POST("/change-password", h.ChangePassword)
	return r
}

func register(t *testing.T, r *gin.Engine, email string) identityapp.AuthResult {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Layla", Email: email, Password: "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result identityapp.AuthResult
	decode(t, w, &result)
	return result
}

func bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}

func TestAuthHandler_RegisterAndMe(t *testing.T) {
	r := authRouter(newTestEnv(t))

	result := register(t, r, "Layla@Example.com")
	require.NotNil(t, result.Tokens)
	assert.Equal(t, "layla@example.com", result.User.Email)
	assert.Equal(t, "customer", result.User.Role)

	w := doJSON(r, http.MethodGet, "/auth/me", nil, bearer(result.Tokens.AccessToken)...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me identityapp.UserDTO
	decode(t, w, &me)
	assert.Equal(t, result.User.ID, me.ID)
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	r := authRouter(newTestEnv(t))
	register(t, r, "dup@example.com")

	w := doJSON(r, http.MethodPost, "/auth/register", RegisterRequest{
		Name: "Other", Email: "DUP@example.com", Password: "another-pass",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, decode(t, w, nil).Error.Code)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	r := authRouter(newTestEnv(t))

	w := doJSON(r, http.MethodPost, "/auth/register", map[string]string{
		"name": "L", "email": "not-an-email", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	assert.Len(t, env.Error.Details, 3)
}

func TestAuthHandler_Login(t *testing.T) {
	r := authRouter(newTestEnv(t))
	register(t, r, "login@example.com")

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", LoginRequest{Email: "login@example.com", Password: "wrong-pass"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, decode(t, w, nil).Error.Code)
	})

	t.Run("unknown email reads the same", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", LoginRequest{Email: "ghost@example.com", Password: "s3cret-pass"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, decode(t, w, nil).Error.Code)
	})

	t.Run("success", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/auth/login", LoginRequest{Email: "login@example.com", Password: "s3cret-pass"})
		require.Equal(t, http.StatusOK, w.Code)
		var result identityapp.AuthResult
		decode(t, w, &result)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
	})
}

func TestAuthHandler_MeRequiresToken(t *testing.T) {
	r := authRouter(newTestEnv(t))

	w := doJSON(r, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LogoutRevokesToken(t *testing.T) {
	r := authRouter(newTestEnv(t))
	result := register(t, r, "bye@example.com")
	token := result.Tokens.AccessToken

	w := doJSON(r, http.MethodPost, "/auth/logout", LogoutRequest{RefreshToken: result.Tokens.RefreshToken}, bearer(token)...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/auth/me", nil, bearer(token)...)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: result.Tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	r := authRouter(newTestEnv(t))
	result := register(t, r, "pw@example.com")

	w := doJSON(r, http.MethodPost, "/auth/change-password",
		ChangePasswordRequest{OldPassword: "wrong-pass", NewPassword: "brand-new-pass"},
		bearer(result.Tokens.AccessToken)...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_PASSWORD", decode(t, w, nil).Error.Code)

	w = doJSON(r, http.MethodPost, "/auth/change-password",
		ChangePasswordRequest{OldPassword: "s3cret-pass", NewPassword: "brand-new-pass"},
		bearer(result.Tokens.AccessToken)...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/auth/login", LoginRequest{Email: "pw@example.com", Password: "brand-new-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}
