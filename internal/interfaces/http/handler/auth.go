package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/perfume/backend/internal/application/identity"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles sign-up, sign-in and the current account
type AuthHandler struct {
	BaseHandler
	auth  *identityapp.AuthService
	users *identityapp.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *identityapp.AuthService, users *identityapp.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
}

// LoginRequest is the sign-in payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

// RefreshTokenRequest carries a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally carries the refresh token to revoke with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateProfileRequest replaces the editable profile fields
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=100"`
	Phone string `json:"phone" binding:"omitempty,max=30"`
}

// ChangePasswordRequest changes the password of the current account
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// Register godoc
// @Summary      Create a customer account
// @Tags         auth
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.auth.Register(c.Request.Context(), identityapp.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login godoc
// @Summary      Sign in with email and password
// @Tags         auth
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.auth.Login(c.Request.Context(), identityapp.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh godoc
// @Summary      Exchange a refresh token for a new token pair
// @Tags         auth
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @Summary      Revoke the current tokens
// @Tags         auth
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	var req LogoutRequest
	// the body is optional
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	if err := h.auth.Logout(c.Request.Context(), identityapp.LogoutInput{
		AccessClaims: claims,
		RefreshToken: req.RefreshToken,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Logged out"})
}

// Me godoc
// @Summary      Get the current account
// @Tags         auth
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	user, err := h.users.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateProfile godoc
// @Summary      Update the current account
// @Tags         auth
// @Security     BearerAuth
// @Router       /auth/me [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), userID, identityapp.UpdateProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangePassword godoc
// @Summary      Change the password and receive a fresh token pair
// @Tags         auth
// @Security     BearerAuth
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.users.ChangePassword(c.Request.Context(), userID, identityapp.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
