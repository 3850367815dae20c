package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/domain/identity"
	"github.com/perfume/backend/internal/domain/shared"
	"github.com/perfume/backend/internal/infrastructure/logger"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated sends a page of items with its meta
func Paginated[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError converts an error returned by a service into a response.
// Domain errors keep their code and message; everything else is logged and
// reported as an internal error without details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("Request failed", zap.String("code", code), zap.Error(err))
		}
		h.Error(c, status, code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unexpected error", zap.Error(err))
	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// BindJSON binds and validates the request body. On failure the error
// response is already written and false is returned.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleBindingError(c, err)
		return false
	}
	return true
}

// BindQuery binds and validates query parameters
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleBindingError(c, err)
		return false
	}
	return true
}

// ParseID parses a uuid path parameter
func (h *BaseHandler) ParseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// CurrentUserID returns the authenticated user. It writes a 401 when the
// request carries no valid user.
func (h *BaseHandler) CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetUserUUID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}

// Lang returns the negotiated response language
func (h *BaseHandler) Lang(c *gin.Context) string {
	return middleware.GetLanguage(c)
}

func isAdmin(c *gin.Context) bool {
	return middleware.GetJWTRole(c) == string(identity.RoleAdmin)
}
