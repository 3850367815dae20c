package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
)

func parseUUID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	return id, err == nil
}

// currentUserPtr returns the signed-in user or nil
func currentUserPtr(c *gin.Context) *uuid.UUID {
	if id, ok := middleware.GetUserUUID(c); ok {
		return &id
	}
	return nil
}
