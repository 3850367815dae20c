package handler

import (
	"github.com/gin-gonic/gin"
	orderapp "github.com/perfume/backend/internal/application/order"
)

// StatsHandler serves the admin dashboard
type StatsHandler struct {
	BaseHandler
	stats *orderapp.StatsService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats *orderapp.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get godoc
// @Summary      Dashboard figures: orders by status, revenue, low stock, pending samples, unread messages
// @Tags         admin
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.stats.Stats(c.Request.Context(), h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}
