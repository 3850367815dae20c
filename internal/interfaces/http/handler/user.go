package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/perfume/backend/internal/application/identity"
)

// UserHandler handles account administration
type UserHandler struct {
	BaseHandler
	users *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *identityapp.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsersQuery filters the user listing
type ListUsersQuery struct {
	Page     int    `form:"page" binding:"omitempty,gte=1"`
	PageSize int    `form:"page_size" binding:"omitempty,gte=1,lte=100"`
	Search   string `form:"search" binding:"max=100"`
	Role     string `form:"role" binding:"omitempty,oneof=admin customer"`
	Active   *bool  `form:"active"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at name email last_login_at"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SetActiveRequest enables or disables an account
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetRoleRequest changes the role of an account
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin customer"`
}

// List godoc
// @Summary      List accounts
// @Tags         users
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	var q ListUsersQuery
	if !h.BindQuery(c, &q) {
		return
	}
	page, err := h.users.List(c.Request.Context(), identityapp.ListUsersInput{
		Page:     q.Page,
		PageSize: q.PageSize,
		Search:   q.Search,
		Role:     q.Role,
		Active:   q.Active,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, *page)
}

// SetActive godoc
// @Summary      Enable or disable an account
// @Tags         users
// @Security     BearerAuth
// @Router       /users/{id}/active [patch]
func (h *UserHandler) SetActive(c *gin.Context) {
	actorID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.users.SetActive(c.Request.Context(), actorID, id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// SetRole godoc
// @Summary      Change the role of an account
// @Tags         users
// @Security     BearerAuth
// @Router       /users/{id}/role [patch]
func (h *UserHandler) SetRole(c *gin.Context) {
	actorID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req SetRoleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), actorID, id, req.Role)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
