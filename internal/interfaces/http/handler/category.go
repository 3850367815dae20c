package handler

import (
	"github.com/gin-gonic/gin"
	catalogapp "github.com/perfume/backend/internal/application/catalog"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	BaseHandler
	categories *catalogapp.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories *catalogapp.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// List godoc
// @Summary      List categories. Admins also see inactive ones.
// @Tags         categories
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	var (
		items []catalogapp.CategoryResponse
		err   error
	)
	if isAdmin(c) {
		items, err = h.categories.List(c.Request.Context(), h.Lang(c))
	} else {
		items, err = h.categories.ListPublic(c.Request.Context(), h.Lang(c))
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get godoc
// @Summary      Get a category by id or slug
// @Tags         categories
// @Router       /categories/{idOrSlug} [get]
func (h *CategoryHandler) Get(c *gin.Context) {
	category, err := h.categories.Get(c.Request.Context(), c.Param("id"), h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Create godoc
// @Summary      Create a category
// @Tags         categories
// @Security     BearerAuth
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var req catalogapp.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	category, err := h.categories.Create(c.Request.Context(), req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// Update godoc
// @Summary      Replace a category
// @Tags         categories
// @Security     BearerAuth
// @Router       /categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.CategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	category, err := h.categories.Update(c.Request.Context(), id, req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Delete godoc
// @Summary      Delete a category without products
// @Tags         categories
// @Security     BearerAuth
// @Router       /categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
