package handler

import (
	"github.com/gin-gonic/gin"
	contentapp "github.com/perfume/backend/internal/application/content"
)

// ContentHandler handles multilingual site content
type ContentHandler struct {
	BaseHandler
	content *contentapp.Service
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(content *contentapp.Service) *ContentHandler {
	return &ContentHandler{content: content}
}

// GetByKey godoc
// @Summary      Get a published content block
// @Tags         content
// @Router       /content/{key} [get]
func (h *ContentHandler) GetByKey(c *gin.Context) {
	block, err := h.content.GetByKey(c.Request.Context(), c.Param("key"), h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, block)
}

// ListByPage godoc
// @Summary      List the published blocks of a page
// @Tags         content
// @Router       /content/pages/{page} [get]
func (h *ContentHandler) ListByPage(c *gin.Context) {
	blocks, err := h.content.ListByPage(c.Request.Context(), c.Param("page"), h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, blocks)
}

// ListAll godoc
// @Summary      List every block, published or not
// @Tags         content
// @Security     BearerAuth
// @Router       /content [get]
func (h *ContentHandler) ListAll(c *gin.Context) {
	blocks, err := h.content.ListAll(c.Request.Context(), h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, blocks)
}

// Upsert godoc
// @Summary      Create or replace the block stored under a key
// @Tags         content
// @Security     BearerAuth
// @Router       /content/{key} [put]
func (h *ContentHandler) Upsert(c *gin.Context) {
	var req contentapp.UpsertBlockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.content.Upsert(c.Request.Context(), c.Param("key"), req, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Created {
		h.Created(c, result.Block)
		return
	}
	h.Success(c, result.Block)
}

// Publish godoc
// @Summary      Publish a block
// @Tags         content
// @Security     BearerAuth
// @Router       /content/blocks/{id}/publish [post]
func (h *ContentHandler) Publish(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	block, err := h.content.Publish(c.Request.Context(), id, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, block)
}

// Unpublish godoc
// @Summary      Hide a block
// @Tags         content
// @Security     BearerAuth
// @Router       /content/blocks/{id}/unpublish [post]
func (h *ContentHandler) Unpublish(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	block, err := h.content.Unpublish(c.Request.Context(), id, h.Lang(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, block)
}

// Delete godoc
// @Summary      Delete a block
// @Tags         content
// @Security     BearerAuth
// @Router       /content/blocks/{id} [delete]
func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.content.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Languages godoc
// @Summary      List the supported languages and their text direction
// @Tags         i18n
// @Router       /i18n/languages [get]
func (h *ContentHandler) Languages(c *gin.Context) {
	h.Success(c, h.content.Languages())
}
