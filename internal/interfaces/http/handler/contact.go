package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	contactapp "github.com/perfume/backend/internal/application/contact"
)

// ContactHandler handles contact messages and sample requests
type ContactHandler struct {
	BaseHandler
	messages *contactapp.MessageService
	samples  *contactapp.SampleService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(messages *contactapp.MessageService, samples *contactapp.SampleService) *ContactHandler {
	return &ContactHandler{messages: messages, samples: samples}
}

// SubmitMessage godoc
// @Summary      Send a message to the store
// @Tags         contact
// @Router       /contact [post]
func (h *ContactHandler) SubmitMessage(c *gin.Context) {
	var req contactapp.SubmitMessageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	msg, err := h.messages.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// ListMessages godoc
// @Summary      List contact messages
// @Tags         contact
// @Security     BearerAuth
// @Router       /contact [get]
func (h *ContactHandler) ListMessages(c *gin.Context) {
	var req contactapp.ListMessagesRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.messages.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// MarkRead godoc
// @Summary      Mark a message as read
// @Tags         contact
// @Security     BearerAuth
// @Router       /contact/{id}/read [post]
func (h *ContactHandler) MarkRead(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	msg, err := h.messages.MarkRead(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

// DeleteMessage godoc
// @Summary      Delete a message
// @Tags         contact
// @Security     BearerAuth
// @Router       /contact/{id} [delete]
func (h *ContactHandler) DeleteMessage(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.messages.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// SubmitSample godoc
// @Summary      Request free samples of up to five products
// @Tags         samples
// @Router       /samples [post]
func (h *ContactHandler) SubmitSample(c *gin.Context) {
	var req contactapp.SubmitSampleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sample, err := h.samples.Submit(c.Request.Context(), req, currentUserPtr(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sample)
}

// GetSample godoc
// @Summary      Get a sample request by id or reference
// @Tags         samples
// @Security     BearerAuth
// @Router       /samples/{id} [get]
func (h *ContactHandler) GetSample(c *gin.Context) {
	sample, err := h.samples.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sample)
}

// ListSamples godoc
// @Summary      List sample requests
// @Tags         samples
// @Security     BearerAuth
// @Router       /samples [get]
func (h *ContactHandler) ListSamples(c *gin.Context) {
	var req contactapp.ListSamplesRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.samples.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// FulfillSample godoc
// @Summary      Mark a sample request as sent
// @Tags         samples
// @Security     BearerAuth
// @Router       /samples/{id}/fulfill [post]
func (h *ContactHandler) FulfillSample(c *gin.Context) {
	h.transitionSample(c, h.samples.Fulfill)
}

// CancelSample godoc
// @Summary      Cancel a sample request
// @Tags         samples
// @Security     BearerAuth
// @Router       /samples/{id}/cancel [post]
func (h *ContactHandler) CancelSample(c *gin.Context) {
	h.transitionSample(c, h.samples.Cancel)
}

func (h *ContactHandler) transitionSample(
	c *gin.Context,
	fn func(context.Context, uuid.UUID, contactapp.SampleStatusRequest) (*contactapp.SampleResponse, error),
) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req contactapp.SampleStatusRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}
	sample, err := fn(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sample)
}
