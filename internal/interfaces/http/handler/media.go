package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	mediaapp "github.com/perfume/backend/internal/application/media"
	"github.com/perfume/backend/internal/interfaces/http/dto"
	"github.com/perfume/backend/internal/interfaces/http/middleware"
)

// UploadFormField is the multipart field holding the file
const UploadFormField = "file"

// MediaHandler handles image uploads
type MediaHandler struct {
	BaseHandler
	media *mediaapp.Service
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(media *mediaapp.Service) *MediaHandler {
	return &MediaHandler{media: media}
}

// Upload godoc
// @Summary      Upload an image to object storage
// @Tags         media
// @Accept       multipart/form-data
// @Param        file   formData file   true  "Image"
// @Param        folder formData string false "Target folder, e.g. products"
// @Security     BearerAuth
// @Router       /media/upload [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile(UploadFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.HandleBindingError(c, err)
			return
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "A file is required in the \""+UploadFormField+"\" field")
		return
	}
	file, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	in := mediaapp.UploadInput{
		Folder:     c.PostForm("folder"),
		FileName:   fh.Filename,
		Size:       fh.Size,
		Body:       file,
		UploadedBy: currentUserPtr(c),
	}
	asset, err := h.media.Upload(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, asset)
}

// Presign godoc
// @Summary      Get a presigned URL for a direct browser upload
// @Tags         media
// @Security     BearerAuth
// @Router       /media/presign [post]
func (h *MediaHandler) Presign(c *gin.Context) {
	var req mediaapp.PresignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	presigned, err := h.media.PresignUpload(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, presigned)
}

// Confirm godoc
// @Summary      Record an object uploaded with a presigned URL
// @Tags         media
// @Security     BearerAuth
// @Router       /media/confirm [post]
func (h *MediaHandler) Confirm(c *gin.Context) {
	var req mediaapp.ConfirmUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}
	asset, err := h.media.ConfirmUpload(c.Request.Context(), req, currentUserPtr(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, asset)
}

// List godoc
// @Summary      List uploaded media
// @Tags         media
// @Security     BearerAuth
// @Router       /media [get]
func (h *MediaHandler) List(c *gin.Context) {
	var req mediaapp.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.media.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Delete godoc
// @Summary      Delete an object and its record
// @Tags         media
// @Security     BearerAuth
// @Router       /media/{id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.media.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
