package handler

import (
	"errors"
	"net/http"

	"mangareader/internal/apperr"
	"mangareader/internal/blobstore"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// BlobHandler serves stored cover and page images by reference.
type BlobHandler struct {
	blobs blobstore.Store
}

func NewBlobHandler(blobs blobstore.Store) *BlobHandler {
	return &BlobHandler{blobs: blobs}
}

func (h *BlobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:bucket/:key", h.Get)
}

// Get GET /blobs/:bucket/:key
func (h *BlobHandler) Get(c *gin.Context) {
	data, err := h.blobs.Get(c.Request.Context(), blobstore.Ref(c.Param("bucket"), c.Param("key")))
	switch {
	case errors.Is(err, blobstore.ErrInvalidRef):
		badRequest(c, "invalid blob reference")
		return
	case errors.Is(err, blobstore.ErrNotFound):
		respondError(c, apperr.NotFound("image"))
		return
	case err != nil:
		respondError(c, apperr.Storage(err))
		return
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
