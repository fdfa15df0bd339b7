package handlers

import (
	"io"
	"net/http"
	"strings"

	"excos_backend/internal/storage"
	"excos_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler serves stored files. It only matters for local storage;
// S3-backed deployments serve files straight from the bucket URL.
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, store storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     store,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup, sessionSecret string) {
	r.GET("/files/*path", h.Serve)
}

func (h *FileHandler) Serve(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" || strings.Contains(path, "..") {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid file path"))
		return
	}

	exists, err := h.storage.Exists(c.Request.Context(), path)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if !exists {
		apperrors.HandleError(c, apperrors.ErrNotFound(nil))
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), path)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	defer reader.Close()

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers are already sent; nothing to do but log via middleware.
		return
	}
}
