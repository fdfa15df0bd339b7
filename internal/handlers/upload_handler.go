package handlers

import (
	"net/http"

	"excos_backend/internal/middleware"
	"excos_backend/internal/services"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	*BaseHandler
	uploadService services.UploadService
}

func NewUploadHandler(base *BaseHandler, uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   base,
		uploadService: uploadService,
	}
}

func (h *UploadHandler) RegisterRoutes(r *gin.RouterGroup, sessionSecret string) {
	uploads := r.Group("/uploads")
	uploads.Use(middleware.AuthMiddleware(sessionSecret))
	{
		uploads.POST("", h.Upload)
	}
}

// Upload handles multipart uploads. The ?type= parameter selects between
// profile images and complaint evidence.
func (h *UploadHandler) Upload(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	uploadType := dto.UploadType(c.Query("type"))
	if uploadType == "" {
		apperrors.HandleError(c, apperrors.ErrInvalidUploadType)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing 'file' form field"))
		return
	}

	resp, err := h.uploadService.Upload(c.Request.Context(), claims.UserID, uploadType, file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
