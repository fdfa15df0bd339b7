package handlers

import (
	"net/http"

	"excos_backend/internal/middleware"
	"excos_backend/internal/services"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ComplaintHandler struct {
	*BaseHandler
	complaintService services.ComplaintService
}

func NewComplaintHandler(base *BaseHandler, complaintService services.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{
		BaseHandler:      base,
		complaintService: complaintService,
	}
}

func (h *ComplaintHandler) RegisterRoutes(r *gin.RouterGroup, sessionSecret string) {
	// Submission and tracking work with or without a session; an anonymous
	// submission creates the student record from the contact fields.
	public := r.Group("/complaints")
	public.Use(middleware.OptionalAuthMiddleware(sessionSecret))
	{
		public.POST("", h.Create)
		public.GET("/track/:reference", h.TrackByReference)
	}

	protected := r.Group("/complaints")
	protected.Use(middleware.AuthMiddleware(sessionSecret))
	{
		protected.GET("", h.List)
		protected.GET("/:id", h.GetByID)
	}

	admin := r.Group("/complaints")
	admin.Use(middleware.AuthMiddleware(sessionSecret), middleware.RequireAdmin())
	{
		admin.PATCH("/:id/status", h.UpdateStatus)
		admin.POST("/:id/responses", h.Respond)
	}
}

func (h *ComplaintHandler) Create(c *gin.Context) {
	var req dto.CreateComplaintRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	claims := middleware.GetSessionClaims(c)

	resp, err := h.complaintService.Create(c.Request.Context(), claims, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *ComplaintHandler) List(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	var query dto.ComplaintListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.complaintService.List(c.Request.Context(), claims, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ComplaintHandler) GetByID(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	resp, err := h.complaintService.GetByID(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ComplaintHandler) TrackByReference(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing reference number"))
		return
	}

	resp, err := h.complaintService.TrackByReference(c.Request.Context(), reference)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.complaintService.UpdateStatus(c.Request.Context(), claims, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ComplaintHandler) Respond(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	var req dto.RespondRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.complaintService.Respond(c.Request.Context(), claims, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
