package handlers

import (
	"net/http"

	"excos_backend/internal/middleware"
	"excos_backend/internal/services"
	"excos_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	*BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(base *BaseHandler, analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      base,
		analyticsService: analyticsService,
	}
}

func (h *AnalyticsHandler) RegisterRoutes(r *gin.RouterGroup, sessionSecret string) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(sessionSecret), middleware.RequireAdmin())
	{
		admin.GET("/analytics", h.GetOverview)
	}
}

func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	var query dto.AnalyticsQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	resp, err := h.analyticsService.GetOverview(c.Request.Context(), claims, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
