package handlers

import (
	"net/http"

	"excos_backend/internal/middleware"
	"excos_backend/internal/models"
	"excos_backend/internal/services"
	"excos_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, sessionSecret string) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware(sessionSecret))
	{
		users.GET("/profile", h.GetProfile)
		users.PUT("/profile", h.UpdateProfile)
	}

	admin := r.Group("/users")
	admin.Use(middleware.AuthMiddleware(sessionSecret), middleware.RequireAdmin())
	{
		admin.GET("", h.List)
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(claims.UserID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// List pages through accounts by role (defaults to students).
func (h *UserHandler) List(c *gin.Context) {
	if _, ok := h.GetSession(c); !ok {
		return
	}

	role := models.UserRole(c.DefaultQuery("role", string(models.UserRoleStudent)))
	page, pageSize := ParsePagination(c)

	resp, err := h.userService.ListByRole(role, page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims, ok := h.GetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
