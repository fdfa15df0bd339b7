package routes

import (
	"excos_backend/internal/handlers"
	"excos_backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all HTTP routes.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers, sessionSecret string) {
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.Auth.RegisterRoutes(api, sessionSecret)
		appHandlers.User.RegisterRoutes(api, sessionSecret)
		appHandlers.Complaint.RegisterRoutes(api, sessionSecret)
		appHandlers.Notification.RegisterRoutes(api, sessionSecret)
		appHandlers.Analytics.RegisterRoutes(api, sessionSecret)
		appHandlers.Upload.RegisterRoutes(api, sessionSecret)
		appHandlers.File.RegisterRoutes(api, sessionSecret)
	}

	ginRouter.GET("/health", appHandlers.Health.Check)

	ginRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("routes registered", "prefix", "/api/v1")
}
