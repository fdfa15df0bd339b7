package handlers

import (
	"excos_backend/internal/services"
	"excos_backend/internal/validator"
)

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Complaint    *ComplaintHandler
	Notification *NotificationHandler
	Analytics    *AnalyticsHandler
	Upload       *UploadHandler
	File         *FileHandler
	Health       *HealthHandler
}

// InitializeHandlers wires the handlers to their services.
func InitializeHandlers(sc *services.ServiceContainer, v *validator.Validator, sessionTTLHours int) *AppHandlers {
	base := NewBaseHandler(v)

	return &AppHandlers{
		Auth:         NewAuthHandler(base, sc.AuthService, sessionTTLHours),
		User:         NewUserHandler(base, sc.UserService),
		Complaint:    NewComplaintHandler(base, sc.ComplaintService),
		Notification: NewNotificationHandler(base, sc.NotificationService),
		Analytics:    NewAnalyticsHandler(base, sc.AnalyticsService),
		Upload:       NewUploadHandler(base, sc.UploadService),
		File:         NewFileHandler(base, sc.Storage),
		Health:       NewHealthHandler(base),
	}
}
