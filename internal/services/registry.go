package services

import (
	"excos_backend/internal/email"
	"excos_backend/internal/storage"
)

// ServiceContainer holds every service of the application.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	ComplaintService    ComplaintService
	NotificationService NotificationService
	AnalyticsService    AnalyticsService
	UploadService       UploadService
	EmailSender         email.Sender
	Storage             storage.Storage
}
