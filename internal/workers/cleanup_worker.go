package workers

import (
	"context"
	"time"

	"excos_backend/internal/logger"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services"
)

const (
	// Read notifications are kept for 30 days before the sweep removes them.
	notificationRetention = 30 * 24 * time.Hour
	sweepInterval         = 6 * time.Hour
)

// CleanupWorker periodically removes old read notifications and expired
// password reset tokens.
type CleanupWorker struct {
	notificationService services.NotificationService
	resetRepo           repositories.PasswordResetTokenRepository
}

func NewCleanupWorker(notificationService services.NotificationService, resetRepo repositories.PasswordResetTokenRepository) *CleanupWorker {
	return &CleanupWorker{
		notificationService: notificationService,
		resetRepo:           resetRepo,
	}
}

// Start launches the sweep loop. It stops when the context is cancelled.
func (w *CleanupWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *CleanupWorker) run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *CleanupWorker) sweep() {
	if _, err := w.notificationService.CleanOldNotifications(notificationRetention); err != nil {
		logger.WorkerLog("cleanup", "clean old notifications", err)
	}

	if deleted, err := w.resetRepo.DeleteExpired(); err != nil {
		logger.WorkerLog("cleanup", "clean expired reset tokens", err)
	} else if deleted > 0 {
		logger.Info("removed expired reset tokens", "worker", "cleanup", "deleted", deleted)
	}
}
