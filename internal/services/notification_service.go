package services

import (
	"context"
	"errors"
	"time"

	"excos_backend/internal/logger"
	"excos_backend/internal/repositories"
	"excos_backend/internal/services/dto"
	"excos_backend/pkg/apperrors"
)

type NotificationService interface {
	GetUserNotifications(ctx context.Context, userID string, query *dto.NotificationListQuery) (*dto.NotificationListResponse, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, notificationID string) error
	CleanOldNotifications(olderThan time.Duration) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, query *dto.NotificationListQuery) (*dto.NotificationListResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, total, err := s.notificationRepo.FindByUser(userID, query.UnreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	unread, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(notifications)),
		Total:         total,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
	for i := range notifications {
		resp.Notifications = append(resp.Notifications, dto.NewNotificationResponse(&notifications[i]))
	}

	return resp, nil
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	err := s.notificationRepo.MarkRead(notificationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.notificationRepo.MarkAllRead(userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	err := s.notificationRepo.Delete(notificationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// CleanOldNotifications removes read notifications older than the window.
// The cleanup worker calls this on a schedule.
func (s *notificationService) CleanOldNotifications(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	deleted, err := s.notificationRepo.DeleteReadOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logger.Info("cleaned old notifications", "deleted", deleted)
	}
	return deleted, nil
}
