package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"anoa.com/blogapp/internal/entity"
	notifRepo "anoa.com/blogapp/internal/modules/notification/repository"
	"anoa.com/blogapp/pkg/apperror"
	"anoa.com/blogapp/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultLimit = 20

type NotificationService interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
	GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID uint, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uint) error
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	// PurgeRead deletes read notifications older than olderThan.
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type notificationService struct {
	repo        notifRepo.NotificationRepository
	redisClient *redis.Client
}

func NewNotificationService(repo notifRepo.NotificationRepository, redisClient *redis.Client) NotificationService {
	return &notificationService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// Channel is the redis pub/sub channel carrying a user's notifications.
func Channel(userID uint) string {
	return fmt.Sprintf("user_notifications:%d", userID)
}

func (s *notificationService) CreateNotification(ctx context.Context, notification *entity.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.redisClient != nil {
		payload, err := json.Marshal(notification)
		if err == nil {
			err = s.redisClient.Publish(ctx, Channel(notification.UserID), payload).Err()
		}
		if err != nil {
			logger.Log.WithError(err).WithField("user_id", notification.UserID).Warn("failed to publish notification")
		}
	}

	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uint, limit, offset int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

// MarkAsRead only touches notifications addressed to userID.
func (s *notificationService) MarkAsRead(ctx context.Context, userID uint, id uuid.UUID) error {
	notification, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("Notification not found")
		}
		return err
	}
	if notification.UserID != userID {
		return apperror.NotFound("Notification not found")
	}
	return s.repo.MarkAsRead(ctx, id)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	removed, err := s.repo.DeleteReadBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Log.WithField("removed", removed).Info("purged read notifications")
	}
	return removed, nil
}
