package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/internal/dto/response"

	"go.uber.org/zap"
)

const notificationListLimit = 50

type NotificationService interface {
	// Notify persists a notification and pushes it to the user's live
	// connections. Failures are logged and never returned.
	Notify(ctx context.Context, userID int64, typ entity.NotificationType, title, message string)

	List(ctx context.Context, userID int64) (*response.NotificationListResponse, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher Pusher
	log    *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, pusher Pusher, log *zap.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		pusher: pusher,
		log:    log.With(zap.String("service", "notification")),
	}
}

type pushMessage struct {
	Type string                        `json:"type"`
	Data response.NotificationResponse `json:"data"`
}

func (s *notificationService) Notify(ctx context.Context, userID int64, typ entity.NotificationType, title, message string) {
	n := &entity.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error("Failed to persist notification", zap.Error(err), zap.Int64("user_id", userID))
		return
	}

	if s.pusher == nil {
		return
	}

	payload, err := json.Marshal(pushMessage{Type: "notification", Data: response.NotificationToResponse(n)})
	if err != nil {
		s.log.Error("Failed to encode notification", zap.Error(err), zap.Int64("notification_id", n.ID))
		return
	}

	delivered := s.pusher.SendToUser(userID, payload)
	s.log.Debug("Notification pushed",
		zap.Int64("user_id", userID),
		zap.Int64("notification_id", n.ID),
		zap.Int("connections", delivered),
	)
}

func (s *notificationService) List(ctx context.Context, userID int64) (*response.NotificationListResponse, error) {
	notifications, err := s.repo.FindByUserID(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread notifications: %w", err)
	}

	resp := &response.NotificationListResponse{
		Notifications: make([]response.NotificationResponse, 0, len(notifications)),
		UnreadCount:   unread,
	}
	for _, n := range notifications {
		resp.Notifications = append(resp.Notifications, response.NotificationToResponse(n))
	}

	return resp, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID int64) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotificationNotFound, id)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return count, nil
}
