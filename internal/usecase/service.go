package usecase

import (
	"context"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/internal/events"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

// Pusher delivers a payload to a user's live connections.
type Pusher interface {
	SendToUser(userID int64, payload []byte) int
}

type Service struct {
	Auth         AuthService
	User         UserService
	Trip         TripService
	Booking      BookingService
	Rating       RatingService
	Notification NotificationService
}

func NewService(
	repo *repository.Repository,
	tokens *utils.TokenManager,
	publisher events.Publisher,
	pusher Pusher,
	log *zap.Logger,
) *Service {
	notification := NewNotificationService(repo.Notification, pusher, log)

	return &Service{
		Auth:         NewAuthService(repo.User, tokens, log),
		User:         NewUserService(repo.User, publisher, log),
		Trip:         NewTripService(repo, notification, publisher, log),
		Booking:      NewBookingService(repo, notification, publisher, log),
		Rating:       NewRatingService(repo, notification, publisher, log),
		Notification: notification,
	}
}

// publish sends a domain event. Broker failures never fail the caller.
func publish(ctx context.Context, p events.Publisher, log *zap.Logger, routingKey string, data any) {
	if err := p.Publish(ctx, routingKey, data); err != nil {
		log.Warn("Failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   int64
	Role entity.UserRole
}

func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

func (a Actor) IsStaff() bool { return a.Role.IsStaff() }
