package adaptor

import (
	"ecoride/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Trip         *TripHandler
	Booking      *BookingHandler
	Rating       *RatingHandler
	Notification *NotificationHandler
	WS           *WSHandler
}

func NewHandler(service *usecase.Service, hub ConnServer, log *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(service.Auth, log),
		User:         NewUserHandler(service.User, log),
		Trip:         NewTripHandler(service.Trip, log),
		Booking:      NewBookingHandler(service.Booking, log),
		Rating:       NewRatingHandler(service.Rating, log),
		Notification: NewNotificationHandler(service.Notification, log),
		WS:           NewWSHandler(hub, log),
	}
}
