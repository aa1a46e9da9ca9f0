package repository

import (
	"context"
	"errors"

	"ecoride/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrSeatsUnavailable is returned when a conditional seat decrement matched no row.
	ErrSeatsUnavailable = errors.New("not enough available seats")
	// ErrInsufficientCredits is returned when a debit would take a balance below zero.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrStateChanged is returned when a row no longer has the status a write expected.
	ErrStateChanged = errors.New("record state changed")
)

type Repository struct {
	User         UserRepository
	Trip         TripRepository
	Booking      BookingRepository
	Rating       RatingRepository
	Notification NotificationRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Trip:         NewTripRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		Rating:       NewRatingRepository(db, log),
		Notification: NewNotificationRepository(db, log),
	}
}

// withTx runs fn inside a transaction, committing only when fn returns nil.
func withTx(ctx context.Context, db database.PgxIface, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
