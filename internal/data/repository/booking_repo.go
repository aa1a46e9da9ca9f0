package repository

import (
	"context"
	"errors"
	"fmt"

	"ecoride/internal/data/entity"
	"ecoride/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Booking, error)
	FindByPassengerID(ctx context.Context, passengerID int64) ([]*entity.BookingWithTrip, error)
	FindByTripID(ctx context.Context, tripID int64) ([]*entity.Booking, error)
	UpdateStatus(ctx context.Context, bookingID int64, status entity.BookingStatus) error

	// Seat and credit accounting. Each runs in a single transaction.
	CreateWithSeatReservation(ctx context.Context, booking *entity.Booking) error
	CancelWithSeatRelease(ctx context.Context, bookingID int64) (*entity.Booking, error)
	SettleWithCredits(ctx context.Context, bookingID, driverID int64) (*entity.Booking, error)
	CancelPendingForTrip(ctx context.Context, tripID int64) (int64, error)
}

const bookingColumns = `b.id, b.trip_id, b.passenger_id, b.seats_booked, b.total_price, b.status,
	b.message, b.created_at, b.updated_at`

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func bookingScanTargets(booking *entity.Booking) []any {
	return []any{
		&booking.ID,
		&booking.TripID,
		&booking.PassengerID,
		&booking.SeatsBooked,
		&booking.TotalPrice,
		&booking.Status,
		&booking.Message,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	if err := row.Scan(bookingScanTargets(&booking)...); err != nil {
		return nil, err
	}
	return &booking, nil
}

// CreateWithSeatReservation decrements the trip's available seats and inserts
// the booking atomically. The decrement only applies while the trip is active
// and still has enough seats, so concurrent callers can never oversell.
func (r *bookingRepository) CreateWithSeatReservation(ctx context.Context, booking *entity.Booking) error {
	reserve := `
		UPDATE trips
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1 AND is_active AND available_seats >= $2
	`
	insert := `
		INSERT INTO bookings (trip_id, passenger_id, seats_booked, total_price, status, message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, reserve, booking.TripID, booking.SeatsBooked)
		if err != nil {
			return fmt.Errorf("reserve seats: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrSeatsUnavailable
		}

		return tx.QueryRow(ctx, insert,
			booking.TripID,
			booking.PassengerID,
			booking.SeatsBooked,
			booking.TotalPrice,
			booking.Status,
			booking.Message,
		).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	})
	if errors.Is(err, ErrSeatsUnavailable) {
		return err
	}
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.Int64("trip_id", booking.TripID),
			zap.Int64("passenger_id", booking.PassengerID),
		)
		return fmt.Errorf("create booking on trip %d: %w", booking.TripID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id int64) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID", zap.Error(err), zap.Int64("booking_id", id))
		return nil, fmt.Errorf("find booking by ID %d: %w", id, err)
	}
	return booking, nil
}

func (r *bookingRepository) FindByPassengerID(ctx context.Context, passengerID int64) ([]*entity.BookingWithTrip, error) {
	query := `
		SELECT ` + bookingColumns + `, ` + tripColumns + `, ` + driverColumns + `
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		JOIN users u ON u.id = t.driver_id
		WHERE b.passenger_id = $1
		ORDER BY b.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, passengerID)
	if err != nil {
		r.log.Error("Failed to find bookings by passenger",
			zap.Error(err),
			zap.Int64("passenger_id", passengerID),
		)
		return nil, fmt.Errorf("find bookings by passenger %d: %w", passengerID, err)
	}
	defer rows.Close()

	var bookings []*entity.BookingWithTrip
	for rows.Next() {
		var bwt entity.BookingWithTrip
		targets := bookingScanTargets(&bwt.Booking)
		targets = append(targets, tripScanTargets(&bwt.Trip.Trip)...)
		targets = append(targets, driverScanTargets(&bwt.Trip.Driver)...)
		if err := rows.Scan(targets...); err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, &bwt)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) FindByTripID(ctx context.Context, tripID int64) ([]*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.trip_id = $1 ORDER BY b.created_at`

	rows, err := r.db.Query(ctx, query, tripID)
	if err != nil {
		r.log.Error("Failed to find bookings by trip", zap.Error(err), zap.Int64("trip_id", tripID))
		return nil, fmt.Errorf("find bookings by trip %d: %w", tripID, err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, bookingID int64, status entity.BookingStatus) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, bookingID, string(status))
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.Int64("booking_id", bookingID),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking %d status: %w", bookingID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %d not found", bookingID)
	}
	return nil
}

// CancelWithSeatRelease cancels a pending booking and gives its seats back to
// the trip, never raising available seats above the trip's total.
func (r *bookingRepository) CancelWithSeatRelease(ctx context.Context, bookingID int64) (*entity.Booking, error) {
	cancel := `
		UPDATE bookings b
		SET status = 'cancelled', updated_at = NOW()
		WHERE b.id = $1 AND b.status = 'pending'
		RETURNING ` + bookingColumns
	release := `
		UPDATE trips
		SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = NOW()
		WHERE id = $1
	`

	var booking *entity.Booking
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		booking, err = scanBooking(tx.QueryRow(ctx, cancel, bookingID))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStateChanged
		}
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		if _, err := tx.Exec(ctx, release, booking.TripID, booking.SeatsBooked); err != nil {
			return fmt.Errorf("release seats: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrStateChanged) {
		return nil, err
	}
	if err != nil {
		r.log.Error("Failed to cancel booking", zap.Error(err), zap.Int64("booking_id", bookingID))
		return nil, fmt.Errorf("cancel booking %d: %w", bookingID, err)
	}

	return booking, nil
}

// SettleWithCredits confirms a pending booking, moving its total price from
// the passenger's balance to the driver's.
func (r *bookingRepository) SettleWithCredits(ctx context.Context, bookingID, driverID int64) (*entity.Booking, error) {
	confirm := `
		UPDATE bookings b
		SET status = 'confirmed', updated_at = NOW()
		WHERE b.id = $1 AND b.status = 'pending'
		  AND EXISTS (
			SELECT 1 FROM trips t
			WHERE t.id = b.trip_id AND t.is_active AND t.status <> 'cancelled'
		  )
		RETURNING ` + bookingColumns
	debit := `
		UPDATE users
		SET credits = credits - $2, updated_at = NOW()
		WHERE id = $1 AND credits >= $2
	`
	credit := `UPDATE users SET credits = credits + $2, updated_at = NOW() WHERE id = $1`

	var booking *entity.Booking
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		booking, err = scanBooking(tx.QueryRow(ctx, confirm, bookingID))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStateChanged
		}
		if err != nil {
			return fmt.Errorf("confirm booking: %w", err)
		}

		tag, err := tx.Exec(ctx, debit, booking.PassengerID, booking.TotalPrice)
		if err != nil {
			return fmt.Errorf("debit passenger: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientCredits
		}

		if _, err := tx.Exec(ctx, credit, driverID, booking.TotalPrice); err != nil {
			return fmt.Errorf("credit driver: %w", err)
		}
		return nil
	})
	if errors.Is(err, ErrStateChanged) || errors.Is(err, ErrInsufficientCredits) {
		return nil, err
	}
	if err != nil {
		r.log.Error("Failed to settle booking", zap.Error(err), zap.Int64("booking_id", bookingID))
		return nil, fmt.Errorf("settle booking %d: %w", bookingID, err)
	}

	return booking, nil
}

// CancelPendingForTrip cancels every unpaid booking on a trip and reports how
// many rows changed.
func (r *bookingRepository) CancelPendingForTrip(ctx context.Context, tripID int64) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE trip_id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, tripID)
	if err != nil {
		r.log.Error("Failed to cancel pending bookings", zap.Error(err), zap.Int64("trip_id", tripID))
		return 0, fmt.Errorf("cancel pending bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}
