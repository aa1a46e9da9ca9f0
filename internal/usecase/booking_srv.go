package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/internal/dto/request"
	"ecoride/internal/dto/response"
	"ecoride/internal/events"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

type BookingService interface {
	CreateBooking(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, actor Actor, bookingID int64) (*response.BookingResponse, error)
	ListPassengerBookings(ctx context.Context, actor Actor, passengerID int64) ([]response.BookingResponse, error)
	ListTripBookings(ctx context.Context, actor Actor, tripID int64) ([]response.BookingResponse, error)

	CancelBooking(ctx context.Context, actor Actor, bookingID int64) (*response.BookingResponse, error)
	PayBooking(ctx context.Context, actor Actor, bookingID int64) (*response.BookingResponse, error)
}

type bookingService struct {
	repo      *repository.Repository
	notifier  NotificationService
	publisher events.Publisher
	log       *zap.Logger
}

func NewBookingService(repo *repository.Repository, notifier NotificationService, publisher events.Publisher, log *zap.Logger) BookingService {
	return &bookingService{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		log:       log.With(zap.String("service", "booking")),
	}
}

func bookingEvent(booking *entity.Booking) map[string]any {
	return map[string]any{
		"booking_id":   booking.ID,
		"trip_id":      booking.TripID,
		"passenger_id": booking.PassengerID,
		"seats_booked": booking.SeatsBooked,
		"total_price":  booking.TotalPrice,
		"status":       booking.Status,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor Actor, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	// 1. Validate request
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	if req.PassengerID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: cannot book on behalf of another user", ErrForbidden)
	}

	// 2. Trip must exist and be open
	trip, err := s.repo.Trip.FindByID(ctx, req.TripID)
	if err != nil {
		return nil, fmt.Errorf("find trip: %w", err)
	}
	if trip == nil || !trip.IsActive {
		return nil, fmt.Errorf("%w: %d", ErrTripNotFound, req.TripID)
	}
	if trip.DriverID == req.PassengerID {
		return nil, fmt.Errorf("%w: drivers cannot book their own trip", ErrForbidden)
	}

	// 3. Early seat check; the store re-checks atomically
	if req.SeatsBooked > trip.AvailableSeats {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientSeats, req.SeatsBooked, trip.AvailableSeats)
	}

	// 4. Price
	totalPrice := utils.Round2(trip.PricePerSeat * float64(req.SeatsBooked))
	if req.TotalPrice != nil && math.Abs(*req.TotalPrice-totalPrice) > 0.005 {
		return nil, validationError(map[string]string{
			"TotalPrice": fmt.Sprintf("Must equal %.2f", totalPrice),
		})
	}

	booking := &entity.Booking{
		TripID:      trip.ID,
		PassengerID: req.PassengerID,
		SeatsBooked: req.SeatsBooked,
		TotalPrice:  totalPrice,
		Status:      entity.BookingStatusPending,
		Message:     req.Message,
	}

	// 5. Reserve seats and insert booking in one transaction
	if err := s.repo.Booking.CreateWithSeatReservation(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSeatsUnavailable) {
			s.log.Warn("Seats taken concurrently",
				zap.Int64("trip_id", trip.ID),
				zap.Int("requested", req.SeatsBooked),
			)
			return nil, fmt.Errorf("%w: requested %d", ErrInsufficientSeats, req.SeatsBooked)
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("trip_id", booking.TripID),
		zap.Int64("passenger_id", booking.PassengerID),
		zap.Int("seats", booking.SeatsBooked),
	)

	publish(ctx, s.publisher, s.log, events.BookingCreated, bookingEvent(booking))
	s.notifier.Notify(ctx, trip.DriverID, entity.NotificationBooking, "New booking",
		fmt.Sprintf("%d seat(s) booked on your trip from %s to %s.", booking.SeatsBooked, trip.Departure, trip.Destination))

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) findBooking(ctx context.Context, id int64) (*entity.Booking, error) {
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: %d", ErrBookingNotFound, id)
	}
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor Actor, bookingID int64) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.PassengerID != actor.ID && !actor.IsStaff() {
		trip, err := s.repo.Trip.FindByID(ctx, booking.TripID)
		if err != nil {
			return nil, fmt.Errorf("find trip: %w", err)
		}
		if trip == nil || trip.DriverID != actor.ID {
			return nil, ErrForbidden
		}
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

func (s *bookingService) ListPassengerBookings(ctx context.Context, actor Actor, passengerID int64) ([]response.BookingResponse, error) {
	if passengerID != actor.ID && !actor.IsStaff() {
		return nil, ErrForbidden
	}

	bookings, err := s.repo.Booking.FindByPassengerID(ctx, passengerID)
	if err != nil {
		return nil, fmt.Errorf("list passenger bookings: %w", err)
	}

	resp := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, response.BookingWithTripToResponse(b))
	}
	return resp, nil
}

func (s *bookingService) ListTripBookings(ctx context.Context, actor Actor, tripID int64) ([]response.BookingResponse, error) {
	trip, err := s.repo.Trip.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("find trip: %w", err)
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: %d", ErrTripNotFound, tripID)
	}
	if trip.DriverID != actor.ID && !actor.IsStaff() {
		return nil, ErrForbidden
	}

	bookings, err := s.repo.Booking.FindByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list trip bookings: %w", err)
	}

	resp := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, response.BookingToResponse(b))
	}
	return resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, actor Actor, bookingID int64) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PassengerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
	}

	cancelled, err := s.repo.Booking.CancelWithSeatRelease(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, fmt.Errorf("%w: booking is no longer pending", ErrInvalidState)
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	s.log.Info("Booking cancelled",
		zap.Int64("booking_id", cancelled.ID),
		zap.Int64("trip_id", cancelled.TripID),
		zap.Int("seats_released", cancelled.SeatsBooked),
	)

	publish(ctx, s.publisher, s.log, events.BookingCancelled, bookingEvent(cancelled))
	if trip, err := s.repo.Trip.FindByID(ctx, cancelled.TripID); err == nil && trip != nil {
		s.notifier.Notify(ctx, trip.DriverID, entity.NotificationBooking, "Booking cancelled",
			fmt.Sprintf("A passenger released %d seat(s) on your trip to %s.", cancelled.SeatsBooked, trip.Destination))
	}

	resp := response.BookingToResponse(cancelled)
	return &resp, nil
}

func (s *bookingService) PayBooking(ctx context.Context, actor Actor, bookingID int64) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.PassengerID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidState, booking.Status)
	}

	trip, err := s.repo.Trip.FindByID(ctx, booking.TripID)
	if err != nil {
		return nil, fmt.Errorf("find trip: %w", err)
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: %d", ErrTripNotFound, booking.TripID)
	}
	if trip.Status == entity.TripStatusCancelled || !trip.IsActive {
		return nil, fmt.Errorf("%w: trip is no longer open", ErrInvalidState)
	}

	paid, err := s.repo.Booking.SettleWithCredits(ctx, bookingID, trip.DriverID)
	switch {
	case errors.Is(err, repository.ErrInsufficientCredits):
		s.log.Warn("Payment rejected, not enough credits",
			zap.Int64("booking_id", bookingID),
			zap.Float64("amount", booking.TotalPrice),
		)
		return nil, fmt.Errorf("%w: %.2f required", ErrInsufficientCredits, booking.TotalPrice)
	case errors.Is(err, repository.ErrStateChanged):
		return nil, fmt.Errorf("%w: booking is no longer pending", ErrInvalidState)
	case err != nil:
		return nil, fmt.Errorf("pay booking: %w", err)
	}

	s.log.Info("Booking paid",
		zap.Int64("booking_id", paid.ID),
		zap.Float64("amount", paid.TotalPrice),
	)

	publish(ctx, s.publisher, s.log, events.BookingPaid, bookingEvent(paid))
	s.notifier.Notify(ctx, trip.DriverID, entity.NotificationPayment, "Payment received",
		fmt.Sprintf("You received %.2f credits for a booking on your trip to %s.", paid.TotalPrice, trip.Destination))
	s.notifier.Notify(ctx, paid.PassengerID, entity.NotificationPayment, "Booking confirmed",
		fmt.Sprintf("Your booking to %s is confirmed. %.2f credits were debited.", trip.Destination, paid.TotalPrice))

	resp := response.BookingToResponse(paid)
	return &resp, nil
}
