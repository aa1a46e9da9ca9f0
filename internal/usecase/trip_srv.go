package usecase

import (
	"context"
	"fmt"
	"time"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/internal/dto/request"
	"ecoride/internal/dto/response"
	"ecoride/internal/events"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

const (
	activeTripsLimit = 10
	// staleTripAge is how long after its arrival time a never-started trip stays listed.
	staleTripAge = 24 * time.Hour
)

type TripService interface {
	// Public
	GetTrip(ctx context.Context, id int64) (*response.TripResponse, error)
	ListActiveTrips(ctx context.Context) ([]response.TripResponse, error)
	ListDriverTrips(ctx context.Context, driverID int64) ([]response.TripResponse, error)
	SearchTrips(ctx context.Context, req *request.SearchTripsRequest) ([]response.TripResponse, error)

	// Driver
	CreateTrip(ctx context.Context, actor Actor, req *request.CreateTripRequest) (*response.TripResponse, error)
	UpdateTrip(ctx context.Context, tripID, driverID int64, req *request.UpdateTripRequest) (*response.TripResponse, error)
	CancelTrip(ctx context.Context, tripID, driverID int64) (*response.TripResponse, error)
	StartTrip(ctx context.Context, tripID, driverID int64) (*response.TripResponse, error)
	CompleteTrip(ctx context.Context, tripID, driverID int64) (*response.TripResponse, error)

	// Housekeeping
	ExpireStaleTrips(ctx context.Context) (int64, error)
}

type tripService struct {
	repo      *repository.Repository
	notifier  NotificationService
	publisher events.Publisher
	now       func() time.Time
	log       *zap.Logger
}

func NewTripService(repo *repository.Repository, notifier NotificationService, publisher events.Publisher, log *zap.Logger) TripService {
	return &tripService{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
		log:       log.With(zap.String("service", "trip")),
	}
}

func tripEvent(trip *entity.Trip) map[string]any {
	return map[string]any{
		"trip_id":         trip.ID,
		"driver_id":       trip.DriverID,
		"status":          trip.Status,
		"available_seats": trip.AvailableSeats,
	}
}

func (s *tripService) GetTrip(ctx context.Context, id int64) (*response.TripResponse, error) {
	trip, err := s.repo.Trip.FindWithDriver(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: %d", ErrTripNotFound, id)
	}

	resp := response.TripWithDriverToResponse(trip)
	return &resp, nil
}

func (s *tripService) ListActiveTrips(ctx context.Context) ([]response.TripResponse, error) {
	trips, err := s.repo.Trip.FindActive(ctx, activeTripsLimit)
	if err != nil {
		return nil, fmt.Errorf("list active trips: %w", err)
	}
	return tripsWithDriverToResponse(trips), nil
}

func (s *tripService) ListDriverTrips(ctx context.Context, driverID int64) ([]response.TripResponse, error) {
	trips, err := s.repo.Trip.FindByDriverID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("list driver trips: %w", err)
	}

	resp := make([]response.TripResponse, 0, len(trips))
	for _, trip := range trips {
		resp = append(resp, response.TripToResponse(trip))
	}
	return resp, nil
}

func (s *tripService) SearchTrips(ctx context.Context, req *request.SearchTripsRequest) ([]response.TripResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Search trips validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	trips, err := s.repo.Trip.Search(ctx, req.Departure, req.Destination, req.Date)
	if err != nil {
		return nil, fmt.Errorf("search trips: %w", err)
	}

	s.log.Debug("Trips searched",
		zap.String("departure", req.Departure),
		zap.String("destination", req.Destination),
		zap.Int("results", len(trips)),
	)

	return tripsWithDriverToResponse(trips), nil
}

func tripsWithDriverToResponse(trips []*entity.TripWithDriver) []response.TripResponse {
	resp := make([]response.TripResponse, 0, len(trips))
	for _, trip := range trips {
		resp = append(resp, response.TripWithDriverToResponse(trip))
	}
	return resp
}

func (s *tripService) CreateTrip(ctx context.Context, actor Actor, req *request.CreateTripRequest) (*response.TripResponse, error) {
	if actor.Role != entity.RoleDriver && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only drivers can publish trips", ErrForbidden)
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create trip validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	trip := &entity.Trip{
		DriverID:       actor.ID,
		Departure:      req.Departure,
		Destination:    req.Destination,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		AvailableSeats: req.AvailableSeats,
		TotalSeats:     req.TotalSeats,
		PricePerSeat:   utils.Round2(req.PricePerSeat),
		Description:    req.Description,
		Status:         entity.TripStatusPending,
		IsActive:       true,
	}

	if err := s.repo.Trip.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	s.log.Info("Trip published",
		zap.Int64("trip_id", trip.ID),
		zap.Int64("driver_id", trip.DriverID),
		zap.Int("seats", trip.TotalSeats),
	)
	publish(ctx, s.publisher, s.log, events.TripCreated, tripEvent(trip))

	resp := response.TripToResponse(trip)
	return &resp, nil
}

// ownedTrip loads a trip and checks it belongs to driverID. Both failures
// produce the same error.
func (s *tripService) ownedTrip(ctx context.Context, tripID, driverID int64) (*entity.Trip, error) {
	trip, err := s.repo.Trip.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("find trip: %w", err)
	}
	if trip == nil || trip.DriverID != driverID {
		return nil, fmt.Errorf("%w: %d", ErrTripNotFoundOrUnauthorized, tripID)
	}
	return trip, nil
}

func (s *tripService) UpdateTrip(ctx context.Context, tripID, driverID int64, req *request.UpdateTripRequest) (*response.TripResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	trip, err := s.ownedTrip(ctx, tripID, driverID)
	if err != nil {
		return nil, err
	}
	if trip.Status != entity.TripStatusPending {
		return nil, fmt.Errorf("%w: trip is %s", ErrInvalidState, trip.Status)
	}

	if req.DepartureTime != nil {
		trip.DepartureTime = *req.DepartureTime
	}
	if req.ArrivalTime != nil {
		trip.ArrivalTime = *req.ArrivalTime
	}
	if req.PricePerSeat != nil {
		trip.PricePerSeat = utils.Round2(*req.PricePerSeat)
	}
	if req.Description != nil {
		trip.Description = req.Description
	}

	if !trip.ArrivalTime.After(trip.DepartureTime) {
		return nil, validationError(map[string]string{"ArrivalTime": "Must be after DepartureTime"})
	}

	if err := s.repo.Trip.Update(ctx, trip); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}

	s.log.Info("Trip updated", zap.Int64("trip_id", trip.ID))
	publish(ctx, s.publisher, s.log, events.TripUpdated, tripEvent(trip))
	s.notifyPassengers(ctx, trip.ID, "Trip updated",
		fmt.Sprintf("Your trip from %s to %s has been updated by the driver.", trip.Departure, trip.Destination))

	resp := response.TripToResponse(trip)
	return &resp, nil
}

func (s *tripService) CancelTrip(ctx context.Context, tripID, driverID int64) (*response.TripResponse, error) {
	trip, err := s.ownedTrip(ctx, tripID, driverID)
	if err != nil {
		return nil, err
	}
	if trip.Status == entity.TripStatusCompleted {
		return nil, fmt.Errorf("%w: trip already completed", ErrInvalidState)
	}

	trip.Status = entity.TripStatusCancelled
	trip.IsActive = false
	if err := s.repo.Trip.Update(ctx, trip); err != nil {
		return nil, fmt.Errorf("cancel trip: %w", err)
	}

	s.log.Info("Trip cancelled", zap.Int64("trip_id", trip.ID))
	publish(ctx, s.publisher, s.log, events.TripCancelled, tripEvent(trip))
	s.notifyPassengers(ctx, trip.ID, "Trip cancelled",
		fmt.Sprintf("Your trip from %s to %s has been cancelled.", trip.Departure, trip.Destination))

	// Unpaid bookings die with the trip so they can no longer be settled.
	if n, err := s.repo.Booking.CancelPendingForTrip(ctx, trip.ID); err != nil {
		s.log.Error("Failed to cancel pending bookings", zap.Error(err), zap.Int64("trip_id", trip.ID))
	} else if n > 0 {
		s.log.Info("Pending bookings cancelled", zap.Int64("trip_id", trip.ID), zap.Int64("count", n))
	}

	resp := response.TripToResponse(trip)
	return &resp, nil
}

func (s *tripService) StartTrip(ctx context.Context, tripID, driverID int64) (*response.TripResponse, error) {
	return s.transition(ctx, tripID, driverID, entity.TripStatusStarted)
}

func (s *tripService) CompleteTrip(ctx context.Context, tripID, driverID int64) (*response.TripResponse, error) {
	return s.transition(ctx, tripID, driverID, entity.TripStatusCompleted)
}

// transition applies the status without checking the current one; only
// ownership gates it.
func (s *tripService) transition(ctx context.Context, tripID, driverID int64, status entity.TripStatus) (*response.TripResponse, error) {
	trip, err := s.repo.Trip.Transition(ctx, tripID, driverID, status, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s trip: %w", status, err)
	}
	if trip == nil {
		s.log.Warn("Trip transition rejected",
			zap.Int64("trip_id", tripID),
			zap.Int64("driver_id", driverID),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("%w: %d", ErrTripNotFoundOrUnauthorized, tripID)
	}

	s.log.Info("Trip status changed", zap.Int64("trip_id", trip.ID), zap.String("status", string(status)))

	routingKey, title, message := events.TripStarted, "Trip started",
		fmt.Sprintf("Your trip from %s to %s has started.", trip.Departure, trip.Destination)
	if status == entity.TripStatusCompleted {
		routingKey, title, message = events.TripCompleted, "Trip completed",
			fmt.Sprintf("Your trip to %s is complete. Don't forget to rate your driver.", trip.Destination)
	}
	publish(ctx, s.publisher, s.log, routingKey, tripEvent(trip))
	s.notifyPassengers(ctx, trip.ID, title, message)

	resp := response.TripToResponse(trip)
	return &resp, nil
}

// notifyPassengers notifies each passenger holding a non-cancelled booking once.
func (s *tripService) notifyPassengers(ctx context.Context, tripID int64, title, message string) {
	bookings, err := s.repo.Booking.FindByTripID(ctx, tripID)
	if err != nil {
		s.log.Error("Failed to load trip passengers", zap.Error(err), zap.Int64("trip_id", tripID))
		return
	}

	seen := make(map[int64]struct{}, len(bookings))
	for _, b := range bookings {
		if b.Status == entity.BookingStatusCancelled {
			continue
		}
		if _, ok := seen[b.PassengerID]; ok {
			continue
		}
		seen[b.PassengerID] = struct{}{}
		s.notifier.Notify(ctx, b.PassengerID, entity.NotificationTrip, title, message)
	}
}

func (s *tripService) ExpireStaleTrips(ctx context.Context) (int64, error) {
	count, err := s.repo.Trip.DeactivateStale(ctx, s.now().Add(-staleTripAge))
	if err != nil {
		return 0, fmt.Errorf("expire stale trips: %w", err)
	}

	if count > 0 {
		s.log.Info("Stale trips deactivated", zap.Int64("count", count))
		publish(ctx, s.publisher, s.log, events.TripsExpired, map[string]any{"count": count})
	}
	return count, nil
}
