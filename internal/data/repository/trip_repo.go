package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecoride/internal/data/entity"
	"ecoride/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TripRepository interface {
	Create(ctx context.Context, trip *entity.Trip) error
	FindByID(ctx context.Context, id int64) (*entity.Trip, error)
	FindWithDriver(ctx context.Context, id int64) (*entity.TripWithDriver, error)
	FindByDriverID(ctx context.Context, driverID int64) ([]*entity.Trip, error)
	FindActive(ctx context.Context, limit int) ([]*entity.TripWithDriver, error)
	Search(ctx context.Context, departure, destination string, date *string) ([]*entity.TripWithDriver, error)
	Update(ctx context.Context, trip *entity.Trip) error

	// Transition sets status and the matching timestamp on a trip owned by
	// driverID. It returns nil, nil when no such trip exists for that driver.
	Transition(ctx context.Context, tripID, driverID int64, status entity.TripStatus, at time.Time) (*entity.Trip, error)
	DeactivateStale(ctx context.Context, arrivedBefore time.Time) (int64, error)
}

const tripColumns = `t.id, t.driver_id, t.departure, t.destination, t.departure_time, t.arrival_time,
	t.available_seats, t.total_seats, t.price_per_seat, t.description, t.status, t.is_active,
	t.started_at, t.completed_at, t.created_at, t.updated_at`

const driverColumns = `u.id, u.first_name, u.last_name, u.average_rating, u.total_ratings`

type tripRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTripRepository(db database.PgxIface, log *zap.Logger) TripRepository {
	return &tripRepository{
		db:  db,
		log: log.With(zap.String("repository", "trip")),
	}
}

func tripScanTargets(trip *entity.Trip) []any {
	return []any{
		&trip.ID,
		&trip.DriverID,
		&trip.Departure,
		&trip.Destination,
		&trip.DepartureTime,
		&trip.ArrivalTime,
		&trip.AvailableSeats,
		&trip.TotalSeats,
		&trip.PricePerSeat,
		&trip.Description,
		&trip.Status,
		&trip.IsActive,
		&trip.StartedAt,
		&trip.CompletedAt,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	}
}

func driverScanTargets(driver *entity.DriverSummary) []any {
	return []any{
		&driver.ID,
		&driver.FirstName,
		&driver.LastName,
		&driver.AverageRating,
		&driver.TotalRatings,
	}
}

func scanTrip(row pgx.Row) (*entity.Trip, error) {
	var trip entity.Trip
	if err := row.Scan(tripScanTargets(&trip)...); err != nil {
		return nil, err
	}
	return &trip, nil
}

func scanTripWithDriver(row pgx.Row) (*entity.TripWithDriver, error) {
	var twd entity.TripWithDriver
	targets := append(tripScanTargets(&twd.Trip), driverScanTargets(&twd.Driver)...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	return &twd, nil
}

func (r *tripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	query := `
		INSERT INTO trips (driver_id, departure, destination, departure_time, arrival_time,
		                   available_seats, total_seats, price_per_seat, description, status, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		trip.DriverID,
		trip.Departure,
		trip.Destination,
		trip.DepartureTime,
		trip.ArrivalTime,
		trip.AvailableSeats,
		trip.TotalSeats,
		trip.PricePerSeat,
		trip.Description,
		trip.Status,
		trip.IsActive,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		r.log.Error("Failed to create trip",
			zap.Error(err),
			zap.Int64("driver_id", trip.DriverID),
		)
		return fmt.Errorf("create trip for driver %d: %w", trip.DriverID, err)
	}

	return nil
}

func (r *tripRepository) FindByID(ctx context.Context, id int64) (*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.id = $1`

	trip, err := scanTrip(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find trip by ID", zap.Error(err), zap.Int64("trip_id", id))
		return nil, fmt.Errorf("find trip by ID %d: %w", id, err)
	}
	return trip, nil
}

func (r *tripRepository) FindWithDriver(ctx context.Context, id int64) (*entity.TripWithDriver, error) {
	query := `
		SELECT ` + tripColumns + `, ` + driverColumns + `
		FROM trips t
		JOIN users u ON u.id = t.driver_id
		WHERE t.id = $1
	`

	twd, err := scanTripWithDriver(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find trip with driver", zap.Error(err), zap.Int64("trip_id", id))
		return nil, fmt.Errorf("find trip with driver %d: %w", id, err)
	}
	return twd, nil
}

func (r *tripRepository) FindByDriverID(ctx context.Context, driverID int64) ([]*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips t WHERE t.driver_id = $1 ORDER BY t.departure_time DESC`

	rows, err := r.db.Query(ctx, query, driverID)
	if err != nil {
		r.log.Error("Failed to find trips by driver", zap.Error(err), zap.Int64("driver_id", driverID))
		return nil, fmt.Errorf("find trips by driver %d: %w", driverID, err)
	}
	defer rows.Close()

	var trips []*entity.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			r.log.Error("Failed to scan trip row", zap.Error(err))
			return nil, fmt.Errorf("scan trip row: %w", err)
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

func (r *tripRepository) queryWithDriver(ctx context.Context, query string, args ...any) ([]*entity.TripWithDriver, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*entity.TripWithDriver
	for rows.Next() {
		twd, err := scanTripWithDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip row: %w", err)
		}
		trips = append(trips, twd)
	}

	return trips, rows.Err()
}

func (r *tripRepository) FindActive(ctx context.Context, limit int) ([]*entity.TripWithDriver, error) {
	query := `
		SELECT ` + tripColumns + `, ` + driverColumns + `
		FROM trips t
		JOIN users u ON u.id = t.driver_id
		WHERE t.is_active AND t.available_seats > 0
		ORDER BY t.departure_time
		LIMIT $1
	`

	trips, err := r.queryWithDriver(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to find active trips", zap.Error(err))
		return nil, fmt.Errorf("find active trips: %w", err)
	}
	return trips, nil
}

// Search matches departure and destination as case-insensitive substrings.
// date, when set, is a YYYY-MM-DD day compared against the UTC departure day.
func (r *tripRepository) Search(ctx context.Context, departure, destination string, date *string) ([]*entity.TripWithDriver, error) {
	query := `
		SELECT ` + tripColumns + `, ` + driverColumns + `
		FROM trips t
		JOIN users u ON u.id = t.driver_id
		WHERE t.is_active
		  AND t.available_seats > 0
		  AND strpos(lower(t.departure), lower($1)) > 0
		  AND strpos(lower(t.destination), lower($2)) > 0
		  AND ($3::date IS NULL OR (t.departure_time AT TIME ZONE 'UTC')::date = $3::date)
		ORDER BY t.departure_time
	`

	trips, err := r.queryWithDriver(ctx, query, departure, destination, date)
	if err != nil {
		r.log.Error("Failed to search trips",
			zap.Error(err),
			zap.String("departure", departure),
			zap.String("destination", destination),
		)
		return nil, fmt.Errorf("search trips: %w", err)
	}
	return trips, nil
}

// Update writes the editable fields. Seat counters are only changed by the
// booking repository.
func (r *tripRepository) Update(ctx context.Context, trip *entity.Trip) error {
	query := `
		UPDATE trips
		SET departure_time = $2, arrival_time = $3, price_per_seat = $4, description = $5,
		    status = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		trip.ID,
		trip.DepartureTime,
		trip.ArrivalTime,
		trip.PricePerSeat,
		trip.Description,
		trip.Status,
		trip.IsActive,
	).Scan(&trip.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("trip %d not found", trip.ID)
	}
	if err != nil {
		r.log.Error("Failed to update trip", zap.Error(err), zap.Int64("trip_id", trip.ID))
		return fmt.Errorf("update trip %d: %w", trip.ID, err)
	}
	return nil
}

func (r *tripRepository) Transition(ctx context.Context, tripID, driverID int64, status entity.TripStatus, at time.Time) (*entity.Trip, error) {
	query := `
		UPDATE trips t
		SET status = $3,
		    started_at = CASE WHEN $3 = 'started' THEN $4 ELSE t.started_at END,
		    completed_at = CASE WHEN $3 = 'completed' THEN $4 ELSE t.completed_at END,
		    updated_at = NOW()
		WHERE t.id = $1 AND t.driver_id = $2
		RETURNING ` + tripColumns

	trip, err := scanTrip(r.db.QueryRow(ctx, query, tripID, driverID, string(status), at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to transition trip",
			zap.Error(err),
			zap.Int64("trip_id", tripID),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("transition trip %d to %s: %w", tripID, status, err)
	}
	return trip, nil
}

func (r *tripRepository) DeactivateStale(ctx context.Context, arrivedBefore time.Time) (int64, error) {
	query := `
		UPDATE trips
		SET is_active = FALSE, updated_at = NOW()
		WHERE is_active AND status = 'pending' AND arrival_time < $1
	`

	result, err := r.db.Exec(ctx, query, arrivedBefore)
	if err != nil {
		r.log.Error("Failed to deactivate stale trips", zap.Error(err))
		return 0, fmt.Errorf("deactivate stale trips: %w", err)
	}
	return result.RowsAffected(), nil
}
