package entity

import (
	"time"
)

type TripStatus string

const (
	TripStatusPending   TripStatus = "pending"
	TripStatusStarted   TripStatus = "started"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

type Trip struct {
	Base
	DriverID       int64      `db:"driver_id"`
	Departure      string     `db:"departure"`
	Destination    string     `db:"destination"`
	DepartureTime  time.Time  `db:"departure_time"`
	ArrivalTime    time.Time  `db:"arrival_time"`
	AvailableSeats int        `db:"available_seats"`
	TotalSeats     int        `db:"total_seats"` // immutable after publish
	PricePerSeat   float64    `db:"price_per_seat"`
	Description    *string    `db:"description"`
	Status         TripStatus `db:"status"`
	IsActive       bool       `db:"is_active"`
	StartedAt      *time.Time `db:"started_at"`
	CompletedAt    *time.Time `db:"completed_at"`
}

// TripWithDriver is a trip joined with the public part of its driver's profile.
type TripWithDriver struct {
	Trip
	Driver DriverSummary
}

type DriverSummary struct {
	ID            int64   `db:"id"`
	FirstName     string  `db:"first_name"`
	LastName      string  `db:"last_name"`
	AverageRating float64 `db:"average_rating"`
	TotalRatings  int     `db:"total_ratings"`
}
