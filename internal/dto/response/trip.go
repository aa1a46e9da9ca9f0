package response

import (
	"time"

	"ecoride/internal/data/entity"
)

type DriverResponse struct {
	ID            int64   `json:"id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

type TripResponse struct {
	ID             int64             `json:"id"`
	DriverID       int64             `json:"driver_id"`
	Departure      string            `json:"departure"`
	Destination    string            `json:"destination"`
	DepartureTime  time.Time         `json:"departure_time"`
	ArrivalTime    time.Time         `json:"arrival_time"`
	AvailableSeats int               `json:"available_seats"`
	TotalSeats     int               `json:"total_seats"`
	PricePerSeat   float64           `json:"price_per_seat"`
	Description    *string           `json:"description,omitempty"`
	Status         entity.TripStatus `json:"status"`
	IsActive       bool              `json:"is_active"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	Driver         *DriverResponse   `json:"driver,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func TripToResponse(trip *entity.Trip) TripResponse {
	return TripResponse{
		ID:             trip.ID,
		DriverID:       trip.DriverID,
		Departure:      trip.Departure,
		Destination:    trip.Destination,
		DepartureTime:  trip.DepartureTime,
		ArrivalTime:    trip.ArrivalTime,
		AvailableSeats: trip.AvailableSeats,
		TotalSeats:     trip.TotalSeats,
		PricePerSeat:   trip.PricePerSeat,
		Description:    trip.Description,
		Status:         trip.Status,
		IsActive:       trip.IsActive,
		StartedAt:      trip.StartedAt,
		CompletedAt:    trip.CompletedAt,
		CreatedAt:      trip.CreatedAt,
		UpdatedAt:      trip.UpdatedAt,
	}
}

func TripWithDriverToResponse(twd *entity.TripWithDriver) TripResponse {
	resp := TripToResponse(&twd.Trip)
	resp.Driver = &DriverResponse{
		ID:            twd.Driver.ID,
		FirstName:     twd.Driver.FirstName,
		LastName:      twd.Driver.LastName,
		AverageRating: twd.Driver.AverageRating,
		TotalRatings:  twd.Driver.TotalRatings,
	}
	return resp
}
