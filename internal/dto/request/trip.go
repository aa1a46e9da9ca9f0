package request

import (
	"time"
)

type CreateTripRequest struct {
	Departure      string    `json:"departure" validate:"required,min=1,max=255"`
	Destination    string    `json:"destination" validate:"required,min=1,max=255"`
	DepartureTime  time.Time `json:"departure_time" validate:"required"`
	ArrivalTime    time.Time `json:"arrival_time" validate:"required,gtfield=DepartureTime"`
	AvailableSeats int       `json:"available_seats" validate:"required,min=1,ltefield=TotalSeats"`
	TotalSeats     int       `json:"total_seats" validate:"required,min=1,max=8"`
	PricePerSeat   float64   `json:"price_per_seat" validate:"gte=0"`
	Description    *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// UpdateTripRequest carries the editable fields. Seat counts are not editable.
type UpdateTripRequest struct {
	DepartureTime *time.Time `json:"departure_time,omitempty"`
	ArrivalTime   *time.Time `json:"arrival_time,omitempty"`
	PricePerSeat  *float64   `json:"price_per_seat,omitempty" validate:"omitempty,gte=0"`
	Description   *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type SearchTripsRequest struct {
	Departure   string  `json:"departure" validate:"required,max=255"`
	Destination string  `json:"destination" validate:"required,max=255"`
	Date        *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}
