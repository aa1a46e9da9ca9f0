package response

import (
	"time"

	"ecoride/internal/data/entity"
)

type BookingResponse struct {
	ID          int64                `json:"id"`
	TripID      int64                `json:"trip_id"`
	PassengerID int64                `json:"passenger_id"`
	SeatsBooked int                  `json:"seats_booked"`
	TotalPrice  float64              `json:"total_price"`
	Status      entity.BookingStatus `json:"status"`
	Message     *string              `json:"message,omitempty"`
	Trip        *TripResponse        `json:"trip,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:          booking.ID,
		TripID:      booking.TripID,
		PassengerID: booking.PassengerID,
		SeatsBooked: booking.SeatsBooked,
		TotalPrice:  booking.TotalPrice,
		Status:      booking.Status,
		Message:     booking.Message,
		CreatedAt:   booking.CreatedAt,
		UpdatedAt:   booking.UpdatedAt,
	}
}

func BookingWithTripToResponse(bwt *entity.BookingWithTrip) BookingResponse {
	resp := BookingToResponse(&bwt.Booking)
	trip := TripWithDriverToResponse(&bwt.Trip)
	resp.Trip = &trip
	return resp
}
