package request

type CreateBookingRequest struct {
	TripID      int64    `json:"trip_id" validate:"required,min=1"`
	PassengerID int64    `json:"passenger_id" validate:"required,min=1"`
	SeatsBooked int      `json:"seats_booked" validate:"required,min=1"`
	TotalPrice  *float64 `json:"total_price,omitempty" validate:"omitempty,gte=0"` // computed when omitted
	Message     *string  `json:"message,omitempty" validate:"omitempty,max=500"`
}
