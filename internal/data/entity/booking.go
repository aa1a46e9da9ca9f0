package entity

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type Booking struct {
	Base
	TripID      int64         `db:"trip_id"`
	PassengerID int64         `db:"passenger_id"`
	SeatsBooked int           `db:"seats_booked"`
	TotalPrice  float64       `db:"total_price"`
	Status      BookingStatus `db:"status"`
	Message     *string       `db:"message"`
}

// BookingWithTrip is a passenger's booking together with the trip it reserves seats on.
type BookingWithTrip struct {
	Booking
	Trip TripWithDriver
}
