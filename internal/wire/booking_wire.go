package wire

import (
	"ecoride/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, g guards) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(g.authenticated, g.user)

		r.Post("/", bookingHandler.CreateBooking)
		r.Get("/passenger/{passengerId}", bookingHandler.ListPassengerBookings)
		r.Get("/trip/{tripId}", bookingHandler.ListTripBookings)
		r.Get("/{id}", bookingHandler.GetBooking)
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)
		r.Post("/{id}/pay", bookingHandler.PayBooking)
	})
}
