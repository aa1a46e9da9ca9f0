package wire

import (
	"ecoride/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireTrip(r chi.Router, tripHandler *adaptor.TripHandler, g guards) {
	r.Route("/api/trips", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", tripHandler.ListActiveTrips)
		r.Post("/search", tripHandler.SearchTrips)
		r.Get("/driver/{driverId}", tripHandler.ListDriverTrips)
		r.Get("/{id}", tripHandler.GetTrip)

		// ==================== DRIVER ROUTES ====================
		// Role and ownership are checked by the service
		r.Group(func(r chi.Router) {
			r.Use(g.authenticated, g.user)

			r.Post("/", tripHandler.CreateTrip)
			r.Put("/{id}", tripHandler.UpdateTrip)
			r.Delete("/{id}", tripHandler.CancelTrip)
			r.Put("/{id}/start", tripHandler.StartTrip)
			r.Put("/{id}/complete", tripHandler.CompleteTrip)
		})
	})
}
