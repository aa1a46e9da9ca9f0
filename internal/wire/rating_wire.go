package wire

import (
	"ecoride/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireRating(r chi.Router, ratingHandler *adaptor.RatingHandler, g guards) {
	r.Route("/api/ratings", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/user/{userId}", ratingHandler.ListUserRatings)

		// ==================== PROTECTED ROUTES ====================
		r.With(g.authenticated, g.user).Post("/", ratingHandler.CreateRating)

		// ==================== MODERATION ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(g.authenticated, g.user, g.staff)

			r.Get("/pending", ratingHandler.ListPendingRatings)
			r.Put("/{id}/approve", ratingHandler.ApproveRating)
			r.Put("/{id}/reject", ratingHandler.RejectRating)
		})
	})
}
