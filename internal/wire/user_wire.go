package wire

import (
	"ecoride/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireUser configures profile routes and staff user management
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, g guards) {
	// ==================== PROTECTED USER ROUTES ====================
	// Explicit profile creation needs a valid token but no local account yet
	r.With(g.authenticated).Post("/api/users", userHandler.CreateUser)

	r.Group(func(r chi.Router) {
		r.Use(g.authenticated, g.user)

		r.Get("/api/users/me", userHandler.GetMe)
		r.Put("/api/users/me", userHandler.UpdateMe)
		r.Patch("/api/users/me/role", userHandler.ChangeOwnRole)
		r.Get("/api/users/{id}", userHandler.GetUser)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/users", func(r chi.Router) {
		r.Use(g.authenticated, g.user)

		r.With(g.admin).Get("/", userHandler.ListUsers)          // GET /api/admin/users?page=1&per_page=10
		r.With(g.staff).Put("/{id}/suspend", userHandler.SuspendUser)
		r.With(g.admin).Patch("/{id}/role", userHandler.ChangeRole)
	})
}
