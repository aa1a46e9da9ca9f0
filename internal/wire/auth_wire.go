package wire

import (
	"ecoride/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, g guards) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/employee/login", authHandler.EmployeeLogin)

	// ==================== ADMIN ROUTES ====================
	r.With(g.authenticated, g.user, g.admin).Post("/api/admin/employees", authHandler.CreateEmployee)
}
