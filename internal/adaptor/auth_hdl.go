package adaptor

import (
	"net/http"

	"ecoride/internal/dto/request"
	"ecoride/internal/usecase"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

// AuthHandler serves the employee credential flow. Passengers and drivers
// authenticate with the external identity provider instead.
type AuthHandler struct {
	service usecase.AuthService
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// EmployeeLogin handles POST /api/employee/login
func (h *AuthHandler) EmployeeLogin(w http.ResponseWriter, r *http.Request) {
	var req request.EmployeeLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.service.EmployeeLogin(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "employee login")
		return
	}

	utils.ResponseSuccess(w, "Login successful", token)
}

// CreateEmployee handles POST /api/admin/employees
func (h *AuthHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req request.CreateEmployeeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	employee, err := h.service.CreateEmployee(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create employee")
		return
	}

	utils.ResponseCreated(w, "Employee created successfully", employee)
}
