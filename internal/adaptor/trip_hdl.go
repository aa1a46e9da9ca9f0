package adaptor

import (
	"context"
	"net/http"

	"ecoride/internal/dto/request"
	"ecoride/internal/dto/response"
	"ecoride/internal/usecase"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

type TripHandler struct {
	service usecase.TripService
	log     *zap.Logger
}

func NewTripHandler(service usecase.TripService, log *zap.Logger) *TripHandler {
	return &TripHandler{
		service: service,
		log:     log.With(zap.String("handler", "trip")),
	}
}

// ListActiveTrips handles GET /api/trips
func (h *TripHandler) ListActiveTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := h.service.ListActiveTrips(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list active trips")
		return
	}

	utils.ResponseSuccess(w, "success", trips)
}

// GetTrip handles GET /api/trips/{id}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	trip, err := h.service.GetTrip(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, "get trip")
		return
	}

	utils.ResponseSuccess(w, "success", trip)
}

// SearchTrips handles POST /api/trips/search
func (h *TripHandler) SearchTrips(w http.ResponseWriter, r *http.Request) {
	var req request.SearchTripsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	trips, err := h.service.SearchTrips(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "search trips")
		return
	}

	utils.ResponseSuccess(w, "success", trips)
}

// ListDriverTrips handles GET /api/trips/driver/{driverId}
func (h *TripHandler) ListDriverTrips(w http.ResponseWriter, r *http.Request) {
	driverID, ok := pathID(w, r, "driverId")
	if !ok {
		return
	}

	trips, err := h.service.ListDriverTrips(r.Context(), driverID)
	if err != nil {
		handleServiceError(w, h.log, err, "list driver trips")
		return
	}

	utils.ResponseSuccess(w, "success", trips)
}

// ==================== DRIVER METHODS ====================

// CreateTrip handles POST /api/trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	trip, err := h.service.CreateTrip(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create trip")
		return
	}

	utils.ResponseCreated(w, "Trip created successfully", trip)
}

// UpdateTrip handles PUT /api/trips/{id}
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req request.UpdateTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	trip, err := h.service.UpdateTrip(r.Context(), id, actor.ID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update trip")
		return
	}

	utils.ResponseSuccess(w, "Trip updated successfully", trip)
}

// CancelTrip handles DELETE /api/trips/{id}
func (h *TripHandler) CancelTrip(w http.ResponseWriter, r *http.Request) {
	h.driverAction(w, r, "cancel trip", "Trip cancelled successfully", h.service.CancelTrip)
}

// StartTrip handles PUT /api/trips/{id}/start
func (h *TripHandler) StartTrip(w http.ResponseWriter, r *http.Request) {
	h.driverAction(w, r, "start trip", "Trip started successfully", h.service.StartTrip)
}

// CompleteTrip handles PUT /api/trips/{id}/complete
func (h *TripHandler) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	h.driverAction(w, r, "complete trip", "Trip completed successfully", h.service.CompleteTrip)
}

// driverAction runs a lifecycle change on a trip owned by the caller.
func (h *TripHandler) driverAction(
	w http.ResponseWriter,
	r *http.Request,
	operation, message string,
	action func(ctx context.Context, tripID, driverID int64) (*response.TripResponse, error),
) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	trip, err := action(r.Context(), id, actor.ID)
	if err != nil {
		handleServiceError(w, h.log, err, operation)
		return
	}

	utils.ResponseSuccess(w, message, trip)
}
