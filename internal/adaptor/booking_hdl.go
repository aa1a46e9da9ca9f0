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

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PassengerID == 0 {
		req.PassengerID = actor.ID
	}

	booking, err := h.service.CreateBooking(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created successfully", booking)
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, "get booking", "success", h.service.GetBooking)
}

// ListPassengerBookings handles GET /api/bookings/passenger/{passengerId}
func (h *BookingHandler) ListPassengerBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	passengerID, ok := pathID(w, r, "passengerId")
	if !ok {
		return
	}

	bookings, err := h.service.ListPassengerBookings(r.Context(), actor, passengerID)
	if err != nil {
		handleServiceError(w, h.log, err, "list passenger bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// ListTripBookings handles GET /api/bookings/trip/{tripId}
func (h *BookingHandler) ListTripBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	tripID, ok := pathID(w, r, "tripId")
	if !ok {
		return
	}

	bookings, err := h.service.ListTripBookings(r.Context(), actor, tripID)
	if err != nil {
		handleServiceError(w, h.log, err, "list trip bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// CancelBooking handles PUT /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, "cancel booking", "Booking cancelled successfully", h.service.CancelBooking)
}

// PayBooking handles POST /api/bookings/{id}/pay
func (h *BookingHandler) PayBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, "pay booking", "Payment successful", h.service.PayBooking)
}

func (h *BookingHandler) bookingAction(
	w http.ResponseWriter,
	r *http.Request,
	operation, message string,
	action func(ctx context.Context, actor usecase.Actor, bookingID int64) (*response.BookingResponse, error),
) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	booking, err := action(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, operation)
		return
	}

	utils.ResponseSuccess(w, message, booking)
}
