package adaptor

import (
	"net/http"

	"ecoride/internal/dto/request"
	"ecoride/internal/usecase"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

type RatingHandler struct {
	service usecase.RatingService
	log     *zap.Logger
}

func NewRatingHandler(service usecase.RatingService, log *zap.Logger) *RatingHandler {
	return &RatingHandler{
		service: service,
		log:     log.With(zap.String("handler", "rating")),
	}
}

// CreateRating handles POST /api/ratings
func (h *RatingHandler) CreateRating(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateRatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rating, err := h.service.CreateRating(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create rating")
		return
	}

	utils.ResponseCreated(w, "Rating submitted successfully", rating)
}

// ListUserRatings handles GET /api/ratings/user/{userId}
func (h *RatingHandler) ListUserRatings(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	ratings, err := h.service.ListRatingsForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "list user ratings")
		return
	}

	utils.ResponseSuccess(w, "success", ratings)
}

// ==================== MODERATION METHODS ====================

// ListPendingRatings handles GET /api/ratings/pending?page=1&per_page=10
func (h *RatingHandler) ListPendingRatings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
	if req.PerPage > 100 {
		req.PerPage = 100
	}

	ratings, err := h.service.ListPendingRatings(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list pending ratings")
		return
	}

	utils.ResponseSuccess(w, "success", ratings)
}

// ApproveRating handles PUT /api/ratings/{id}/approve
func (h *RatingHandler) ApproveRating(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rating, err := h.service.ApproveRating(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "approve rating")
		return
	}

	utils.ResponseSuccess(w, "Rating approved", rating)
}

// RejectRating handles PUT /api/ratings/{id}/reject
func (h *RatingHandler) RejectRating(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	rating, err := h.service.RejectRating(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, h.log, err, "reject rating")
		return
	}

	utils.ResponseSuccess(w, "Rating rejected", rating)
}
