package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecoride/internal/data/entity"
	"ecoride/internal/usecase"
	"ecoride/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleServiceError maps usecase errors to HTTP responses. 4xx are logged
// at warn, anything unrecognised is a 500 logged at error.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validationErr *usecase.ValidationError

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed", zap.Any("errors", validationErr.Fields))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, usecase.ErrTripNotFound),
		errors.Is(err, usecase.ErrTripNotFoundOrUnauthorized),
		errors.Is(err, usecase.ErrBookingNotFound),
		errors.Is(err, usecase.ErrRatingNotFound),
		errors.Is(err, usecase.ErrNotificationNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, rootMessage(err))

	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInsufficientSeats),
		errors.Is(err, usecase.ErrInsufficientCredits),
		errors.Is(err, usecase.ErrInvalidState),
		errors.Is(err, usecase.ErrInvalidRole),
		errors.Is(err, usecase.ErrSelfRating):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, rootMessage(err), nil)

	case errors.Is(err, usecase.ErrUserAlreadyExists),
		errors.Is(err, usecase.ErrAlreadyRated):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, rootMessage(err))

	case errors.Is(err, usecase.ErrInvalidCredentials):
		log.Warn(operation+" failed - unauthorized", zap.Error(err))
		utils.ResponseUnauthorized(w, rootMessage(err))

	case errors.Is(err, usecase.ErrForbidden),
		errors.Is(err, usecase.ErrSuspended):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, rootMessage(err))

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// rootMessage returns the innermost error text so wrapped ids and SQL
// details stay out of client responses.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// actorFrom reads the provisioned caller set by the auth middleware.
func actorFrom(w http.ResponseWriter, r *http.Request) (usecase.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return usecase.Actor{}, false
	}
	role, _ := utils.GetRoleFromContext(r.Context())
	return usecase.Actor{ID: userID, Role: entity.UserRole(role)}, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := utils.ParseID(chi.URLParam(r, name))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}
