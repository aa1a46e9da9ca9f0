package response

import (
	"time"

	"ecoride/internal/data/entity"
)

type RatingResponse struct {
	ID          int64      `json:"id"`
	TripID      int64      `json:"trip_id"`
	RaterID     int64      `json:"rater_id"`
	RateeID     int64      `json:"ratee_id"`
	Rating      int        `json:"rating"`
	Comment     *string    `json:"comment,omitempty"`
	IsApproved  *bool      `json:"is_approved"`
	ModeratedBy *int64     `json:"moderated_by,omitempty"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func RatingToResponse(rating *entity.Rating) RatingResponse {
	return RatingResponse{
		ID:          rating.ID,
		TripID:      rating.TripID,
		RaterID:     rating.RaterID,
		RateeID:     rating.RateeID,
		Rating:      rating.Rating,
		Comment:     rating.Comment,
		IsApproved:  rating.IsApproved,
		ModeratedBy: rating.ModeratedBy,
		ModeratedAt: rating.ModeratedAt,
		CreatedAt:   rating.CreatedAt,
	}
}
