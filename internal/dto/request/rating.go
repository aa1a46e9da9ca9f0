package request

type CreateRatingRequest struct {
	TripID  int64   `json:"trip_id" validate:"required,min=1"`
	RateeID int64   `json:"ratee_id" validate:"required,min=1"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}
