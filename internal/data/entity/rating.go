package entity

import (
	"time"
)

type Rating struct {
	BaseSimple
	TripID      int64      `db:"trip_id"`
	RaterID     int64      `db:"rater_id"`
	RateeID     int64      `db:"ratee_id"`
	Rating      int        `db:"rating"` // 1-5
	Comment     *string    `db:"comment"`
	IsApproved  *bool      `db:"is_approved"` // nil while pending moderation
	ModeratedBy *int64     `db:"moderated_by"`
	ModeratedAt *time.Time `db:"moderated_at"`
}
