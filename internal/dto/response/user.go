package response

import (
	"time"

	"ecoride/internal/data/entity"
)

type UserResponse struct {
	ID            int64           `json:"id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Phone         *string         `json:"phone,omitempty"`
	Role          entity.UserRole `json:"role"`
	Credits       float64         `json:"credits"`
	AverageRating float64         `json:"average_rating"`
	TotalRatings  int             `json:"total_ratings"`
	IsVerified    bool            `json:"is_verified"`
	IsSuspended   bool            `json:"is_suspended"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func UserToResponse(user *entity.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Phone:         user.Phone,
		Role:          user.Role,
		Credits:       user.Credits,
		AverageRating: user.AverageRating,
		TotalRatings:  user.TotalRatings,
		IsVerified:    user.IsVerified,
		IsSuspended:   user.IsSuspended,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
