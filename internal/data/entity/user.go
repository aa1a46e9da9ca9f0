package entity

type UserRole string

const (
	RolePassenger UserRole = "passenger"
	RoleDriver    UserRole = "driver"
	RoleEmployee  UserRole = "employee"
	RoleAdmin     UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RolePassenger, RoleDriver, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may moderate content.
func (r UserRole) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

type User struct {
	Base
	ExternalID    string   `db:"external_id"`
	Email         string   `db:"email"`
	FirstName     string   `db:"first_name"`
	LastName      string   `db:"last_name"`
	Phone         *string  `db:"phone"`
	Role          UserRole `db:"role"`
	Credits       float64  `db:"credits"`
	AverageRating float64  `db:"average_rating"`
	TotalRatings  int      `db:"total_ratings"`
	IsVerified    bool     `db:"is_verified"`
	IsSuspended   bool     `db:"is_suspended"`
	PasswordHash  *string  `db:"password_hash"` // employees only
}
