package request

type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName string  `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	Role      string  `json:"role,omitempty" validate:"omitempty,oneof=passenger driver"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
}

// ChangeOwnRoleRequest lets a member switch between riding and driving.
type ChangeOwnRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=passenger driver"`
}

// ChangeRoleRequest is the admin variant; unknown roles are rejected by the service.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required"`
}
