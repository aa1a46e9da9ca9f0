package usecase

import (
	"context"
	"fmt"
	"strings"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/internal/dto/request"
	"ecoride/internal/dto/response"
	"ecoride/internal/events"
	"ecoride/pkg/utils"

	"go.uber.org/zap"
)

const (
	// AdminEmail always resolves to the admin role, whatever was requested.
	AdminEmail     = "admin@ecoride.com"
	InitialCredits = 20.00
)

type UserService interface {
	CreateUser(ctx context.Context, identity utils.Identity, req *request.CreateUserRequest) (*response.UserResponse, error)

	// Provision returns the local user mapped to the identity, creating a
	// placeholder passenger profile the first time a subject is seen.
	Provision(ctx context.Context, identity utils.Identity) (*entity.User, error)

	GetUser(ctx context.Context, id int64) (*response.UserResponse, error)
	UpdateProfile(ctx context.Context, id int64, req *request.UpdateProfileRequest) (*response.UserResponse, error)
	ChangeOwnRole(ctx context.Context, id int64, req *request.ChangeOwnRoleRequest) (*response.UserResponse, error)

	// Staff endpoints
	ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	ChangeRole(ctx context.Context, id int64, req *request.ChangeRoleRequest) (*response.UserResponse, error)
	SuspendUser(ctx context.Context, actor Actor, id int64) (*response.UserResponse, error)
}

type userService struct {
	userRepo  repository.UserRepository
	publisher events.Publisher
	log       *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, publisher events.Publisher, log *zap.Logger) UserService {
	return &userService{
		userRepo:  userRepo,
		publisher: publisher,
		log:       log.With(zap.String("service", "user")),
	}
}

func isAdminEmail(email string) bool {
	return strings.EqualFold(strings.TrimSpace(email), AdminEmail)
}

func resolveRole(email, requested string) entity.UserRole {
	if isAdminEmail(email) {
		return entity.RoleAdmin
	}
	if requested == "" {
		return entity.RolePassenger
	}
	return entity.UserRole(requested)
}

func (us *userService) CreateUser(ctx context.Context, identity utils.Identity, req *request.CreateUserRequest) (*response.UserResponse, error) {
	// When the token carries an email the profile must use it.
	if identity.Email != "" && !strings.EqualFold(strings.TrimSpace(req.Email), strings.TrimSpace(identity.Email)) {
		us.log.Warn("Create user email does not match token",
			zap.String("subject", identity.Subject),
		)
		return nil, validationError(map[string]string{"Email": "Must match the authenticated account email"})
	}

	// Admin is decided by the verified email alone; any requested role is ignored.
	if isAdminEmail(identity.Email) {
		req.Role = ""
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Create user validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	existing, err := us.userRepo.FindByExternalID(ctx, identity.Subject)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: subject %s", ErrUserAlreadyExists, identity.Subject)
	}

	existing, err = us.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s", ErrUserAlreadyExists, req.Email)
	}

	user := &entity.User{
		ExternalID: identity.Subject,
		Email:      strings.TrimSpace(req.Email),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Role:       resolveRole(identity.Email, req.Role),
		Credits:    InitialCredits,
	}

	if err := us.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	us.log.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) Provision(ctx context.Context, identity utils.Identity) (*entity.User, error) {
	user, err := us.userRepo.FindByExternalID(ctx, identity.Subject)
	if err != nil {
		return nil, fmt.Errorf("find user by subject: %w", err)
	}

	if user != nil {
		if isAdminEmail(user.Email) && user.Role != entity.RoleAdmin {
			user.Role = entity.RoleAdmin
			if err := us.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("promote admin account: %w", err)
			}
			us.log.Info("Admin role re-applied", zap.Int64("user_id", user.ID))
		}
		return user, nil
	}

	email := strings.TrimSpace(identity.Email)
	if email != "" {
		taken, err := us.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken != nil {
			email = ""
		}
	}
	if email == "" {
		email = fmt.Sprintf("user-%s@ecoride.com", identity.Subject)
	}

	user = &entity.User{
		ExternalID: identity.Subject,
		Email:      email,
		FirstName:  "EcoRide",
		LastName:   "User",
		Role:       resolveRole(email, ""),
		Credits:    InitialCredits,
	}

	if err := us.userRepo.Create(ctx, user); err != nil {
		// a concurrent request may have provisioned the same subject
		existing, findErr := us.userRepo.FindByExternalID(ctx, identity.Subject)
		if findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("provision user: %w", err)
	}

	us.log.Info("User provisioned", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (us *userService) findUser(ctx context.Context, id int64) (*entity.User, error) {
	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return user, nil
}

func (us *userService) GetUser(ctx context.Context, id int64) (*response.UserResponse, error) {
	user, err := us.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateProfile(ctx context.Context, id int64, req *request.UpdateProfileRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Update profile validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	user, err := us.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}

	if err := us.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) ChangeOwnRole(ctx context.Context, id int64, req *request.ChangeOwnRoleRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	user, err := us.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role.IsStaff() {
		return nil, fmt.Errorf("%w: staff accounts cannot switch to a member role", ErrForbidden)
	}

	user.Role = entity.UserRole(req.Role)
	if err := us.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	us.log.Info("User switched role", zap.Int64("user_id", id), zap.String("role", req.Role))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) ListUsers(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	req.PerPage = req.Limit()

	users, err := us.userRepo.FindAll(ctx, req.PerPage, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	total, err := us.userRepo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	userResponses := make([]response.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = response.UserToResponse(user)
	}

	return response.NewPaginatedResponse(userResponses, req.Page, req.PerPage, total), nil
}

func (us *userService) ChangeRole(ctx context.Context, id int64, req *request.ChangeRoleRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	role := entity.UserRole(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	user, err := us.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if isAdminEmail(user.Email) && role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: the platform admin account keeps the admin role", ErrForbidden)
	}

	user.Role = role
	if err := us.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("change role: %w", err)
	}

	us.log.Info("User role changed", zap.Int64("user_id", id), zap.String("role", req.Role))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) SuspendUser(ctx context.Context, actor Actor, id int64) (*response.UserResponse, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	if actor.ID == id {
		return nil, fmt.Errorf("%w: cannot suspend yourself", ErrForbidden)
	}

	user, err := us.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role.IsStaff() && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can suspend staff", ErrForbidden)
	}

	if !user.IsSuspended {
		user.IsSuspended = true
		if err := us.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("suspend user: %w", err)
		}

		us.log.Info("User suspended", zap.Int64("user_id", id), zap.Int64("by", actor.ID))
		publish(ctx, us.publisher, us.log, events.UserSuspended, map[string]any{
			"user_id":      id,
			"suspended_by": actor.ID,
		})
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}
