package usecase

import (
	"context"
	"fmt"
	"strings"

	"ecoride/internal/data/entity"
	"ecoride/internal/data/repository"
	"ecoride/internal/dto/request"
	"ecoride/internal/dto/response"
	"ecoride/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService covers staff accounts. Members authenticate with the identity
// provider and are provisioned by UserService.
type AuthService interface {
	EmployeeLogin(ctx context.Context, req *request.EmployeeLoginRequest) (*response.TokenResponse, error)
	CreateEmployee(ctx context.Context, req *request.CreateEmployeeRequest) (*response.UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *utils.TokenManager
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, tokens *utils.TokenManager, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.With(zap.String("service", "auth")),
	}
}

func (s *authService) EmployeeLogin(ctx context.Context, req *request.EmployeeLoginRequest) (*response.TokenResponse, error) {
	// 1. Validate
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Employee login validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	// 2. Find staff account
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	if user == nil || user.PasswordHash == nil || !user.Role.IsStaff() {
		s.log.Warn("Employee login for unknown account", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	// 3. Check password
	if !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		s.log.Warn("Invalid employee password", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	if user.IsSuspended {
		s.log.Warn("Suspended employee tried to login", zap.Int64("user_id", user.ID))
		return nil, ErrSuspended
	}

	// 4. Issue token
	token, expiresAt, err := s.tokens.Sign(user.ExternalID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info("Employee logged in", zap.Int64("user_id", user.ID))

	return &response.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      response.UserToResponse(user),
	}, nil
}

func (s *authService) CreateEmployee(ctx context.Context, req *request.CreateEmployeeRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create employee validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s", ErrUserAlreadyExists, req.Email)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ExternalID:   "employee-" + uuid.NewString(),
		Email:        strings.TrimSpace(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         entity.RoleEmployee,
		IsVerified:   true,
		PasswordHash: &hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}

	s.log.Info("Employee created", zap.Int64("user_id", user.ID))

	resp := response.UserToResponse(user)
	return &resp, nil
}
