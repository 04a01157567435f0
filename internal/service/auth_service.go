package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
	"github.com/diagnosis/clinic-bookings/pkg/auth"
	"github.com/diagnosis/clinic-bookings/pkg/config"
	"github.com/diagnosis/clinic-bookings/pkg/events"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

type AuthService interface {
	// Register creates a regular account. caller may be nil; only an admin caller can grant admin.
	Register(ctx context.Context, req *domain.RegisterRequest, caller *domain.Actor) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
	// EnsureAdmin creates the bootstrap administrator unless the email is already taken.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	userRepo repository.UserRepository
	hasher   auth.PasswordHasher
	eventBus events.Publisher
	config   *config.Config
}

func NewAuthService(
	userRepo repository.UserRepository,
	hasher auth.PasswordHasher,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest, caller *domain.Actor) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role := domain.RoleRegular
	if req.Role == domain.RoleAdmin {
		if !caller.IsAdmin() {
			return nil, domain.Forbidden("only an administrator can create admin accounts")
		}
		role = domain.RoleAdmin
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.Conflict("a user with this email already exists")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		LastName:     req.LastName,
		FirstName:    req.FirstName,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, domain.Conflict("a user with this email already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID, "role", user.Role)

	publish(ctx, s.eventBus, events.UserRegistered, events.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Role:         user.Role,
		RegisteredAt: user.CreatedAt,
	})

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.NotFound("user not found")
	}

	if err := s.hasher.Compare(req.Password, user.PasswordHash); err != nil {
		if !errors.Is(err, auth.ErrMismatchedPassword) {
			logger.WarnContext(ctx, "Password comparison failed", "error", err, "user_id", user.ID)
		}
		return nil, domain.Unauthorized("invalid password")
	}

	ttl := s.config.Auth.AccessTokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenTTL
	}
	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.config.Auth.JWTSecret, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		Token:     token,
		ExpiresIn: int64(ttl / time.Second),
		User:      user.ToUserInfo(),
	}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NotFound("user not found")
	}
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if existing != nil {
		if !existing.IsAdmin() {
			logger.WarnContext(ctx, "Bootstrap admin email belongs to a non-admin account", "user_id", existing.ID)
		}
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.userRepo.Create(ctx, &domain.User{
		LastName:     "Admin",
		FirstName:    "Clinic",
		Phone:        "-",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.InfoContext(ctx, "Bootstrap admin created", "user_id", user.ID)
	return nil
}

// publish sends an event; failures are logged and never fail the caller.
func publish(ctx context.Context, bus events.Publisher, subject string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
