package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/clinic-bookings/internal/domain"
	"github.com/diagnosis/clinic-bookings/internal/repository"
	"github.com/diagnosis/clinic-bookings/pkg/auth"
	"github.com/diagnosis/clinic-bookings/pkg/logger"
)

type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, actor *domain.Actor, id string) (*domain.User, error)
	Update(ctx context.Context, actor *domain.Actor, id string, req *domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	userRepo repository.UserRepository
	hasher   auth.PasswordHasher
}

func NewUserService(userRepo repository.UserRepository, hasher auth.PasswordHasher) UserService {
	return &userService{userRepo: userRepo, hasher: hasher}
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, actor *domain.Actor, id string) (*domain.User, error) {
	if !actor.CanAccess(id) {
		return nil, domain.Forbidden("you can only view your own profile")
	}
	return s.find(ctx, id)
}

func (s *userService) find(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NotFound("user not found")
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor *domain.Actor, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if !actor.CanAccess(id) {
		return nil, domain.Forbidden("you can only update your own profile")
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Role != nil && !actor.IsAdmin() {
		return nil, domain.Forbidden("only an administrator can change roles")
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return user, nil
	}

	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Email != nil && *req.Email != user.Email {
		other, err := s.userRepo.FindByEmail(ctx, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if other != nil && other.ID != user.ID {
			return nil, domain.Conflict("a user with this email already exists")
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	updated, err := s.userRepo.Update(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, domain.Conflict("a user with this email already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if updated == nil {
		return nil, domain.NotFound("user not found")
	}

	logger.InfoContext(ctx, "User updated", "user_id", updated.ID, "by", actor.UserID)
	return updated, nil
}

// Delete removes the account only. Appointments it owns stay in place.
func (s *userService) Delete(ctx context.Context, id string) error {
	err := s.userRepo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	logger.InfoContext(ctx, "User deleted", "user_id", id)
	return nil
}
