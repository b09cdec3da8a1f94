package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery-market/internal/domain"
	"grocery-market/internal/repository"

	"github.com/google/uuid"
)

// CreateUserInput carries the attributes of a new account
type CreateUserInput struct {
	Role     domain.Role
	Email    string
	FullName string
	Phone    string
	Address  *string
}

// UpdateUserInput holds the attributes to change. Nil fields are left as stored.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Phone    *string
	Address  *string
}

// UserService defines the interface for user business logic
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*domain.User, error)
}

type userService struct {
	store repository.Store
}

// NewUserService creates a new instance of UserService
func NewUserService(store repository.Store) UserService {
	return &userService{store: store}
}

// CreateUser registers a customer or seller account
func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.New(),
		Role:      input.Role,
		Email:     normalizeEmail(input.Email),
		FullName:  strings.TrimSpace(input.FullName),
		Phone:     strings.TrimSpace(input.Phone),
		Address:   input.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers retrieves a page of users
func (s *userService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]*domain.User, int, error) {
	users, total, err := s.store.Users().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdateUser merges the provided attributes onto the stored user
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	var user *domain.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if input.Email != nil {
			current.Email = normalizeEmail(*input.Email)
		}
		if input.FullName != nil {
			current.FullName = strings.TrimSpace(*input.FullName)
		}
		if input.Phone != nil {
			current.Phone = strings.TrimSpace(*input.Phone)
		}
		if input.Address != nil {
			current.Address = input.Address
		}
		current.UpdatedAt = time.Now().UTC()

		if err := tx.Users().Update(ctx, current); err != nil {
			return err
		}

		user = current
		return nil
	})

	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
