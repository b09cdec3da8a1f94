package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"grocery-market/internal/domain"
	"grocery-market/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateUser(t *testing.T) {
	svc := NewUserService(newMockStore())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{
		Role:     domain.RoleSeller,
		Email:    "  Feira@Example.com ",
		FullName: "Feira Livre",
		Phone:    "+55 11 4000-0000",
	})
	require.NoError(t, err)
	assert.Equal(t, "feira@example.com", user.Email)
	assert.Equal(t, domain.RoleSeller, user.Role)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = svc.CreateUser(ctx, CreateUserInput{
		Role:     domain.RoleCustomer,
		Email:    "feira@example.com",
		FullName: "Someone Else",
		Phone:    "+55 11 4000-0001",
	})
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)

	_, err = svc.CreateUser(ctx, CreateUserInput{Role: "admin", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateUser_MergesProvidedFields(t *testing.T) {
	store := newMockStore()
	svc := NewUserService(store)
	ctx := context.Background()
	existing := store.addUser(domain.RoleCustomer)

	updated, err := svc.UpdateUser(ctx, existing.ID, UpdateUserInput{
		FullName: strPtr("Maria Silva"),
		Address:  strPtr("Rua Oscar Freire, 10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", updated.FullName)
	require.NotNil(t, updated.Address)
	assert.Equal(t, "Rua Oscar Freire, 10", *updated.Address)
	assert.Equal(t, existing.Email, updated.Email)
	assert.Equal(t, existing.Phone, updated.Phone)
	assert.Equal(t, domain.RoleCustomer, updated.Role)
	assert.True(t, updated.UpdatedAt.After(existing.UpdatedAt) || updated.UpdatedAt.Equal(existing.UpdatedAt))

	stored, err := svc.GetUser(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", stored.FullName)
}

func TestUpdateUser_Errors(t *testing.T) {
	store := newMockStore()
	svc := NewUserService(store)
	ctx := context.Background()
	first := store.addUser(domain.RoleCustomer)
	second := store.addUser(domain.RoleCustomer)

	_, err := svc.UpdateUser(ctx, uuid.New(), UpdateUserInput{FullName: strPtr("Nobody")})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = svc.UpdateUser(ctx, second.ID, UpdateUserInput{Email: strPtr(first.Email)})
	assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)

	stored, err := svc.GetUser(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Email, stored.Email)
}

func TestListUsers_FiltersByRole(t *testing.T) {
	store := newMockStore()
	svc := NewUserService(store)
	store.addUser(domain.RoleCustomer)
	store.addUser(domain.RoleCustomer)
	store.addUser(domain.RoleSeller)

	role := domain.RoleSeller
	users, total, err := svc.ListUsers(context.Background(), repository.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, domain.RoleSeller, users[0].Role)
}

// Emails are stored lowercase and trimmed whatever the input casing.
func TestProperty_EmailsAreNormalized(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("stored email is lowercase and trimmed", prop.ForAll(
		func(email string, padLeft bool) bool {
			svc := NewUserService(newMockStore())
			input := email
			if padLeft {
				input = "  " + email
			}

			user, err := svc.CreateUser(context.Background(), CreateUserInput{
				Role:     domain.RoleCustomer,
				Email:    input,
				FullName: "Generated User",
				Phone:    "+55 11 90000-0000",
			})
			if err != nil {
				t.Logf("FAIL: create failed: %v", err)
				return false
			}

			return user.Email == strings.ToLower(email) && !strings.HasPrefix(user.Email, " ")
		},
		gen.RegexMatch(`[A-Za-z]{3,10}@[A-Za-z]{3,8}\.(com|org|net)`),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(newOrderError(ErrPriceMismatch, "price mismatch")))
	assert.False(t, IsValidationError(errors.New("connection reset")))
	assert.False(t, IsValidationError(nil))
}
