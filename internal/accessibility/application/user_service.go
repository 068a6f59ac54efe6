package application

import (
	"context"

	"github.com/peer-app/peer-services/api/internal/accessibility/domain"
)

// NewUserService builds the account use cases over the user repository.
func NewUserService(users UserRepository) *userService {
	return &userService{users: users}
}

type userService struct {
	users UserRepository
}

// Create registers a new account. The email must not be in use.
func (s *userService) Create(ctx context.Context, cmd CreateUserCommand) (*domain.User, error) {
	user := &domain.User{
		FirstName:   cmd.FirstName,
		LastName:    cmd.LastName,
		Email:       cmd.Email.String(),
		Hash:        cmd.Hash,
		IsBlindMode: cmd.IsBlindMode,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Edit applies a partial account update. Only the account owner may edit.
func (s *userService) Edit(ctx context.Context, cmd EditUserCommand) (*domain.User, error) {
	if cmd.UserID != cmd.RequesterID {
		return nil, ErrNotOwner
	}
	if cmd.Patch.IsEmpty() {
		return nil, ErrNoChange
	}
	return s.users.Update(ctx, cmd.UserID, cmd.Patch)
}

// ByID returns a single account.
func (s *userService) ByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}
