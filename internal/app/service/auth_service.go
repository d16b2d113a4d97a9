package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/common/security"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"

	"github.com/google/uuid"
)

type AuthService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*model.User, error) {
	if username == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("username, email and a password of at least 8 characters are required: %w", common.ErrValidation)
	}

	hashed, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		Role:           model.RoleUser,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns a signed token. Unknown user and bad
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
		}
		return "", nil, err
	}
	if !security.CheckPasswordHash(password, user.HashedPassword) {
		return "", nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}
