package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/frunko/frunko/internal/hash"
	"github.com/frunko/frunko/internal/models"
	"github.com/frunko/frunko/internal/repo"
	"github.com/frunko/frunko/internal/transport"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// Create is the admin path for provisioning accounts (staff or customer).
// Token issuance lives in the external auth service; this only stores the
// bcrypt hash the auth service checks against.
func (s *UserService) Create(ctx context.Context, req transport.CreateUserRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email required", ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password required", ErrValidation)
	}
	role := req.Role
	if role == "" {
		role = "user"
	}
	if role != "user" && role != "admin" {
		return nil, fmt.Errorf("%w: role must be user or admin", ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         req.Name,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	err := s.Repo.SetUserBlocked(ctx, id, blocked)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return err
}
