package user

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/cash-advance-management/internal"
)

// Repository defines the data access methods for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	SetActive(ctx context.Context, id string, active bool) error
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err, "username", dto.Username)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: string(hash),
		Role:         dto.Role,
		AccessLevel:  dto.AccessLevel,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Warn("duplicate username or email", "username", dto.Username, "email", dto.Email)
			return nil, internal.NewConflictError("username or email already taken", internal.ErrCodeDuplicateEntry)
		}
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("user created",
		"user_id", u.ID,
		"username", u.Username,
		"role", u.Role)

	return u, nil
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}

// DeactivateUser soft-disables the account. There is no hard deletion of
// users so audit attribution stays resolvable.
func (s *Service) DeactivateUser(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return internal.ErrUserNotFound
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		s.logger.Error("failed to deactivate user", "error", err, "user_id", id)
		return err
	}

	s.logger.Info("user deactivated", "user_id", id)
	return nil
}

func (s *Service) RecordLogin(ctx context.Context, id string) error {
	return s.repo.RecordLogin(ctx, id, time.Now().UTC())
}
