package auth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/cash-advance-management/internal"
)

// UserDirectory is the slice of the user store auth needs.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
}

type Service struct {
	users          UserDirectory
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(users UserDirectory, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		users:          users,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials, stamps last_login_at and returns a
// token pair.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	account, err := s.users.GetByUsername(ctx, dto.Username)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	if !account.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	if err := s.users.RecordLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		// login still succeeds; the timestamp is informational
		s.logger.Warn("failed to record login time", "error", err, "user_id", account.ID)
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(account.ID, account.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(account.ID, account.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	s.logger.Info("user authenticated", "user_id", account.ID, "username", account.Username)

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens validates the refresh token and returns a new pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	account, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !account.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(account.ID, account.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	newRefreshToken, err := s.tokenGenerator.GenerateRefreshToken(account.ID, account.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// ResolveUser loads the principal for validated claims.
func (s *Service) ResolveUser(ctx context.Context, claims *Claims) (*User, error) {
	account, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}
	if !account.IsActive {
		return nil, internal.ErrUserInactive
	}

	return &User{
		ID:          account.ID,
		Username:    account.Username,
		Role:        account.Role,
		AccessLevel: account.AccessLevel,
	}, nil
}
