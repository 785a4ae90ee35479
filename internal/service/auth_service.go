package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lamngoc/student-portal/internal/models"
	appErrors "github.com/lamngoc/student-portal/pkg/errors"
)

type authUserRepository interface {
	FindActiveByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
}

// AuthService authenticates users against stored bcrypt hashes.
type AuthService struct {
	repo   authUserRepository
	logger *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, logger: logger}
}

// Login verifies the credentials and returns the user on success. Unknown
// username, inactive account, wrong password and storage faults are all
// reported as the same ErrInvalidCredentials so the caller cannot
// distinguish them; storage faults are logged here and nowhere surfaced.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.FindActiveByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("user lookup failed during login", zap.Error(err))
		}
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	return user, nil
}

// GetByID loads a user by identifier.
func (s *AuthService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
