package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/entityhub/entity-manager/internal/auth"
	"github.com/entityhub/entity-manager/internal/core/domain"
	"github.com/entityhub/entity-manager/internal/core/ports"
)

// AuthService implements registration, login and the profile view.
type AuthService struct {
	users    ports.UserRepository
	entities ports.EntityRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	logger   zerolog.Logger
	now      func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	entities ports.EntityRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		entities: entities,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || input.Password == "" {
		return nil, domain.NewValidationError("name, email and password are required")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrUserExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	token, err := s.issue(created)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Msg("user registered")
	return &ports.AuthResult{User: created, Token: token}, nil
}

// Login never reveals whether the email exists: unknown users and wrong
// passwords both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info().Str("user_id", user.ID).Msg("login rejected: wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	n, err := s.entities.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}

	return &domain.UserProfile{User: *user, Count: domain.ProfileCount{Entities: n}}, nil
}

func (s *AuthService) issue(user *domain.User) (string, error) {
	token, err := s.tokens.Issue(auth.ClaimFields{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
