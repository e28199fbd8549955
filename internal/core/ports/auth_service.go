package ports

import (
	"context"

	"github.com/entityhub/entity-manager/internal/auth"
	"github.com/entityhub/entity-manager/internal/core/domain"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	User  *domain.User
	Token string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// PasswordHasher is satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(fields auth.ClaimFields) (string, error)
}

// TokenVerifier is satisfied by *auth.TokenService.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}
