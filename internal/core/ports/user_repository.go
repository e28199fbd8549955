package ports

import (
	"context"

	"github.com/entityhub/entity-manager/internal/core/domain"
)

// UserRepository persists accounts. Lookups return domain.ErrUserNotFound
// when nothing matches and Create returns domain.ErrUserExists on a
// duplicate email.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
