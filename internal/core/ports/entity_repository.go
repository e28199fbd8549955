package ports

import (
	"context"

	"github.com/entityhub/entity-manager/internal/core/domain"
)

// EntityRepository persists entities. Every method is scoped by owner id;
// an entity owned by someone else is reported as domain.ErrEntityNotFound.
type EntityRepository interface {
	List(ctx context.Context, userID string, filter domain.EntityFilter) ([]domain.Entity, error)
	FindByID(ctx context.Context, userID, id string) (*domain.Entity, error)
	Create(ctx context.Context, entity *domain.Entity) error
	Update(ctx context.Context, entity *domain.Entity) error
	Delete(ctx context.Context, userID, id string) error
	CountByUser(ctx context.Context, userID string) (int64, error)
}
