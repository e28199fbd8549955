package ports

import (
	"context"

	"github.com/entityhub/entity-manager/internal/core/domain"
)

type CreateEntityInput struct {
	Title       string
	Description *string
	Category    string
	Priority    domain.Priority
}

type EntityService interface {
	List(ctx context.Context, userID string, filter domain.EntityFilter) ([]domain.Entity, error)
	Get(ctx context.Context, userID, id string) (*domain.Entity, error)
	Create(ctx context.Context, userID string, input CreateEntityInput) (*domain.Entity, error)
	Update(ctx context.Context, userID, id string, patch domain.EntityPatch) (*domain.Entity, error)
	Delete(ctx context.Context, userID, id string) error
}
