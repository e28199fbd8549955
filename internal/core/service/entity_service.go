package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/entityhub/entity-manager/internal/core/domain"
	"github.com/entityhub/entity-manager/internal/core/ports"
)

type EntityService struct {
	repo   ports.EntityRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewEntityService(repo ports.EntityRepository, logger zerolog.Logger) *EntityService {
	return &EntityService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *EntityService) List(ctx context.Context, userID string, filter domain.EntityFilter) ([]domain.Entity, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("Invalid status filter")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, domain.NewValidationError("Invalid priority filter")
	}
	filter.Search = strings.TrimSpace(filter.Search)

	return s.repo.List(ctx, userID, filter)
}

func (s *EntityService) Get(ctx context.Context, userID, id string) (*domain.Entity, error) {
	return s.repo.FindByID(ctx, userID, id)
}

// Create stores a new active entity for userID. Priority defaults to medium.
func (s *EntityService) Create(ctx context.Context, userID string, input ports.CreateEntityInput) (*domain.Entity, error) {
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, domain.NewValidationError("Invalid priority")
	}

	now := s.now()
	e := &domain.Entity{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Status:      domain.StatusActive,
		Priority:    priority,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Str("entity_id", e.ID).Msg("entity created")
	return e, nil
}

func (s *EntityService) Update(ctx context.Context, userID, id string, patch domain.EntityPatch) (*domain.Entity, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.NewValidationError("Invalid status")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, domain.NewValidationError("Invalid priority")
	}

	e, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(e)
	e.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EntityService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("entity_id", id).Msg("entity deleted")
	return nil
}
