package service

import (
	"context"
	"errors"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrSlugRequired   = errors.New("slug is required")
)

type EntityService struct {
	entities domain.EntityStore
	logger   *zap.Logger
}

func NewEntityService(es domain.EntityStore, logger *zap.Logger) *EntityService {
	return &EntityService{entities: es, logger: logger}
}

// Create mints an anchor and writes its first revision as current.
func (s *EntityService) Create(ctx context.Context, rev *domain.EntityRevision) (*domain.EntityRecord, error) {
	if rev.Slug == "" {
		return nil, ErrSlugRequired
	}

	entity := &domain.Entity{}
	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, err
	}
	rev.EntityID = entity.ID
	if err := s.entities.CreateRevision(ctx, rev, true); err != nil {
		return nil, err
	}

	s.logger.Debug("entity created",
		zap.String("entity_id", entity.ID.String()),
		zap.String("slug", rev.Slug))

	return &domain.EntityRecord{Entity: *entity, Current: rev}, nil
}

func (s *EntityService) Get(ctx context.Context, id uuid.UUID) (*domain.EntityRecord, error) {
	entity, err := s.entities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}

	rec := &domain.EntityRecord{Entity: *entity}
	current, err := s.entities.GetCurrentRevision(ctx, id)
	switch {
	case err == nil:
		rec.Current = current
	case errors.Is(err, store.ErrNotFound):
		// Retired entity: anchor kept, no current revision.
	default:
		return nil, err
	}
	return rec, nil
}

// Revise appends a new revision, which supersedes the previous current one.
func (s *EntityService) Revise(ctx context.Context, rev *domain.EntityRevision) error {
	if rev.Slug == "" {
		return ErrSlugRequired
	}
	err := s.entities.CreateRevision(ctx, rev, true)
	if errors.Is(err, store.ErrParentMissing) {
		return ErrEntityNotFound
	}
	return err
}

func (s *EntityService) History(ctx context.Context, id uuid.UUID) ([]domain.EntityRevision, error) {
	return s.entities.ListRevisions(ctx, id)
}

func (s *EntityService) List(ctx context.Context, limit int) ([]domain.EntityRecord, error) {
	return s.entities.List(ctx, limit)
}

func (s *EntityService) Retire(ctx context.Context, id uuid.UUID) error {
	err := s.entities.Retire(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrEntityNotFound
	}
	return err
}

func (s *EntityService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.entities.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrEntityNotFound
	}
	return err
}
