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
	ErrRelationNotFound   = errors.New("relation not found")
	ErrKindRequired       = errors.New("kind is required")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrSourceRequired     = errors.New("source_id is required")
	ErrNoRoles            = errors.New("at least one role is required")
	ErrRoleRequired       = errors.New("role name is required")
	ErrWeightOutOfRange   = errors.New("weight must be between -1 and 1")
	ErrNegativeCoverage   = errors.New("coverage must be non-negative")
	ErrConfidenceRange    = errors.New("confidence must be between 0 and 1")
	ErrExtractionAttached = errors.New("extraction already attached")
	ErrRevisionNotFound   = errors.New("relation revision not found")
)

type RelationService struct {
	relations domain.RelationStore
	logger    *zap.Logger
}

func NewRelationService(rs domain.RelationStore, logger *zap.Logger) *RelationService {
	return &RelationService{relations: rs, logger: logger}
}

func validateRelation(rev *domain.RelationRevision, roles []domain.RoleRevision) error {
	if rev.Kind == "" {
		return ErrKindRequired
	}
	if rev.Direction == "" {
		rev.Direction = domain.DirectionNeutral
	}
	if !domain.ValidDirection(string(rev.Direction)) {
		return ErrInvalidDirection
	}
	if rev.SourceID == uuid.Nil {
		return ErrSourceRequired
	}
	if rev.Confidence != nil && (*rev.Confidence < 0 || *rev.Confidence > 1) {
		return ErrConfidenceRange
	}
	if len(roles) == 0 {
		return ErrNoRoles
	}
	for i := range roles {
		r := &roles[i]
		if r.Role == "" {
			return ErrRoleRequired
		}
		if r.Weight < -1 || r.Weight > 1 {
			return ErrWeightOutOfRange
		}
		if r.Coverage != nil && *r.Coverage < 0 {
			return ErrNegativeCoverage
		}
	}
	return nil
}

// Create mints a relation anchor and writes its first revision with role
// revisions, grounded in a source.
func (s *RelationService) Create(ctx context.Context, rev *domain.RelationRevision, roles []domain.RoleRevision) (*domain.RelationView, error) {
	if err := validateRelation(rev, roles); err != nil {
		return nil, err
	}

	relation := &domain.Relation{}
	if err := s.relations.Create(ctx, relation); err != nil {
		return nil, err
	}
	rev.RelationID = relation.ID
	if err := s.relations.CreateRevision(ctx, rev, roles, true); err != nil {
		if errors.Is(err, store.ErrParentMissing) {
			// Source or role entity does not exist; the anchor just minted
			// is left dangling and harmless.
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	s.logger.Debug("relation created",
		zap.String("relation_id", relation.ID.String()),
		zap.String("kind", string(rev.Kind)),
		zap.Int("roles", len(roles)))

	return &domain.RelationView{RelationRevision: *rev, Roles: roles}, nil
}

func (s *RelationService) Get(ctx context.Context, relationID uuid.UUID) (*domain.RelationView, error) {
	view, err := s.relations.GetCurrentRevision(ctx, relationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, err
	}
	return view, nil
}

// Revise supersedes the current revision of an existing relation.
func (s *RelationService) Revise(ctx context.Context, rev *domain.RelationRevision, roles []domain.RoleRevision) error {
	if err := validateRelation(rev, roles); err != nil {
		return err
	}
	err := s.relations.CreateRevision(ctx, rev, roles, true)
	if errors.Is(err, store.ErrParentMissing) {
		return ErrRelationNotFound
	}
	return err
}

func (s *RelationService) ListByEntity(ctx context.Context, entityID uuid.UUID) ([]domain.RelationView, error) {
	return s.relations.ListCurrentByEntity(ctx, entityID)
}

// AttachExtraction records the document/extraction provenance on a revision
// after the fact. This is an attribute-add, permitted only while the fields
// are unset.
func (s *RelationService) AttachExtraction(ctx context.Context, revisionID uuid.UUID, documentRef, extractionModel string) error {
	err := s.relations.AttachExtraction(ctx, revisionID, documentRef, extractionModel)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrRevisionNotFound
	case errors.Is(err, store.ErrAlreadyAttached):
		return ErrExtractionAttached
	}
	return err
}

func (s *RelationService) Retire(ctx context.Context, id uuid.UUID) error {
	err := s.relations.Retire(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRelationNotFound
	}
	return err
}

func (s *RelationService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.relations.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRelationNotFound
	}
	return err
}
