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
	ErrSourceNotFound  = errors.New("source not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrTrustLevelRange = errors.New("trust_level must be between 0 and 1")
)

// DefaultTrustLevel is assigned when a source revision carries no explicit
// trust level.
const DefaultTrustLevel = 0.5

type SourceService struct {
	sources domain.SourceStore
	logger  *zap.Logger
}

func NewSourceService(ss domain.SourceStore, logger *zap.Logger) *SourceService {
	return &SourceService{sources: ss, logger: logger}
}

func (s *SourceService) validate(rev *domain.SourceRevision) error {
	if rev.Title == "" {
		return ErrTitleRequired
	}
	if rev.TrustLevel < 0 || rev.TrustLevel > 1 {
		return ErrTrustLevelRange
	}
	return nil
}

func (s *SourceService) Create(ctx context.Context, rev *domain.SourceRevision) (*domain.SourceRecord, error) {
	if rev.TrustLevel == 0 {
		rev.TrustLevel = DefaultTrustLevel
	}
	if err := s.validate(rev); err != nil {
		return nil, err
	}

	source := &domain.Source{}
	if err := s.sources.Create(ctx, source); err != nil {
		return nil, err
	}
	rev.SourceID = source.ID
	if err := s.sources.CreateRevision(ctx, rev, true); err != nil {
		return nil, err
	}

	s.logger.Debug("source created",
		zap.String("source_id", source.ID.String()),
		zap.String("title", rev.Title))

	return &domain.SourceRecord{Source: *source, Current: rev}, nil
}

func (s *SourceService) Get(ctx context.Context, id uuid.UUID) (*domain.SourceRecord, error) {
	source, err := s.sources.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSourceNotFound
		}
		return nil, err
	}

	rec := &domain.SourceRecord{Source: *source}
	current, err := s.sources.GetCurrentRevision(ctx, id)
	switch {
	case err == nil:
		rec.Current = current
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, err
	}
	return rec, nil
}

func (s *SourceService) Revise(ctx context.Context, rev *domain.SourceRevision) error {
	if err := s.validate(rev); err != nil {
		return err
	}
	err := s.sources.CreateRevision(ctx, rev, true)
	if errors.Is(err, store.ErrParentMissing) {
		return ErrSourceNotFound
	}
	return err
}

func (s *SourceService) History(ctx context.Context, id uuid.UUID) ([]domain.SourceRevision, error) {
	return s.sources.ListRevisions(ctx, id)
}

func (s *SourceService) Retire(ctx context.Context, id uuid.UUID) error {
	err := s.sources.Retire(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSourceNotFound
	}
	return err
}

func (s *SourceService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.sources.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSourceNotFound
	}
	return err
}
