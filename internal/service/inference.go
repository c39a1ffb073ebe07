package service

import (
	"context"
	"errors"
	"sort"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InferenceService aggregates the evidence touching an entity into one
// verdict per relation kind, with results cached by scope hash. The cache is
// read-through and best-effort: a broken cache degrades to recomputation,
// never to a wrong or missing answer.
type InferenceService struct {
	relations    domain.RelationStore
	cache        domain.InferenceCacheStore
	logger       *zap.Logger
	modelVersion string
	lambda       float64
}

func NewInferenceService(rs domain.RelationStore, cache domain.InferenceCacheStore, logger *zap.Logger, modelVersion string, lambda float64) *InferenceService {
	if lambda <= 0 {
		lambda = DefaultConfidenceLambda
	}
	return &InferenceService{
		relations:    rs,
		cache:        cache,
		logger:       logger,
		modelVersion: modelVersion,
		lambda:       lambda,
	}
}

// Infer computes the per-kind inference for an entity, restricted to
// relations whose scope satisfies filter when filter is non-empty.
//
// An unknown entity is not an error: absence of evidence is a valid state,
// reported as an empty, well-formed result.
//
// On a cache hit only the numeric recomputation is skipped; the relation
// listing is always re-read so relations added since the cache row was
// written stay visible next to the cached numbers.
func (s *InferenceService) Infer(ctx context.Context, entityID uuid.UUID, filter domain.Scope, useCache bool) (*domain.InferenceResult, error) {
	scopeHash := domain.ScopeHash(entityID, filter)

	if useCache && s.cache != nil {
		cached, err := s.cache.Get(ctx, scopeHash, s.modelVersion)
		switch {
		case err == nil:
			views, err := s.fetchRelations(ctx, entityID, filter)
			if err != nil {
				return nil, err
			}
			return &domain.InferenceResult{
				EntityID:        entityID,
				RelationsByKind: groupByKind(views),
				RoleInferences:  cached.RoleResults,
				CacheHit:        true,
			}, nil
		case !errors.Is(err, store.ErrNotFound):
			s.logger.Warn("inference cache read failed, recomputing",
				zap.String("entity_id", entityID.String()),
				zap.Error(err))
		}
	}

	views, err := s.fetchRelations(ctx, entityID, filter)
	if err != nil {
		return nil, err
	}
	grouped := groupByKind(views)

	kinds := make([]domain.RelationKind, 0, len(grouped))
	for kind := range grouped {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	inferences := make([]domain.RoleInference, 0, len(kinds))
	for _, kind := range kinds {
		rels := grouped[kind]
		items := make([]Evidence, len(rels))
		for i, rel := range rels {
			weight := 1.0
			if rel.Confidence != nil {
				weight = *rel.Confidence
			}
			items[i] = Evidence{
				Weight:        weight,
				Contributions: map[string]float64{string(kind): rel.Direction.Contribution()},
			}
		}
		score, coverage := AggregateEvidence(items, string(kind))
		inferences = append(inferences, domain.RoleInference{
			RoleType:      string(kind),
			Score:         score,
			Coverage:      coverage,
			RelationCount: len(rels),
			Confidence:    Confidence(coverage, s.lambda),
			Disagreement:  Disagreement(items, string(kind)),
		})
	}

	if useCache && s.cache != nil && len(inferences) > 0 {
		var total float64
		for _, inf := range inferences {
			total += inf.Disagreement
		}
		ci := &domain.ComputedInference{
			EntityID:     entityID,
			ScopeHash:    scopeHash,
			ModelVersion: s.modelVersion,
			RoleResults:  inferences,
			Uncertainty:  total / float64(len(inferences)),
		}
		if err := s.cache.Put(ctx, ci); err != nil {
			s.logger.Warn("inference cache write failed",
				zap.String("entity_id", entityID.String()),
				zap.Error(err))
		}
	}

	return &domain.InferenceResult{
		EntityID:        entityID,
		RelationsByKind: grouped,
		RoleInferences:  inferences,
	}, nil
}

// PurgeCache drops cache rows, for one entity or globally. Explicit
// deletion is the only invalidation path; there is no TTL.
func (s *InferenceService) PurgeCache(ctx context.Context, entityID *uuid.UUID) (int64, error) {
	if s.cache == nil {
		return 0, nil
	}
	if entityID != nil {
		return s.cache.PurgeByEntity(ctx, *entityID)
	}
	return s.cache.PurgeAll(ctx)
}

func (s *InferenceService) fetchRelations(ctx context.Context, entityID uuid.UUID, filter domain.Scope) ([]domain.RelationView, error) {
	views, err := s.relations.ListCurrentByEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		// No filter means "all relations regardless of scope"; the matcher
		// is only consulted for narrowing queries.
		return views, nil
	}
	matched := views[:0:0]
	for _, v := range views {
		if v.Scope.Matches(filter) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

func groupByKind(views []domain.RelationView) map[domain.RelationKind][]domain.RelationView {
	grouped := make(map[domain.RelationKind][]domain.RelationView, len(views))
	for _, v := range views {
		grouped[v.Kind] = append(grouped[v.Kind], v)
	}
	return grouped
}
