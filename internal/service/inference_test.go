package service

import (
	"context"
	"errors"
	"testing"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRelationStore struct {
	byEntity map[uuid.UUID][]domain.RelationView
}

func newMockRelationStore() *mockRelationStore {
	return &mockRelationStore{byEntity: make(map[uuid.UUID][]domain.RelationView)}
}

func (m *mockRelationStore) add(entityID uuid.UUID, view domain.RelationView) {
	m.byEntity[entityID] = append(m.byEntity[entityID], view)
}

func (m *mockRelationStore) Create(ctx context.Context, r *domain.Relation) error {
	r.ID = uuid.New()
	return nil
}

func (m *mockRelationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relation, error) {
	return nil, store.ErrNotFound
}

func (m *mockRelationStore) CreateRevision(ctx context.Context, rev *domain.RelationRevision, roles []domain.RoleRevision, current bool) error {
	rev.ID = uuid.New()
	return nil
}

func (m *mockRelationStore) GetCurrentRevision(ctx context.Context, relationID uuid.UUID) (*domain.RelationView, error) {
	return nil, store.ErrNotFound
}

func (m *mockRelationStore) ListCurrentByEntity(ctx context.Context, entityID uuid.UUID) ([]domain.RelationView, error) {
	return m.byEntity[entityID], nil
}

func (m *mockRelationStore) AttachExtraction(ctx context.Context, revisionID uuid.UUID, documentRef, extractionModel string) error {
	return nil
}

func (m *mockRelationStore) Retire(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *mockRelationStore) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type mockCacheStore struct {
	rows    map[string]*domain.ComputedInference
	puts    int
	gets    int
	failGet bool
	failPut bool
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{rows: make(map[string]*domain.ComputedInference)}
}

func cacheKey(scopeHash, modelVersion string) string {
	return scopeHash + "|" + modelVersion
}

func (m *mockCacheStore) Get(ctx context.Context, scopeHash, modelVersion string) (*domain.ComputedInference, error) {
	m.gets++
	if m.failGet {
		return nil, errors.New("cache unavailable")
	}
	ci, ok := m.rows[cacheKey(scopeHash, modelVersion)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return ci, nil
}

func (m *mockCacheStore) Put(ctx context.Context, ci *domain.ComputedInference) error {
	if m.failPut {
		return errors.New("cache unavailable")
	}
	key := cacheKey(ci.ScopeHash, ci.ModelVersion)
	if _, exists := m.rows[key]; exists {
		// Write-once: losing the race is a silent no-op.
		return nil
	}
	m.puts++
	m.rows[key] = ci
	return nil
}

func (m *mockCacheStore) PurgeByEntity(ctx context.Context, entityID uuid.UUID) (int64, error) {
	var purged int64
	for key, ci := range m.rows {
		if ci.EntityID == entityID {
			delete(m.rows, key)
			purged++
		}
	}
	return purged, nil
}

func (m *mockCacheStore) PurgeAll(ctx context.Context) (int64, error) {
	purged := int64(len(m.rows))
	m.rows = make(map[string]*domain.ComputedInference)
	return purged, nil
}

func relView(entityID uuid.UUID, kind domain.RelationKind, direction domain.Direction, confidence *float64, scope domain.Scope) domain.RelationView {
	rev := domain.RelationRevision{
		ID:         uuid.New(),
		RelationID: uuid.New(),
		SourceID:   uuid.New(),
		Kind:       kind,
		Direction:  direction,
		Confidence: confidence,
		Scope:      scope,
	}
	return domain.RelationView{
		RelationRevision: rev,
		Roles: []domain.RoleRevision{{
			ID:                 uuid.New(),
			RelationRevisionID: rev.ID,
			EntityID:           entityID,
			Role:               "subject",
			Weight:             1,
		}},
	}
}

func floatPtr(v float64) *float64 { return &v }

func newTestInferenceService(rels *mockRelationStore, cache *mockCacheStore) *InferenceService {
	var cs domain.InferenceCacheStore
	if cache != nil {
		cs = cache
	}
	return NewInferenceService(rels, cs, zap.NewNop(), "test-v1", 1.0)
}

func TestInfer_OpposingRelationsCancel(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil, nil))
	rels.add(entityID, relView(entityID, "effect", domain.DirectionContradicts, nil, nil))

	svc := newTestInferenceService(rels, newMockCacheStore())

	result, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.Len(t, result.RoleInferences, 1)

	inf := result.RoleInferences[0]
	require.Equal(t, "effect", inf.RoleType)
	require.NotNil(t, inf.Score)
	require.InDelta(t, 0.0, *inf.Score, 1e-9)
	require.InDelta(t, 2.0, inf.Coverage, 1e-9)
	require.Equal(t, 2, inf.RelationCount)
	require.InDelta(t, 1.0, inf.Disagreement, 1e-9)
	require.InDelta(t, Confidence(2.0, 1.0), inf.Confidence, 1e-9)
}

func TestInfer_SingleSupportingRelation(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, floatPtr(0.9), nil))

	svc := newTestInferenceService(rels, newMockCacheStore())

	result, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.Len(t, result.RoleInferences, 1)

	inf := result.RoleInferences[0]
	require.NotNil(t, inf.Score)
	// A single supporting contribution normalizes to 1 regardless of weight.
	require.InDelta(t, 1.0, *inf.Score, 1e-9)
	require.InDelta(t, 0.9, inf.Coverage, 1e-9)
	require.Equal(t, 1, inf.RelationCount)
	require.InDelta(t, 0.0, inf.Disagreement, 1e-9)
	require.InDelta(t, Confidence(0.9, 1.0), inf.Confidence, 1e-9)
}

func TestInfer_CacheIdempotent(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, floatPtr(0.8), nil))
	rels.add(entityID, relView(entityID, "causes", domain.DirectionContradicts, nil, nil))
	cache := newMockCacheStore()

	svc := newTestInferenceService(rels, cache)

	first, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.True(t, second.CacheHit)

	require.Equal(t, 1, cache.puts, "exactly one cache row per (entity, scope, model_version)")
	require.Equal(t, first.RoleInferences, second.RoleInferences)
}

func TestInfer_CacheHitListingStaysFresh(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil, nil))
	cache := newMockCacheStore()

	svc := newTestInferenceService(rels, cache)

	first, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.Len(t, first.RelationsByKind[domain.RelationKind("effect")], 1)

	// A relation added after the cache row was written must still show up
	// in the listing; only the numbers are served stale from cache.
	rels.add(entityID, relView(entityID, "effect", domain.DirectionContradicts, nil, nil))

	second, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Len(t, second.RelationsByKind[domain.RelationKind("effect")], 2)
	require.Equal(t, first.RoleInferences, second.RoleInferences)
}

func TestInfer_ScopeFiltering(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil,
		domain.Scope{"population": "adults"}))
	rels.add(entityID, relView(entityID, "effect", domain.DirectionContradicts, nil,
		domain.Scope{"population": "children"}))
	// A relation with no scope claim does not satisfy a narrowing filter.
	rels.add(entityID, relView(entityID, "effect", domain.DirectionContradicts, nil, nil))

	svc := newTestInferenceService(rels, newMockCacheStore())

	result, err := svc.Infer(context.Background(), entityID,
		domain.Scope{"population": "adults"}, false)
	require.NoError(t, err)
	require.Len(t, result.RelationsByKind[domain.RelationKind("effect")], 1)
	require.Len(t, result.RoleInferences, 1)
	require.NotNil(t, result.RoleInferences[0].Score)
	require.InDelta(t, 1.0, *result.RoleInferences[0].Score, 1e-9)

	// Filter with a key the scope lacks matches nothing.
	result, err = svc.Infer(context.Background(), entityID,
		domain.Scope{"population": "adults", "condition": "chronic"}, false)
	require.NoError(t, err)
	require.Empty(t, result.RoleInferences)

	// No filter considers all relations regardless of their scope.
	result, err = svc.Infer(context.Background(), entityID, nil, false)
	require.NoError(t, err)
	require.Len(t, result.RelationsByKind[domain.RelationKind("effect")], 3)
}

func TestInfer_ScopedQueriesGetDistinctCacheRows(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil,
		domain.Scope{"population": "adults"}))
	cache := newMockCacheStore()

	svc := newTestInferenceService(rels, cache)

	_, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	_, err = svc.Infer(context.Background(), entityID, domain.Scope{"population": "adults"}, true)
	require.NoError(t, err)

	require.Equal(t, 2, cache.puts, "different scopes are different cache keys")
}

func TestInfer_UnknownEntityIsEmptyNotError(t *testing.T) {
	cache := newMockCacheStore()
	svc := newTestInferenceService(newMockRelationStore(), cache)

	result, err := svc.Infer(context.Background(), uuid.New(), nil, true)
	require.NoError(t, err)
	require.Empty(t, result.RelationsByKind)
	require.Empty(t, result.RoleInferences)
	require.Equal(t, 0, cache.puts, "empty results are not cached")
}

func TestInfer_DegradedCacheStillAnswers(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil, nil))

	cache := newMockCacheStore()
	cache.failGet = true
	cache.failPut = true
	svc := newTestInferenceService(rels, cache)

	result, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.Len(t, result.RoleInferences, 1)
	require.False(t, result.CacheHit)
}

func TestInfer_NilCacheStillAnswers(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil, nil))

	svc := newTestInferenceService(rels, nil)

	result, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)
	require.Len(t, result.RoleInferences, 1)
}

func TestInfer_UseCacheFalseBypassesCache(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil, nil))
	cache := newMockCacheStore()

	svc := newTestInferenceService(rels, cache)

	_, err := svc.Infer(context.Background(), entityID, nil, false)
	require.NoError(t, err)
	require.Equal(t, 0, cache.gets)
	require.Equal(t, 0, cache.puts)
}

func TestInfer_KindsAreSortedDeterministically(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityID, relView(entityID, "treats", domain.DirectionSupports, nil, nil))
	rels.add(entityID, relView(entityID, "causes", domain.DirectionSupports, nil, nil))
	rels.add(entityID, relView(entityID, "associated_with", domain.DirectionSupports, nil, nil))

	svc := newTestInferenceService(rels, nil)

	result, err := svc.Infer(context.Background(), entityID, nil, false)
	require.NoError(t, err)
	require.Len(t, result.RoleInferences, 3)
	require.Equal(t, "associated_with", result.RoleInferences[0].RoleType)
	require.Equal(t, "causes", result.RoleInferences[1].RoleType)
	require.Equal(t, "treats", result.RoleInferences[2].RoleType)
}

func TestInfer_UncertaintyIsMeanDisagreement(t *testing.T) {
	entityID := uuid.New()
	rels := newMockRelationStore()
	// "effect" fully contradicted, "causes" fully agreed.
	rels.add(entityID, relView(entityID, "effect", domain.DirectionSupports, nil, nil))
	rels.add(entityID, relView(entityID, "effect", domain.DirectionContradicts, nil, nil))
	rels.add(entityID, relView(entityID, "causes", domain.DirectionSupports, nil, nil))
	cache := newMockCacheStore()

	svc := newTestInferenceService(rels, cache)

	_, err := svc.Infer(context.Background(), entityID, nil, true)
	require.NoError(t, err)

	require.Len(t, cache.rows, 1)
	for _, ci := range cache.rows {
		require.InDelta(t, 0.5, ci.Uncertainty, 1e-9)
		require.Equal(t, "test-v1", ci.ModelVersion)
		require.Equal(t, entityID, ci.EntityID)
	}
}

func TestPurgeCache(t *testing.T) {
	entityA := uuid.New()
	entityB := uuid.New()
	rels := newMockRelationStore()
	rels.add(entityA, relView(entityA, "effect", domain.DirectionSupports, nil, nil))
	rels.add(entityB, relView(entityB, "effect", domain.DirectionSupports, nil, nil))
	cache := newMockCacheStore()

	svc := newTestInferenceService(rels, cache)

	_, err := svc.Infer(context.Background(), entityA, nil, true)
	require.NoError(t, err)
	_, err = svc.Infer(context.Background(), entityB, nil, true)
	require.NoError(t, err)
	require.Len(t, cache.rows, 2)

	purged, err := svc.PurgeCache(context.Background(), &entityA)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)
	require.Len(t, cache.rows, 1)

	purged, err = svc.PurgeCache(context.Background(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)
	require.Empty(t, cache.rows)
}
