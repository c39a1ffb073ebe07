package service

import (
	"context"
	"testing"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSourceStore struct {
	anchors   map[uuid.UUID]domain.Source
	revisions map[uuid.UUID][]domain.SourceRevision
	current   map[uuid.UUID]uuid.UUID
}

func newMemSourceStore() *memSourceStore {
	return &memSourceStore{
		anchors:   make(map[uuid.UUID]domain.Source),
		revisions: make(map[uuid.UUID][]domain.SourceRevision),
		current:   make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *memSourceStore) Create(ctx context.Context, s *domain.Source) error {
	s.ID = uuid.New()
	m.anchors[s.ID] = *s
	return nil
}

func (m *memSourceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	s, ok := m.anchors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *memSourceStore) CreateRevision(ctx context.Context, rev *domain.SourceRevision, setCurrent bool) error {
	if _, ok := m.anchors[rev.SourceID]; !ok {
		return store.ErrParentMissing
	}
	rev.ID = uuid.New()
	m.revisions[rev.SourceID] = append(m.revisions[rev.SourceID], *rev)
	if setCurrent {
		m.current[rev.SourceID] = rev.ID
	}
	return nil
}

func (m *memSourceStore) GetCurrentRevision(ctx context.Context, sourceID uuid.UUID) (*domain.SourceRevision, error) {
	currentID, ok := m.current[sourceID]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, rev := range m.revisions[sourceID] {
		if rev.ID == currentID {
			return &rev, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memSourceStore) ListRevisions(ctx context.Context, sourceID uuid.UUID) ([]domain.SourceRevision, error) {
	return m.revisions[sourceID], nil
}

func (m *memSourceStore) Retire(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.current[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.current, id)
	return nil
}

func (m *memSourceStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.anchors[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.anchors, id)
	delete(m.revisions, id)
	delete(m.current, id)
	return nil
}

func TestSourceCreate_DefaultsTrustLevel(t *testing.T) {
	svc := NewSourceService(newMemSourceStore(), zap.NewNop())

	rec, err := svc.Create(context.Background(), &domain.SourceRevision{
		Title:   "Journal of Ethnopharmacology 2024",
		Authors: []string{"Okafor", "Lindqvist"},
	})
	require.NoError(t, err)
	require.Equal(t, DefaultTrustLevel, rec.Current.TrustLevel)
}

func TestSourceCreate_Validation(t *testing.T) {
	svc := NewSourceService(newMemSourceStore(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, &domain.SourceRevision{TrustLevel: 0.8})
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, &domain.SourceRevision{Title: "x", TrustLevel: 1.2})
	require.ErrorIs(t, err, ErrTrustLevelRange)
}

func TestSourceRevise_AdjustsTrust(t *testing.T) {
	svc := NewSourceService(newMemSourceStore(), zap.NewNop())
	ctx := context.Background()

	rec, err := svc.Create(ctx, &domain.SourceRevision{Title: "preprint", TrustLevel: 0.3})
	require.NoError(t, err)

	err = svc.Revise(ctx, &domain.SourceRevision{
		SourceID:   rec.Source.ID,
		Title:      "peer-reviewed publication",
		TrustLevel: 0.9,
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, rec.Source.ID)
	require.NoError(t, err)
	require.Equal(t, "peer-reviewed publication", got.Current.Title)
	require.InDelta(t, 0.9, got.Current.TrustLevel, 1e-9)

	history, err := svc.History(ctx, rec.Source.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestSourceRetireAndDelete(t *testing.T) {
	svc := NewSourceService(newMemSourceStore(), zap.NewNop())
	ctx := context.Background()

	rec, err := svc.Create(ctx, &domain.SourceRevision{Title: "retracted study", TrustLevel: 0.7})
	require.NoError(t, err)

	require.NoError(t, svc.Retire(ctx, rec.Source.ID))
	got, err := svc.Get(ctx, rec.Source.ID)
	require.NoError(t, err)
	require.Nil(t, got.Current)

	require.NoError(t, svc.Delete(ctx, rec.Source.ID))
	_, err = svc.Get(ctx, rec.Source.ID)
	require.ErrorIs(t, err, ErrSourceNotFound)
}
