package domain

import (
	"context"

	"github.com/google/uuid"
)

type EntityStore interface {
	Create(ctx context.Context, e *Entity) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entity, error)
	// CreateRevision appends a revision and, when setCurrent is true,
	// atomically repoints the current-revision index at it.
	CreateRevision(ctx context.Context, rev *EntityRevision, setCurrent bool) error
	GetCurrentRevision(ctx context.Context, entityID uuid.UUID) (*EntityRevision, error)
	ListRevisions(ctx context.Context, entityID uuid.UUID) ([]EntityRevision, error)
	List(ctx context.Context, limit int) ([]EntityRecord, error)
	// Retire clears the current-revision entry, leaving the anchor and its
	// history in place. Delete removes the anchor and cascades.
	Retire(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SourceStore interface {
	Create(ctx context.Context, s *Source) error
	GetByID(ctx context.Context, id uuid.UUID) (*Source, error)
	CreateRevision(ctx context.Context, rev *SourceRevision, setCurrent bool) error
	GetCurrentRevision(ctx context.Context, sourceID uuid.UUID) (*SourceRevision, error)
	ListRevisions(ctx context.Context, sourceID uuid.UUID) ([]SourceRevision, error)
	Retire(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RelationStore interface {
	Create(ctx context.Context, r *Relation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Relation, error)
	CreateRevision(ctx context.Context, rev *RelationRevision, roles []RoleRevision, setCurrent bool) error
	GetCurrentRevision(ctx context.Context, relationID uuid.UUID) (*RelationView, error)
	// ListCurrentByEntity returns every current relation revision with a
	// role revision referencing the entity. An unknown entity yields an
	// empty slice, not an error.
	ListCurrentByEntity(ctx context.Context, entityID uuid.UUID) ([]RelationView, error)
	// AttachExtraction sets the document/extraction fields on a revision,
	// only if they are still unset. This is the single permitted update on
	// a revision row.
	AttachExtraction(ctx context.Context, revisionID uuid.UUID, documentRef, extractionModel string) error
	Retire(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type InferenceCacheStore interface {
	Get(ctx context.Context, scopeHash, modelVersion string) (*ComputedInference, error)
	// Put inserts the row if the key is free and is a no-op otherwise;
	// concurrent writers for the same key are benign because the inputs
	// for a given key are deterministic.
	Put(ctx context.Context, ci *ComputedInference) error
	PurgeByEntity(ctx context.Context, entityID uuid.UUID) (int64, error)
	PurgeAll(ctx context.Context) (int64, error)
}
