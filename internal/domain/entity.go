package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is an immutable anchor for a curated concept (a drug, a disease,
// a gene). It carries no mutable attributes of its own; everything editable
// lives in its revisions.
type Entity struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Source is an immutable anchor for a literature source.
type Source struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Attribution records who or what produced a revision. Either field may be
// unset; a revision with neither is treated as system-originated.
type Attribution struct {
	CreatedBy      *uuid.UUID `json:"created_by,omitempty"`
	CreatedByModel string     `json:"created_by_model,omitempty"`
}

// EntityRevision is one snapshot of an entity's attributes. Revisions are
// append-only: rows are never rewritten, a new revision supersedes the old
// one by taking over the current-revision index entry.
type EntityRevision struct {
	ID       uuid.UUID `json:"id"`
	EntityID uuid.UUID `json:"entity_id"`
	Slug     string    `json:"slug"`
	Summary  string    `json:"summary,omitempty"`
	Attribution
	CreatedAt time.Time `json:"created_at"`
}

// SourceRevision is one snapshot of a source's attributes.
type SourceRevision struct {
	ID         uuid.UUID `json:"id"`
	SourceID   uuid.UUID `json:"source_id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors,omitempty"`
	TrustLevel float64   `json:"trust_level"`
	Attribution
	CreatedAt time.Time `json:"created_at"`
}

// EntityRecord pairs an anchor with its current revision. Current is nil for
// retired entities (anchor kept, no current revision).
type EntityRecord struct {
	Entity
	Current *EntityRevision `json:"current,omitempty"`
}

// SourceRecord pairs a source anchor with its current revision.
type SourceRecord struct {
	Source
	Current *SourceRevision `json:"current,omitempty"`
}
