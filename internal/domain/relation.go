package domain

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the stance a relation revision takes toward its claim.
type Direction string

const (
	DirectionSupports    Direction = "supports"
	DirectionContradicts Direction = "contradicts"
	DirectionNeutral     Direction = "neutral"
)

func ValidDirection(d string) bool {
	switch Direction(d) {
	case DirectionSupports, DirectionContradicts, DirectionNeutral:
		return true
	}
	return false
}

// Contribution maps a direction onto a signed unit contribution. Anything
// that is not an explicit contradiction counts as supporting evidence.
func (d Direction) Contribution() float64 {
	if d == DirectionContradicts {
		return -1
	}
	return 1
}

// RelationKind names what a relation asserts ("treats", "causes", ...).
// The built-in constants cover the curated vocabulary; user-defined kinds
// are plain strings and flow through aggregation unchanged.
type RelationKind string

const (
	KindTreats      RelationKind = "treats"
	KindCauses      RelationKind = "causes"
	KindInteracts   RelationKind = "interacts_with"
	KindContraindic RelationKind = "contraindicated_for"
	KindAssociated  RelationKind = "associated_with"
)

func BuiltinKind(k RelationKind) bool {
	switch k {
	case KindTreats, KindCauses, KindInteracts, KindContraindic, KindAssociated:
		return true
	}
	return false
}

// Relation is the immutable anchor of a typed, multi-role claim between
// entities. A relation is a small hyperedge: its revision carries one role
// revision per participating entity, not a fixed source/target pair.
type Relation struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationRevision is one snapshot of a relation's claim. Confidence is the
// curator- or extractor-assigned weight of the claim in [0,1]; nil means
// unweighted and defaults to 1.0 during aggregation. Scope, when nil, marks
// the claim as generally applicable, which is distinct from an empty scope.
//
// DocumentRef and ExtractionModel are the one narrow mutable path on an
// otherwise append-only row: they may be set once, after creation, when an
// extraction pipeline later ties the revision back to a document.
type RelationRevision struct {
	ID          uuid.UUID    `json:"id"`
	RelationID  uuid.UUID    `json:"relation_id"`
	SourceID    uuid.UUID    `json:"source_id"`
	Kind        RelationKind `json:"kind"`
	Direction   Direction    `json:"direction"`
	Confidence  *float64     `json:"confidence,omitempty"`
	Scope       Scope        `json:"scope,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	DocumentRef string       `json:"document_ref,omitempty"`
	ExtractionModel string   `json:"extraction_model,omitempty"`
	Attribution
	CreatedAt time.Time `json:"created_at"`
}

// RoleRevision binds one entity into a relation revision under a named role
// ("subject", "object", "population", ...). Weight is signed in [-1,1];
// Coverage, when present, is non-negative.
type RoleRevision struct {
	ID                 uuid.UUID `json:"id"`
	RelationRevisionID uuid.UUID `json:"relation_revision_id"`
	EntityID           uuid.UUID `json:"entity_id"`
	Role               string    `json:"role"`
	Weight             float64   `json:"weight"`
	Coverage           *float64  `json:"coverage,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// RelationView is a current relation revision together with its roles, the
// shape everything downstream of the store works with.
type RelationView struct {
	RelationRevision
	Roles []RoleRevision `json:"roles"`
}
