package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoleInference is the aggregated verdict for one relation kind.
//
// Score is the normalized evidence balance in [-1,1], nil when no relation
// of the kind carries evidence (absence of evidence is not a neutral score).
// Coverage is the weighted sum of relation confidences and drives the
// confidence saturation; RelationCount is the raw number of relations of the
// kind, reported separately for display.
type RoleInference struct {
	RoleType      string   `json:"role_type"`
	Score         *float64 `json:"score"`
	Coverage      float64  `json:"coverage"`
	RelationCount int      `json:"relation_count"`
	Confidence    float64  `json:"confidence"`
	Disagreement  float64  `json:"disagreement"`
}

// InferenceResult is the full answer for one entity and scope filter.
// RelationsByKind is always freshly read, even on a cache hit; only the
// numeric RoleInferences are served from cache.
type InferenceResult struct {
	EntityID        uuid.UUID                       `json:"entity_id"`
	RelationsByKind map[RelationKind][]RelationView `json:"relations_by_kind"`
	RoleInferences  []RoleInference                 `json:"role_inferences"`
	CacheHit        bool                            `json:"cache_hit"`
}

// ComputedInference is one cache row: the aggregator output for a
// (scope_hash, model_version) pair. Rows are write-once; a changed scope or
// model version is a new key, never an update in place.
type ComputedInference struct {
	ID           uuid.UUID       `json:"id"`
	EntityID     uuid.UUID       `json:"entity_id"`
	ScopeHash    string          `json:"scope_hash"`
	ModelVersion string          `json:"model_version"`
	RoleResults  []RoleInference `json:"role_results"`
	Uncertainty  float64         `json:"uncertainty"`
	CreatedAt    time.Time       `json:"created_at"`
}
