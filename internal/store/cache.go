package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InferenceCacheStore persists computed inferences keyed by
// (scope_hash, model_version). Rows are write-once; invalidation is
// explicit deletion, there is no TTL.
type InferenceCacheStore struct {
	db *pgxpool.Pool
}

func NewInferenceCacheStore(db *pgxpool.Pool) *InferenceCacheStore {
	return &InferenceCacheStore{db: db}
}

func (s *InferenceCacheStore) Get(ctx context.Context, scopeHash, modelVersion string) (*domain.ComputedInference, error) {
	ci := &domain.ComputedInference{}
	var resultsJSON []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, entity_id, scope_hash, model_version, role_results, uncertainty, created_at
		 FROM computed_inferences
		 WHERE scope_hash = $1 AND model_version = $2`,
		scopeHash, modelVersion,
	).Scan(&ci.ID, &ci.EntityID, &ci.ScopeHash, &ci.ModelVersion, &resultsJSON, &ci.Uncertainty, &ci.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(resultsJSON, &ci.RoleResults); err != nil {
		return nil, fmt.Errorf("unmarshal role_results: %w", err)
	}
	return ci, nil
}

// Put inserts the entry unless the key already exists. Losing the race to a
// concurrent writer is harmless: inputs for a given key are deterministic,
// so whichever row landed first holds the same numbers.
func (s *InferenceCacheStore) Put(ctx context.Context, ci *domain.ComputedInference) error {
	resultsJSON, err := json.Marshal(ci.RoleResults)
	if err != nil {
		return fmt.Errorf("marshal role_results: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO computed_inferences (entity_id, scope_hash, model_version, role_results, uncertainty)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (scope_hash, model_version) DO NOTHING`,
		ci.EntityID, ci.ScopeHash, ci.ModelVersion, resultsJSON, ci.Uncertainty,
	)
	return mapPgError(err)
}

func (s *InferenceCacheStore) PurgeByEntity(ctx context.Context, entityID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM computed_inferences WHERE entity_id = $1`, entityID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *InferenceCacheStore) PurgeAll(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM computed_inferences`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
