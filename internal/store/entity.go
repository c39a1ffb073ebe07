package store

import (
	"context"
	"errors"
	"time"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EntityStore struct {
	db *pgxpool.Pool
}

func NewEntityStore(db *pgxpool.Pool) *EntityStore {
	return &EntityStore{db: db}
}

func (s *EntityStore) Create(ctx context.Context, e *domain.Entity) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO entities DEFAULT VALUES RETURNING id, created_at`,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *EntityStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Entity, error) {
	e := &domain.Entity{}
	err := s.db.QueryRow(ctx,
		`SELECT id, created_at FROM entities WHERE id = $1`, id,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EntityStore) CreateRevision(ctx context.Context, rev *domain.EntityRevision, current bool) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO entity_revisions (entity_id, slug, summary, created_by, created_by_model)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		rev.EntityID, rev.Slug, rev.Summary, rev.CreatedBy, rev.CreatedByModel,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}

	if current {
		if err := setCurrent(ctx, tx, parentEntity, rev.EntityID, rev.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *EntityStore) GetCurrentRevision(ctx context.Context, entityID uuid.UUID) (*domain.EntityRevision, error) {
	rev := &domain.EntityRevision{}
	// Currency comes from the index, never from timestamps; timestamp ties
	// are possible and only the index is authoritative.
	err := s.db.QueryRow(ctx,
		`SELECT r.id, r.entity_id, r.slug, r.summary, r.created_by, r.created_by_model, r.created_at
		 FROM entity_revisions r
		 INNER JOIN current_revisions c ON c.revision_id = r.id
		 WHERE c.parent_id = $1`,
		entityID,
	).Scan(&rev.ID, &rev.EntityID, &rev.Slug, &rev.Summary, &rev.CreatedBy, &rev.CreatedByModel, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rev, nil
}

func (s *EntityStore) ListRevisions(ctx context.Context, entityID uuid.UUID) ([]domain.EntityRevision, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, entity_id, slug, summary, created_by, created_by_model, created_at
		 FROM entity_revisions WHERE entity_id = $1 ORDER BY created_at, id`,
		entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []domain.EntityRevision
	for rows.Next() {
		var r domain.EntityRevision
		if err := rows.Scan(&r.ID, &r.EntityID, &r.Slug, &r.Summary, &r.CreatedBy, &r.CreatedByModel, &r.CreatedAt); err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

func (s *EntityStore) List(ctx context.Context, limit int) ([]domain.EntityRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx,
		`SELECT e.id, e.created_at,
		        r.id, r.slug, r.summary, r.created_by, r.created_by_model, r.created_at
		 FROM entities e
		 LEFT JOIN current_revisions c ON c.parent_id = e.id
		 LEFT JOIN entity_revisions r ON r.id = c.revision_id
		 ORDER BY e.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.EntityRecord
	for rows.Next() {
		var rec domain.EntityRecord
		var revID *uuid.UUID
		var slug, summary, model *string
		var createdBy *uuid.UUID
		var revCreatedAt *time.Time
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &revID, &slug, &summary, &createdBy, &model, &revCreatedAt); err != nil {
			return nil, err
		}
		if revID != nil {
			rev := &domain.EntityRevision{
				ID:       *revID,
				EntityID: rec.ID,
				Slug:     *slug,
				Summary:  *summary,
			}
			rev.CreatedBy = createdBy
			if model != nil {
				rev.CreatedByModel = *model
			}
			if revCreatedAt != nil {
				rev.CreatedAt = *revCreatedAt
			}
			rec.Current = rev
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *EntityStore) Retire(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := clearCurrent(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *EntityStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `DELETE FROM current_revisions WHERE parent_id = $1`, id)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
