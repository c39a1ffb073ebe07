package store

import (
	"context"
	"errors"

	"github.com/credence-graph/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SourceStore struct {
	db *pgxpool.Pool
}

func NewSourceStore(db *pgxpool.Pool) *SourceStore {
	return &SourceStore{db: db}
}

func (s *SourceStore) Create(ctx context.Context, src *domain.Source) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO sources DEFAULT VALUES RETURNING id, created_at`,
	).Scan(&src.ID, &src.CreatedAt)
}

func (s *SourceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	src := &domain.Source{}
	err := s.db.QueryRow(ctx,
		`SELECT id, created_at FROM sources WHERE id = $1`, id,
	).Scan(&src.ID, &src.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return src, nil
}

func (s *SourceStore) CreateRevision(ctx context.Context, rev *domain.SourceRevision, current bool) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO source_revisions (source_id, title, authors, trust_level, created_by, created_by_model)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		rev.SourceID, rev.Title, rev.Authors, rev.TrustLevel, rev.CreatedBy, rev.CreatedByModel,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}

	if current {
		if err := setCurrent(ctx, tx, parentSource, rev.SourceID, rev.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *SourceStore) GetCurrentRevision(ctx context.Context, sourceID uuid.UUID) (*domain.SourceRevision, error) {
	rev := &domain.SourceRevision{}
	err := s.db.QueryRow(ctx,
		`SELECT r.id, r.source_id, r.title, r.authors, r.trust_level, r.created_by, r.created_by_model, r.created_at
		 FROM source_revisions r
		 INNER JOIN current_revisions c ON c.revision_id = r.id
		 WHERE c.parent_id = $1`,
		sourceID,
	).Scan(&rev.ID, &rev.SourceID, &rev.Title, &rev.Authors, &rev.TrustLevel, &rev.CreatedBy, &rev.CreatedByModel, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rev, nil
}

func (s *SourceStore) ListRevisions(ctx context.Context, sourceID uuid.UUID) ([]domain.SourceRevision, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, title, authors, trust_level, created_by, created_by_model, created_at
		 FROM source_revisions WHERE source_id = $1 ORDER BY created_at, id`,
		sourceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []domain.SourceRevision
	for rows.Next() {
		var r domain.SourceRevision
		if err := rows.Scan(&r.ID, &r.SourceID, &r.Title, &r.Authors, &r.TrustLevel, &r.CreatedBy, &r.CreatedByModel, &r.CreatedAt); err != nil {
			return nil, err
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

func (s *SourceStore) Retire(ctx context.Context, id uuid.UUID) error {
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

func (s *SourceStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `DELETE FROM current_revisions WHERE parent_id = $1`, id)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
