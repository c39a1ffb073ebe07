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

type RelationStore struct {
	db *pgxpool.Pool
}

func NewRelationStore(db *pgxpool.Pool) *RelationStore {
	return &RelationStore{db: db}
}

func (s *RelationStore) Create(ctx context.Context, r *domain.Relation) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO relations DEFAULT VALUES RETURNING id, created_at`,
	).Scan(&r.ID, &r.CreatedAt)
}

func (s *RelationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relation, error) {
	r := &domain.Relation{}
	err := s.db.QueryRow(ctx,
		`SELECT id, created_at FROM relations WHERE id = $1`, id,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// CreateRevision appends a relation revision plus its role revisions and,
// when current is true, repoints the index — all in one transaction, so a
// concurrent reader sees either the old claim or the complete new one.
func (s *RelationStore) CreateRevision(ctx context.Context, rev *domain.RelationRevision, roles []domain.RoleRevision, current bool) error {
	// nil scope stays NULL: "no scope claim" and "empty scope" are
	// different states.
	var scopeJSON []byte
	if rev.Scope != nil {
		b, err := json.Marshal(rev.Scope)
		if err != nil {
			return fmt.Errorf("marshal scope: %w", err)
		}
		scopeJSON = b
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO relation_revisions
		   (relation_id, source_id, kind, direction, confidence, scope, notes,
		    document_ref, extraction_model, created_by, created_by_model)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at`,
		rev.RelationID, rev.SourceID, rev.Kind, rev.Direction, rev.Confidence, scopeJSON,
		rev.Notes, rev.DocumentRef, rev.ExtractionModel, rev.CreatedBy, rev.CreatedByModel,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}

	for i := range roles {
		role := &roles[i]
		role.RelationRevisionID = rev.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO role_revisions (relation_revision_id, entity_id, role, weight, coverage)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at`,
			role.RelationRevisionID, role.EntityID, role.Role, role.Weight, role.Coverage,
		).Scan(&role.ID, &role.CreatedAt)
		if err != nil {
			return mapPgError(err)
		}
	}

	if current {
		if err := setCurrent(ctx, tx, parentRelation, rev.RelationID, rev.ID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const relationRevisionColumns = `r.id, r.relation_id, r.source_id, r.kind, r.direction,
	r.confidence, r.scope, r.notes, r.document_ref, r.extraction_model,
	r.created_by, r.created_by_model, r.created_at`

func scanRelationRevision(row pgx.Row) (*domain.RelationRevision, error) {
	rev := &domain.RelationRevision{}
	var scopeJSON []byte
	err := row.Scan(&rev.ID, &rev.RelationID, &rev.SourceID, &rev.Kind, &rev.Direction,
		&rev.Confidence, &scopeJSON, &rev.Notes, &rev.DocumentRef, &rev.ExtractionModel,
		&rev.CreatedBy, &rev.CreatedByModel, &rev.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(scopeJSON) > 0 {
		if err := json.Unmarshal(scopeJSON, &rev.Scope); err != nil {
			return nil, fmt.Errorf("unmarshal scope: %w", err)
		}
	}
	return rev, nil
}

func (s *RelationStore) GetCurrentRevision(ctx context.Context, relationID uuid.UUID) (*domain.RelationView, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+relationRevisionColumns+`
		 FROM relation_revisions r
		 INNER JOIN current_revisions c ON c.revision_id = r.id
		 WHERE c.parent_id = $1`,
		relationID,
	)
	rev, err := scanRelationRevision(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	roles, err := s.rolesForRevisions(ctx, []uuid.UUID{rev.ID})
	if err != nil {
		return nil, err
	}
	return &domain.RelationView{RelationRevision: *rev, Roles: roles[rev.ID]}, nil
}

func (s *RelationStore) ListCurrentByEntity(ctx context.Context, entityID uuid.UUID) ([]domain.RelationView, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT `+relationRevisionColumns+`
		 FROM relation_revisions r
		 INNER JOIN current_revisions c ON c.revision_id = r.id
		 INNER JOIN role_revisions ro ON ro.relation_revision_id = r.id
		 WHERE ro.entity_id = $1
		 ORDER BY r.created_at, r.id`,
		entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revs []*domain.RelationRevision
	for rows.Next() {
		rev, err := scanRelationRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(revs) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(revs))
	for i, rev := range revs {
		ids[i] = rev.ID
	}
	roles, err := s.rolesForRevisions(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]domain.RelationView, len(revs))
	for i, rev := range revs {
		views[i] = domain.RelationView{RelationRevision: *rev, Roles: roles[rev.ID]}
	}
	return views, nil
}

func (s *RelationStore) rolesForRevisions(ctx context.Context, revisionIDs []uuid.UUID) (map[uuid.UUID][]domain.RoleRevision, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, relation_revision_id, entity_id, role, weight, coverage, created_at
		 FROM role_revisions
		 WHERE relation_revision_id = ANY($1)
		 ORDER BY created_at, id`,
		revisionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRevision := make(map[uuid.UUID][]domain.RoleRevision)
	for rows.Next() {
		var role domain.RoleRevision
		if err := rows.Scan(&role.ID, &role.RelationRevisionID, &role.EntityID, &role.Role, &role.Weight, &role.Coverage, &role.CreatedAt); err != nil {
			return nil, err
		}
		byRevision[role.RelationRevisionID] = append(byRevision[role.RelationRevisionID], role)
	}
	return byRevision, rows.Err()
}

// AttachExtraction is the one allowed mutation of a revision row: setting
// the document/extraction fields, once, where both are still blank.
func (s *RelationStore) AttachExtraction(ctx context.Context, revisionID uuid.UUID, documentRef, extractionModel string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE relation_revisions
		 SET document_ref = $2, extraction_model = $3
		 WHERE id = $1 AND document_ref = '' AND extraction_model = ''`,
		revisionID, documentRef, extractionModel,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM relation_revisions WHERE id = $1)`,
			revisionID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyAttached
	}
	return nil
}

func (s *RelationStore) Retire(ctx context.Context, id uuid.UUID) error {
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

func (s *RelationStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `DELETE FROM current_revisions WHERE parent_id = $1`, id)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM relations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
