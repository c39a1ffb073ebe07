package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Parent kinds recorded in the current-revision index.
const (
	parentEntity   = "entity"
	parentSource   = "source"
	parentRelation = "relation"
)

// setCurrent repoints the current-revision index at revisionID. The upsert
// takes a row lock on the parent's index entry, which serializes concurrent
// writers for the same parent across processes. Must run inside the same
// transaction as the revision insert so readers never observe a parent with
// zero or two current revisions mid-write.
func setCurrent(ctx context.Context, tx pgx.Tx, parentKind string, parentID, revisionID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO current_revisions (parent_id, parent_kind, revision_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (parent_id) DO UPDATE
		 SET revision_id = EXCLUDED.revision_id, updated_at = now()`,
		parentID, parentKind, revisionID,
	)
	return mapPgError(err)
}

// clearCurrent removes the index entry, leaving the parent with zero current
// revisions (the retired/merged state). The revision arena is untouched.
func clearCurrent(ctx context.Context, tx pgx.Tx, parentID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`DELETE FROM current_revisions WHERE parent_id = $1`, parentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
