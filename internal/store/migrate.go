package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full DDL. Revisions are append-only arenas; currency lives
// exclusively in current_revisions, which holds at most one row per parent
// by primary-key construction.
const schema = `
CREATE TABLE IF NOT EXISTS entities (
    id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sources (
    id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS relations (
    id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entity_revisions (
    id               uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    entity_id        uuid NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    slug             text NOT NULL,
    summary          text NOT NULL DEFAULT '',
    created_by       uuid,
    created_by_model text NOT NULL DEFAULT '',
    created_at       timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS entity_revisions_entity_idx
    ON entity_revisions (entity_id, created_at);

CREATE TABLE IF NOT EXISTS source_revisions (
    id               uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    source_id        uuid NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title            text NOT NULL,
    authors          text[] NOT NULL DEFAULT '{}',
    trust_level      double precision NOT NULL DEFAULT 0.5
                     CHECK (trust_level >= 0 AND trust_level <= 1),
    created_by       uuid,
    created_by_model text NOT NULL DEFAULT '',
    created_at       timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS source_revisions_source_idx
    ON source_revisions (source_id, created_at);

CREATE TABLE IF NOT EXISTS relation_revisions (
    id               uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    relation_id      uuid NOT NULL REFERENCES relations(id) ON DELETE CASCADE,
    source_id        uuid NOT NULL REFERENCES sources(id),
    kind             text NOT NULL,
    direction        text NOT NULL,
    confidence       double precision
                     CHECK (confidence IS NULL OR (confidence >= 0 AND confidence <= 1)),
    scope            jsonb,
    notes            text NOT NULL DEFAULT '',
    document_ref     text NOT NULL DEFAULT '',
    extraction_model text NOT NULL DEFAULT '',
    created_by       uuid,
    created_by_model text NOT NULL DEFAULT '',
    created_at       timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS relation_revisions_relation_idx
    ON relation_revisions (relation_id, created_at);

CREATE TABLE IF NOT EXISTS role_revisions (
    id                   uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    relation_revision_id uuid NOT NULL REFERENCES relation_revisions(id) ON DELETE CASCADE,
    entity_id            uuid NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    role                 text NOT NULL,
    weight               double precision NOT NULL
                         CHECK (weight >= -1 AND weight <= 1),
    coverage             double precision CHECK (coverage IS NULL OR coverage >= 0),
    created_at           timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS role_revisions_entity_idx ON role_revisions (entity_id);
CREATE INDEX IF NOT EXISTS role_revisions_revision_idx ON role_revisions (relation_revision_id);

CREATE TABLE IF NOT EXISTS current_revisions (
    parent_id   uuid PRIMARY KEY,
    parent_kind text NOT NULL,
    revision_id uuid NOT NULL,
    updated_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS computed_inferences (
    id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    entity_id     uuid NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
    scope_hash    text NOT NULL,
    model_version text NOT NULL,
    role_results  jsonb NOT NULL,
    uncertainty   double precision NOT NULL DEFAULT 0,
    created_at    timestamptz NOT NULL DEFAULT now(),
    UNIQUE (scope_hash, model_version)
);
CREATE INDEX IF NOT EXISTS computed_inferences_entity_idx
    ON computed_inferences (entity_id);
`

// Migrate applies the schema. All statements are idempotent, so it is safe
// to run on every startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schema)
	return err
}
