package migration

import (
	"context"

	"aitaflow/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name string
	sql  string
}

// steps run in order; each is idempotent
var steps = []step{
	{"create post_labels table", `
		CREATE TABLE IF NOT EXISTS post_labels (
			post_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			title TEXT NOT NULL,
			score INTEGER NOT NULL,
			selftext TEXT NOT NULL DEFAULT '',
			num_comments INTEGER,
			created_utc BIGINT,
			yta INTEGER NOT NULL DEFAULT 0,
			nta INTEGER NOT NULL DEFAULT 0,
			nah INTEGER NOT NULL DEFAULT 0,
			esh INTEGER NOT NULL DEFAULT 0,
			total INTEGER NOT NULL DEFAULT 0,
			judgement VARCHAR(3) NOT NULL,
			distribution DOUBLE PRECISION[] NOT NULL,
			label_multiclass INTEGER[] NOT NULL,
			label_multilabel INTEGER[] NOT NULL,
			label_regression DOUBLE PRECISION[] NOT NULL,
			label_twoclass_multilabel INTEGER[] NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`},
	{"create run index", `CREATE INDEX IF NOT EXISTS idx_post_labels_run_id ON post_labels(run_id)`},
	{"create judgement index", `CREATE INDEX IF NOT EXISTS idx_post_labels_judgement ON post_labels(judgement)`},
	{"create created index", `CREATE INDEX IF NOT EXISTS idx_post_labels_created_utc ON post_labels(created_utc DESC)`},
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range steps {
		if _, err := db.ExecContext(ctx, s.sql); err != nil {
			return errors.Wrapf(err, "failed to %s", s.name)
		}
	}
	return nil
}
