// Package library persists named rules in an embedded libSQL database:
// source documents, descriptions, tags, and optional data-record schemas
// with sample data. Seed installs a built-in example set on first run.
package library

import "context"

// Library defines the persistence contract for named rules.
// All implementations must be safe for concurrent use.
type Library interface {
	// Save upserts a rule by name. A new rule gets an id; saving an
	// existing name keeps its id and replaces the stored fields.
	Save(ctx context.Context, r *StoredRule) error
	Get(ctx context.Context, id string) (*StoredRule, error)
	GetByName(ctx context.Context, name string) (*StoredRule, error)
	List(ctx context.Context, filter Filter) ([]*StoredRule, error)
	Update(ctx context.Context, id string, update Update) error
	Delete(ctx context.Context, id string) error

	// Tags lists every distinct tag in use.
	Tags(ctx context.Context) ([]string, error)

	// Seed installs the built-in examples that are not already present
	// and reports how many it added.
	Seed(ctx context.Context) (int, error)

	// Maintenance
	Migrate(ctx context.Context) error

	// Lifecycle
	Close() error
}
