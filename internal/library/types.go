package library

import (
	"encoding/json"
	"time"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// StoredRule is a named rule kept in the library.
type StoredRule struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Source      string          `json:"source"`
	Tags        []string        `json:"tags,omitempty"`
	DataSchema  json.RawMessage `json:"data_schema,omitempty"`
	SampleData  json.RawMessage `json:"sample_data,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Rule parses the stored source document.
func (r *StoredRule) Rule() (*rule.Rule, error) {
	return rule.ParseString(r.Source)
}

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	// Tag keeps only rules carrying the tag.
	Tag string
	// Search matches a substring of the name or description.
	Search string
	Limit  int
	Offset int
}

// Update carries partial changes for a stored rule. Nil fields are
// left untouched; a non-nil Tags replaces the whole tag set.
type Update struct {
	Description *string
	Source      *string
	Tags        []string
	DataSchema  json.RawMessage
	SampleData  json.RawMessage
}
