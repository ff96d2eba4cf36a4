package rendertree

import (
	"strconv"

	"github.com/google/uuid"
)

// IDSource hands out node identifiers for one compilation pass. Sources
// are not safe for concurrent use; each Build call owns its source.
type IDSource interface {
	Next() string
}

// NewCounterSource returns the default source: "n1", "n2", ... scoped to
// the source instance, so rebuilds of the same rule reproduce the same
// ids and concurrent builds never share counter state.
func NewCounterSource() IDSource {
	return &counterSource{}
}

type counterSource struct {
	n int
}

func (s *counterSource) Next() string {
	s.n++
	return "n" + strconv.Itoa(s.n)
}

// NewUUIDSource returns a source of globally-unique ids, for callers that
// merge nodes from multiple concurrent compilations into one id space.
// Ids are not reproducible across runs.
func NewUUIDSource() IDSource {
	return uuidSource{}
}

type uuidSource struct{}

func (uuidSource) Next() string {
	return uuid.NewString()
}
