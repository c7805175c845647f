// pkg/fingerprint/set.go
package fingerprint

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Set holds the sampled checksums of one stream together with the Params
// that produced them. It is not safe for concurrent mutation.
type Set struct {
	params Params
	s      mapset.Set[uint64]
}

// NewSet returns an empty Set for checksums computed under p.
func NewSet(p Params) *Set {
	return &Set{params: p, s: mapset.NewThreadUnsafeSet[uint64]()}
}

// Add inserts checksum c.
func (s *Set) Add(c uint64) { s.s.Add(c) }

// Contains reports whether c is in the set.
func (s *Set) Contains(c uint64) bool { return s.s.Contains(c) }

// Len returns the number of distinct checksums.
func (s *Set) Len() int { return s.s.Cardinality() }

// Params returns the parameters the checksums were computed under.
func (s *Set) Params() Params { return s.params }

// Slice returns the checksums in ascending order.
func (s *Set) Slice() []uint64 {
	out := s.s.ToSlice()
	slices.Sort(out)
	return out
}

// Similarity returns the resemblance of a and b, |a∩b| / |a∪b|.
// Two empty sets have similarity 0. Sets built under different Params
// cannot be compared and yield ErrConfigMismatch.
func Similarity(a, b *Set) (float64, error) {
	if a.params != b.params {
		return 0, fmt.Errorf("%w: %s vs %s", ErrConfigMismatch, a.params, b.params)
	}
	inter := a.s.Intersect(b.s).Cardinality()
	union := a.Len() + b.Len() - inter
	if union == 0 {
		return 0, nil
	}
	return float64(inter) / float64(union), nil
}
