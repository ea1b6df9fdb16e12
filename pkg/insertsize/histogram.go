package insertsize

import (
	"maps"
	"slices"

	"github.com/eunmann/insertsize/pkg/orient"
)

// Histogram maps insert size to occurrence count.
type Histogram map[int]uint64

// Total returns the sum of all counts.
func (h Histogram) Total() uint64 {
	var total uint64
	for _, n := range h {
		total += n
	}
	return total
}

// Sizes returns the distinct insert sizes in ascending order.
func (h Histogram) Sizes() []int {
	return slices.Sorted(maps.Keys(h))
}

// State accumulates one histogram per orientation category over a scan.
// It is owned by a single scan and is not safe for concurrent use.
type State struct {
	hists [orient.NumCategories]Histogram
	total uint64
}

// NewState returns an empty State.
func NewState() *State {
	s := &State{}
	for _, c := range orient.All {
		s.hists[c] = make(Histogram)
	}
	return s
}

// Observe records one leftmost pair of the given category and insert size.
func (s *State) Observe(c orient.Category, size int) {
	s.hists[c][size]++
	s.total++
}

// TotalLeftmost returns the number of observations across all categories.
func (s *State) TotalLeftmost() uint64 {
	return s.total
}

// Histogram returns the histogram of category c. Callers must not modify it.
func (s *State) Histogram(c orient.Category) Histogram {
	return s.hists[c]
}

// Count returns the number of observations in category c.
func (s *State) Count(c orient.Category) uint64 {
	return s.hists[c].Total()
}
