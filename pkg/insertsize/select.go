package insertsize

import (
	"fmt"
	"strings"

	"github.com/eunmann/insertsize/pkg/orient"
)

// Strategy selects which retained category is reported.
type Strategy uint8

// Selection strategies.
const (
	// Specific reports the requested category, failing if it was pruned.
	Specific Strategy = iota
	// Dominant reports the retained category with the most observations.
	Dominant
)

// ParseStrategy maps "specific" or "dominant" (case-insensitive) to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "specific":
		return Specific, nil
	case "dominant":
		return Dominant, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q: must be specific or dominant", s)
	}
}

func (s Strategy) String() string {
	switch s {
	case Specific:
		return "specific"
	case Dominant:
		return "dominant"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == Specific || s == Dominant
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid strategy %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Retained is a category that survived proportion pruning.
type Retained struct {
	Category  orient.Category
	Count     uint64
	Histogram Histogram
}

// Decision holds the retained categories in fixed category order.
type Decision struct {
	retained []Retained
	minPct   float64
}

// Decide prunes categories whose share of all leftmost observations is below
// minPct. The threshold is inclusive; empty categories are never retained.
func Decide(s *State, minPct float64) (Decision, error) {
	total := s.TotalLeftmost()
	if total == 0 {
		return Decision{}, &Error{Kind: NoEligibleRecords}
	}

	d := Decision{minPct: minPct}
	for _, c := range orient.All {
		count := s.Count(c)
		if count == 0 {
			continue
		}
		if float64(count)/float64(total) >= minPct {
			d.retained = append(d.retained, Retained{Category: c, Count: count, Histogram: s.Histogram(c)})
		}
	}

	if len(d.retained) == 0 {
		return Decision{}, &Error{Kind: AllCategoriesPruned, MinPct: minPct}
	}
	return d, nil
}

// Retained returns the retained categories in fixed order.
func (d Decision) Retained() []Retained {
	return d.retained
}

// Lookup returns the retained entry for c.
func (d Decision) Lookup(c orient.Category) (Retained, bool) {
	for _, r := range d.retained {
		if r.Category == c {
			return r, true
		}
	}
	return Retained{}, false
}

// Specific returns category c, or CategoryBelowThreshold if it was pruned.
func (d Decision) Specific(c orient.Category) (Retained, error) {
	r, ok := d.Lookup(c)
	if !ok {
		return Retained{}, &Error{Kind: CategoryBelowThreshold, Category: c, MinPct: d.minPct}
	}
	return r, nil
}

// Dominant returns the retained category with the largest count. Ties go to
// the earliest category in FR, RF, TANDEM order.
func (d Decision) Dominant() Retained {
	best := d.retained[0]
	for _, r := range d.retained[1:] {
		if r.Count > best.Count {
			best = r
		}
	}
	return best
}

// Select applies strategy to the pruned categories of s.
func Select(s *State, minPct float64, pref orient.Category, strategy Strategy) (Retained, error) {
	d, err := Decide(s, minPct)
	if err != nil {
		return Retained{}, err
	}
	if strategy == Dominant {
		return d.Dominant(), nil
	}
	return d.Specific(pref)
}
