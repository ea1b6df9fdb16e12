// Package orient defines the relative-strand orientation categories of a read pair.
package orient

import (
	"fmt"
	"strings"
)

// Category is a read-pair orientation. The numeric order is significant: it is
// the iteration order for pruning and the tie-break order for selection.
type Category uint8

// Orientation categories in their fixed order.
const (
	FR Category = iota
	RF
	Tandem
	NumCategories // Sentinel value for array sizing
)

// All lists every category in fixed order.
var All = [NumCategories]Category{FR, RF, Tandem}

var names = [NumCategories]string{"FR", "RF", "TANDEM"}

// String returns the canonical upper-case name.
func (c Category) String() string {
	if c < NumCategories {
		return names[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// Valid reports whether c is one of the three categories.
func (c Category) Valid() bool {
	return c < NumCategories
}

// Parse maps a case-insensitive name (FR, RF, TANDEM) to a Category.
func Parse(s string) (Category, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == name {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pair orientation %q: must be FR, RF, or TANDEM", s)
}

// Classify assigns the orientation of a pair from the strand of its leftmost
// read and the strand of that read's mate. Same-strand pairs are Tandem.
func Classify(leftReverse, rightReverse bool) Category {
	switch {
	case leftReverse == rightReverse:
		return Tandem
	case rightReverse:
		return FR
	default:
		return RF
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid pair orientation %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
