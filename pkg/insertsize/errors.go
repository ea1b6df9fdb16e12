package insertsize

import (
	"errors"
	"fmt"

	"github.com/eunmann/insertsize/pkg/orient"
)

// Kind classifies a computation failure.
type Kind uint8

// Failure kinds. InvalidParameter is detected before scanning; the others only
// after the whole input has been consumed.
const (
	InvalidParameter Kind = iota + 1
	NoEligibleRecords
	AllCategoriesPruned
	CategoryBelowThreshold
)

var (
	// ErrInvalidParameter matches errors of kind InvalidParameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNoEligibleRecords matches errors of kind NoEligibleRecords.
	ErrNoEligibleRecords = errors.New("no eligible records")
	// ErrAllCategoriesPruned matches errors of kind AllCategoriesPruned.
	ErrAllCategoriesPruned = errors.New("all categories pruned")
	// ErrCategoryBelowThreshold matches errors of kind CategoryBelowThreshold.
	ErrCategoryBelowThreshold = errors.New("category below threshold")
)

func (k Kind) sentinel() error {
	switch k {
	case InvalidParameter:
		return ErrInvalidParameter
	case NoEligibleRecords:
		return ErrNoEligibleRecords
	case AllCategoriesPruned:
		return ErrAllCategoriesPruned
	case CategoryBelowThreshold:
		return ErrCategoryBelowThreshold
	default:
		return nil
	}
}

func (k Kind) String() string {
	switch k {
	case InvalidParameter:
		return "InvalidParameter"
	case NoEligibleRecords:
		return "NoEligibleRecords"
	case AllCategoriesPruned:
		return "AllCategoriesPruned"
	case CategoryBelowThreshold:
		return "CategoryBelowThreshold"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Error is the failure returned by Compute and its stages.
type Error struct {
	Kind Kind
	// Category is set for CategoryBelowThreshold.
	Category orient.Category
	// MinPct is the threshold in effect for the pruning kinds.
	MinPct float64
	// Detail describes an InvalidParameter failure.
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidParameter:
		return "invalid parameter: " + e.Detail
	case NoEligibleRecords:
		return "no paired reads left after filtering (no leftmost records with TLEN > 0)"
	case AllCategoriesPruned:
		return fmt.Sprintf("all orientation categories fall below min_pct=%.3f, cannot report an insert size", e.MinPct)
	case CategoryBelowThreshold:
		return fmt.Sprintf("orientation %s was discarded by min_pct=%.3f; lower the threshold or use the dominant strategy",
			e.Category, e.MinPct)
	default:
		return e.Kind.String()
	}
}

// Is makes errors.Is match the kind's sentinel.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalidParameter(format string, a ...any) *Error {
	return &Error{Kind: InvalidParameter, Detail: fmt.Sprintf(format, a...)}
}
