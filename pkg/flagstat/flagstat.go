// Package flagstat counts alignment records by flag, samtools-flagstat style.
package flagstat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eunmann/insertsize/pkg/alignment"
)

// Stats holds record counts. QC-failed records are not counted at all.
type Stats struct {
	Total         uint64
	Primary       uint64
	Secondary     uint64
	Supplementary uint64
	Duplicate     uint64
	Mapped        uint64
	PrimaryMapped uint64
}

// Add counts one record.
func (s *Stats) Add(rec alignment.Record) {
	if rec.QCFail {
		return
	}
	s.Total++

	primary := !rec.Secondary && !rec.Supplementary
	if primary {
		s.Primary++
	}
	if rec.Secondary {
		s.Secondary++
	}
	if rec.Supplementary {
		s.Supplementary++
	}
	if rec.Duplicate {
		s.Duplicate++
	}
	if !rec.Unmapped {
		s.Mapped++
		if primary {
			s.PrimaryMapped++
		}
	}
}

// MappedRate returns Mapped/Total, or 0 when no records were counted.
func (s Stats) MappedRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Mapped) / float64(s.Total)
}

// String renders the report block without a trailing newline.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "total: %d\n", s.Total)
	fmt.Fprintf(&b, "primary: %d\n", s.Primary)
	fmt.Fprintf(&b, "secondary: %d\n", s.Secondary)
	fmt.Fprintf(&b, "supplementary: %d\n", s.Supplementary)
	fmt.Fprintf(&b, "duplicate: %d\n", s.Duplicate)
	fmt.Fprintf(&b, "mapped: %d (%.2f%%)", s.Mapped, s.MappedRate()*100)
	return b.String()
}

// Collect counts every record of r. It does not close r.
func Collect(ctx context.Context, r alignment.Reader) (Stats, error) {
	var s Stats
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return Stats{}, err
			}
		}
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return Stats{}, fmt.Errorf("read record %d: %w", n+1, err)
		}
		s.Add(rec)
	}
}
