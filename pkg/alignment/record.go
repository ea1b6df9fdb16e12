// Package alignment provides a read-only view of alignment records and
// streaming readers over BAM and SAM inputs.
package alignment

import (
	"io"

	"github.com/biogo/hts/sam"
)

// Record is the subset of an alignment record needed for pair statistics.
type Record struct {
	Paired        bool
	Secondary     bool
	Supplementary bool
	Duplicate     bool
	Unmapped      bool
	MateUnmapped  bool
	ProperPair    bool
	Reverse       bool
	MateReverse   bool
	QCFail        bool

	// RefID and MateRefID are header reference indices, -1 when unset.
	RefID     int
	MateRefID int

	// TemplateLength is the signed SAM TLEN field.
	TemplateLength int
}

// FromSAM converts a decoded biogo record into a Record.
func FromSAM(r *sam.Record) Record {
	f := r.Flags
	return Record{
		Paired:         f&sam.Paired != 0,
		Secondary:      f&sam.Secondary != 0,
		Supplementary:  f&sam.Supplementary != 0,
		Duplicate:      f&sam.Duplicate != 0,
		Unmapped:       f&sam.Unmapped != 0,
		MateUnmapped:   f&sam.MateUnmapped != 0,
		ProperPair:     f&sam.ProperPair != 0,
		Reverse:        f&sam.Reverse != 0,
		MateReverse:    f&sam.MateReverse != 0,
		QCFail:         f&sam.QCFail != 0,
		RefID:          r.Ref.ID(),
		MateRefID:      r.MateRef.ID(),
		TemplateLength: r.TempLen,
	}
}

// Reader is the interface for reading alignment records.
type Reader interface {
	// Next returns the next record. Returns io.EOF when done.
	Next() (Record, error)
	// Close releases resources.
	Close() error
}

// SliceReader serves records from memory.
type SliceReader struct {
	records []Record
	pos     int
}

// NewSliceReader returns a Reader over records.
func NewSliceReader(records []Record) *SliceReader {
	return &SliceReader{records: records}
}

// Next returns the next record or io.EOF.
func (r *SliceReader) Next() (Record, error) {
	if r.pos >= len(r.records) {
		return Record{}, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

// Close is a no-op.
func (r *SliceReader) Close() error {
	return nil
}

var _ Reader = (*SliceReader)(nil)
