package insertsize

import "github.com/eunmann/insertsize/pkg/alignment"

// Filter holds the record eligibility switches.
type Filter struct {
	IncludeDuplicates bool
	RequireProperPair bool
}

// Eligible reports whether rec is the leftmost read of a usable pair.
//
// Only records with TLEN > 0 pass, so each pair contributes at most one
// observation.
func (f Filter) Eligible(rec alignment.Record) bool {
	if !rec.Paired {
		return false
	}
	if rec.Secondary || rec.Supplementary {
		return false
	}
	if rec.Duplicate && !f.IncludeDuplicates {
		return false
	}
	if rec.Unmapped || rec.MateUnmapped {
		return false
	}
	if rec.RefID != rec.MateRefID {
		return false
	}
	if f.RequireProperPair && !rec.ProperPair {
		return false
	}
	if rec.TemplateLength <= 0 {
		return false
	}
	return insertSize(rec) != 0
}

// insertSize is abs(TLEN).
func insertSize(rec alignment.Record) int {
	if rec.TemplateLength < 0 {
		return -rec.TemplateLength
	}
	return rec.TemplateLength
}
