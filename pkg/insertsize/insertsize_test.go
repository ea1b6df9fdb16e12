package insertsize

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/eunmann/insertsize/internal/logctx"
	"github.com/eunmann/insertsize/pkg/alignment"
	"github.com/eunmann/insertsize/pkg/orient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leftmost(tlen int, rev, mateRev bool) alignment.Record {
	return alignment.Record{
		Paired:         true,
		RefID:          0,
		MateRefID:      0,
		TemplateLength: tlen,
		Reverse:        rev,
		MateReverse:    mateRev,
	}
}

func fr(tlen int) alignment.Record     { return leftmost(tlen, false, true) }
func rf(tlen int) alignment.Record     { return leftmost(tlen, true, false) }
func tandem(tlen int) alignment.Record { return leftmost(tlen, false, false) }

func quietCtx() context.Context {
	return logctx.WithLogger(context.Background(), zerolog.Nop())
}

func histOf(pairs ...int) Histogram {
	h := make(Histogram)
	for i := 0; i+1 < len(pairs); i += 2 {
		h[pairs[i]] = uint64(pairs[i+1])
	}
	return h
}

func TestFilter_Eligible(t *testing.T) {
	base := fr(200)

	tests := []struct {
		name   string
		mutate func(*alignment.Record)
		filter Filter
		want   bool
	}{
		{"leftmost passes", func(*alignment.Record) {}, Filter{}, true},
		{"unpaired", func(r *alignment.Record) { r.Paired = false }, Filter{}, false},
		{"secondary", func(r *alignment.Record) { r.Secondary = true }, Filter{}, false},
		{"supplementary", func(r *alignment.Record) { r.Supplementary = true }, Filter{}, false},
		{"duplicate excluded", func(r *alignment.Record) { r.Duplicate = true }, Filter{}, false},
		{"duplicate included", func(r *alignment.Record) { r.Duplicate = true }, Filter{IncludeDuplicates: true}, true},
		{"unmapped", func(r *alignment.Record) { r.Unmapped = true }, Filter{}, false},
		{"mate unmapped", func(r *alignment.Record) { r.MateUnmapped = true }, Filter{}, false},
		{"different contig", func(r *alignment.Record) { r.MateRefID = 3 }, Filter{}, false},
		{"improper allowed", func(*alignment.Record) {}, Filter{}, true},
		{"improper rejected", func(*alignment.Record) {}, Filter{RequireProperPair: true}, false},
		{"proper required", func(r *alignment.Record) { r.ProperPair = true }, Filter{RequireProperPair: true}, true},
		{"rightmost mate", func(r *alignment.Record) { r.TemplateLength = -200 }, Filter{}, false},
		{"zero length", func(r *alignment.Record) { r.TemplateLength = 0 }, Filter{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base
			tt.mutate(&rec)
			assert.Equal(t, tt.want, tt.filter.Eligible(rec))
		})
	}
}

func TestScan_PairCountedOnce(t *testing.T) {
	left := fr(250)
	right := leftmost(-250, true, false)

	for _, order := range [][]alignment.Record{{left, right}, {right, left}} {
		state, stats, err := Scan(quietCtx(), alignment.NewSliceReader(order), Filter{}, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.RecordsRead)
		assert.EqualValues(t, 1, state.TotalLeftmost())
		assert.Equal(t, Histogram{250: 1}, state.Histogram(orient.FR))
	}
}

func TestScan_Orientation(t *testing.T) {
	recs := []alignment.Record{
		leftmost(100, false, false),
		leftmost(110, true, true),
		leftmost(120, false, true),
		leftmost(130, true, false),
	}
	state, _, err := Scan(quietCtx(), alignment.NewSliceReader(recs), Filter{}, 0)
	require.NoError(t, err)

	assert.Equal(t, Histogram{100: 1, 110: 1}, state.Histogram(orient.Tandem))
	assert.Equal(t, Histogram{120: 1}, state.Histogram(orient.FR))
	assert.Equal(t, Histogram{130: 1}, state.Histogram(orient.RF))
	assert.EqualValues(t, 4, state.TotalLeftmost())
}

func TestScan_ReaderError(t *testing.T) {
	boom := errors.New("truncated block")
	_, _, err := Scan(quietCtx(), &errReader{after: 2, err: boom}, Filter{}, 0)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "read record 3")
	assert.Zero(t, KindOf(err))
}

func TestScan_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(quietCtx())
	cancel()
	_, _, err := Scan(ctx, alignment.NewSliceReader([]alignment.Record{fr(100)}), Filter{}, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		h    Histogram
		want int
	}{
		{"odd total", histOf(100, 1, 150, 1, 200, 1), 150},
		{"even total takes lower middle", histOf(100, 2, 200, 2), 100},
		{"single bin", histOf(300, 7), 300},
		{"even four distinct", histOf(10, 1, 20, 1, 30, 1, 40, 1), 20},
		{"skewed", histOf(1, 1, 1000, 10), 1000},
		{"empty", Histogram{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Median(tt.h))
		})
	}
}

func stateWith(counts map[orient.Category]int) *State {
	s := NewState()
	for _, c := range orient.All {
		for i := 0; i < counts[c]; i++ {
			s.Observe(c, 100+int(c))
		}
	}
	return s
}

func TestDecide_ThresholdInclusive(t *testing.T) {
	// 1/20 is exactly 0.05.
	s := stateWith(map[orient.Category]int{orient.FR: 19, orient.RF: 1})

	d, err := Decide(s, 0.05)
	require.NoError(t, err)
	_, ok := d.Lookup(orient.RF)
	assert.True(t, ok, "category at exactly min_pct must be retained")

	d, err = Decide(s, 0.05+1e-12)
	require.NoError(t, err)
	_, ok = d.Lookup(orient.RF)
	assert.False(t, ok, "category just below min_pct must be pruned")

	s = stateWith(map[orient.Category]int{orient.FR: 20, orient.RF: 1})
	d, err = Decide(s, 0.05)
	require.NoError(t, err)
	_, ok = d.Lookup(orient.RF)
	assert.False(t, ok, "1/21 is below 0.05")
}

func TestDecide_EmptyCategoryNeverRetained(t *testing.T) {
	s := stateWith(map[orient.Category]int{orient.RF: 5})
	d, err := Decide(s, 0)
	require.NoError(t, err)
	require.Len(t, d.Retained(), 1)
	assert.Equal(t, orient.RF, d.Retained()[0].Category)
}

func TestDecide_Errors(t *testing.T) {
	_, err := Decide(NewState(), 0.05)
	require.ErrorIs(t, err, ErrNoEligibleRecords)

	s := stateWith(map[orient.Category]int{orient.FR: 1, orient.RF: 1, orient.Tandem: 1})
	_, err = Decide(s, 0.4)
	require.ErrorIs(t, err, ErrAllCategoriesPruned)
	assert.Equal(t, AllCategoriesPruned, KindOf(err))
	assert.Contains(t, err.Error(), "min_pct=0.400")
}

func TestSelect_Specific(t *testing.T) {
	s := stateWith(map[orient.Category]int{orient.FR: 99, orient.RF: 1})

	r, err := Select(s, 0.05, orient.FR, Specific)
	require.NoError(t, err)
	assert.Equal(t, orient.FR, r.Category)
	assert.EqualValues(t, 99, r.Count)

	_, err = Select(s, 0.05, orient.RF, Specific)
	require.ErrorIs(t, err, ErrCategoryBelowThreshold)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, orient.RF, e.Category)
	assert.Contains(t, err.Error(), "orientation RF")
	assert.Contains(t, err.Error(), "dominant")
}

func TestSelect_DominantTieBreak(t *testing.T) {
	tests := []struct {
		name   string
		counts map[orient.Category]int
		want   orient.Category
	}{
		{"FR beats RF", map[orient.Category]int{orient.FR: 5, orient.RF: 5}, orient.FR},
		{"RF beats TANDEM", map[orient.Category]int{orient.RF: 5, orient.Tandem: 5}, orient.RF},
		{"FR beats TANDEM", map[orient.Category]int{orient.FR: 4, orient.Tandem: 4, orient.RF: 2}, orient.FR},
		{"largest wins", map[orient.Category]int{orient.FR: 2, orient.RF: 3, orient.Tandem: 6}, orient.Tandem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Select(stateWith(tt.counts), 0, orient.FR, Dominant)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Category)
		})
	}
}

func TestSelect_DominantIgnoresObservationOrder(t *testing.T) {
	recs := []alignment.Record{tandem(300), rf(200), tandem(310), rf(210)}
	rev := []alignment.Record{rf(210), tandem(310), rf(200), tandem(300)}

	for _, in := range [][]alignment.Record{recs, rev} {
		p := DefaultParams()
		p.Strategy = Dominant
		res, err := Compute(quietCtx(), alignment.NewSliceReader(in), p)
		require.NoError(t, err)
		assert.Equal(t, orient.RF, res.Category)
		assert.Equal(t, 200, res.InsertSize)
	}
}

func TestCompute_EndToEnd(t *testing.T) {
	sizes := []int{90, 95, 100, 100, 100, 105, 110, 110, 300, 310}
	var recs []alignment.Record
	for _, s := range sizes {
		recs = append(recs, fr(s))
		// mate record, never counted
		recs = append(recs, leftmost(-s, true, false))
	}

	var buf bytes.Buffer
	ctx := logctx.WithLogger(context.Background(), zerolog.New(&buf))

	res, err := Compute(ctx, alignment.NewSliceReader(recs), DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 100, res.InsertSize)
	assert.Equal(t, orient.FR, res.Category)
	assert.EqualValues(t, 10, res.TotalLeftmost)
	assert.EqualValues(t, 20, res.RecordsRead)

	assert.Contains(t, buf.String(), `"median_insert_size":100`)
	assert.Contains(t, buf.String(), `"event":"phase_completed"`)
	assert.Contains(t, buf.String(), `"phase":"select"`)
}

func TestCompute_EmptySource(t *testing.T) {
	_, err := Compute(quietCtx(), alignment.NewSliceReader(nil), DefaultParams())
	require.ErrorIs(t, err, ErrNoEligibleRecords)
	assert.Equal(t, NoEligibleRecords, KindOf(err))
}

func TestCompute_InvalidParamsBeforeScan(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"min_pct too high", func(p *Params) { p.MinPct = 0.6 }},
		{"min_pct negative", func(p *Params) { p.MinPct = -0.01 }},
		{"bad strategy", func(p *Params) { p.Strategy = Strategy(7) }},
		{"bad orientation", func(p *Params) { p.Orientation = orient.Category(9) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := Compute(quietCtx(), &untouchableReader{t: t}, p)
			require.ErrorIs(t, err, ErrInvalidParameter)
			assert.Equal(t, InvalidParameter, KindOf(err))
		})
	}
}

func TestParams_ValidateBounds(t *testing.T) {
	for _, pct := range []float64{0, 0.05, 0.5} {
		p := DefaultParams()
		p.MinPct = pct
		assert.NoError(t, p.Validate(), "min_pct=%g", pct)
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Dominant")
	require.NoError(t, err)
	assert.Equal(t, Dominant, s)

	_, err = ParseStrategy("median")
	assert.Error(t, err)

	var u Strategy
	require.NoError(t, u.UnmarshalText([]byte("specific")))
	assert.Equal(t, Specific, u)
}

func TestKindOf_Wrapped(t *testing.T) {
	err := errors.Join(errors.New("context"), &Error{Kind: AllCategoriesPruned, MinPct: 0.1})
	assert.Equal(t, AllCategoriesPruned, KindOf(err))
	assert.ErrorIs(t, err, ErrAllCategoriesPruned)
	assert.NotErrorIs(t, err, ErrNoEligibleRecords)
}

type untouchableReader struct{ t *testing.T }

func (r *untouchableReader) Next() (alignment.Record, error) {
	r.t.Fatal("record source read before parameters were validated")
	return alignment.Record{}, nil
}

func (r *untouchableReader) Close() error { return nil }

type errReader struct {
	after int
	n     int
	err   error
}

func (r *errReader) Next() (alignment.Record, error) {
	if r.n >= r.after {
		return alignment.Record{}, r.err
	}
	r.n++
	return fr(100), nil
}

func (r *errReader) Close() error { return nil }
