package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/eunmann/insertsize/internal/config"
	"github.com/eunmann/insertsize/internal/logctx"
	"github.com/eunmann/insertsize/pkg/alignment"
	"github.com/eunmann/insertsize/pkg/histfile"
	"github.com/eunmann/insertsize/pkg/insertsize"
)

type medianFlags struct {
	commonFlags
	input             string
	includeDuplicates bool
	requireProperPair bool
	minPct            float64
	pairOrientation   string
	strategy          string
	histogramOut      string
}

func (m *medianFlags) register(fs *flag.FlagSet) {
	m.commonFlags.register(fs)
	fs.StringVar(&m.input, "input", "", "alignment input: path, - for stdin, or s3://bucket/key")
	fs.StringVar(&m.input, "i", "", "shorthand for --input")
	fs.BoolVar(&m.includeDuplicates, "include-duplicates", false, "count reads flagged as duplicates")
	fs.BoolVar(&m.requireProperPair, "require-proper-pair", false, "only count properly paired reads")
	fs.Float64Var(&m.minPct, "min-pct", insertsize.DefaultMinPct, "discard orientations below this share of pairs, in [0, 0.5]")
	fs.Float64Var(&m.minPct, "M", insertsize.DefaultMinPct, "shorthand for --min-pct")
	fs.StringVar(&m.pairOrientation, "pair-orientation", "FR", "orientation to report: FR, RF, or TANDEM")
	fs.StringVar(&m.strategy, "strategy", "specific", "specific reports --pair-orientation; dominant reports the largest orientation")
	fs.StringVar(&m.histogramOut, "histogram-out", "", "also write the histograms (.parquet, .sqlite/.db, anything else is TSV)")
}

func (m *medianFlags) layer(set map[string]bool) config.Layer {
	l := m.commonFlags.layer(set)
	if set["include-duplicates"] {
		l.IncludeDuplicates = &m.includeDuplicates
	}
	if set["require-proper-pair"] {
		l.RequireProperPair = &m.requireProperPair
	}
	if set["min-pct"] || set["M"] {
		l.MinPct = &m.minPct
	}
	if set["pair-orientation"] {
		l.PairOrientation = &m.pairOrientation
	}
	if set["strategy"] {
		l.Strategy = &m.strategy
	}
	return l
}

func runMedian(ctx context.Context, args []string, env Env) error {
	fs := newFlagSet("median", env)
	var f medianFlags
	f.register(fs)

	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usageErrorf("unexpected arguments: %v", fs.Args())
	}
	if f.input == "" {
		return usageErrorf("--input is required\n%s", usageText)
	}

	settings, err := loadSettings(&f.commonFlags, env, f.layer(set))
	if err != nil {
		return err
	}
	if err := settings.Params.Validate(); err != nil {
		return err
	}
	if err := checkLocalInput(f.input); err != nil {
		return err
	}

	ctx = setupLogging(ctx, env, settings, f.quiet)
	ctx = logctx.WithStr(ctx, "input", f.input)

	opts, err := openOptions(ctx, env, settings.Format, f.s3Download, f.input)
	if err != nil {
		return err
	}
	r, err := alignment.Open(ctx, f.input, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	state, stats, err := insertsize.Scan(ctx, r, settings.Params.Filter, settings.Params.ProgressEvery)
	if err != nil {
		return err
	}

	if f.histogramOut != "" {
		if _, err := histfile.Write(ctx, f.histogramOut, state); err != nil {
			return fmt.Errorf("export histogram: %w", err)
		}
	}

	res, err := insertsize.Evaluate(ctx, state, stats, settings.Params)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(env.Stdout, res.InsertSize)
	return err
}
