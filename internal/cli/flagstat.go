package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eunmann/insertsize/internal/logctx"
	"github.com/eunmann/insertsize/pkg/alignment"
	"github.com/eunmann/insertsize/pkg/flagstat"
	"github.com/eunmann/insertsize/pkg/logging"
)

const defaultJobs = 4

type flagstatFlags struct {
	commonFlags
	jobs int
}

func (f *flagstatFlags) register(fs *flag.FlagSet) {
	f.commonFlags.register(fs)
	fs.IntVar(&f.jobs, "jobs", defaultJobs, "inputs scanned concurrently")
	fs.IntVar(&f.jobs, "j", defaultJobs, "shorthand for --jobs")
}

func runFlagstat(ctx context.Context, args []string, env Env) error {
	fs := newFlagSet("flagstat", env)
	var f flagstatFlags
	f.register(fs)

	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		return usageErrorf("at least one input is required\n%s", usageText)
	}
	if f.jobs < 1 {
		return usageErrorf("--jobs must be at least 1, got %d", f.jobs)
	}
	stdin := 0
	for _, in := range inputs {
		if in == alignment.StdinName {
			stdin++
		}
	}
	if stdin > 1 {
		return usageErrorf("stdin (-) can be given only once")
	}

	settings, err := loadSettings(&f.commonFlags, env, f.layer(set))
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if err := checkLocalInput(in); err != nil {
			return err
		}
	}

	ctx = setupLogging(ctx, env, settings, f.quiet)
	opts, err := openOptions(ctx, env, settings.Format, f.s3Download, inputs...)
	if err != nil {
		return err
	}

	results, err := collectAll(ctx, inputs, opts, f.jobs)
	if err != nil {
		return err
	}

	var b strings.Builder
	for i, st := range results {
		if len(inputs) > 1 {
			fmt.Fprintf(&b, "# %s\n", inputs[i])
		}
		b.WriteString(st.String())
		b.WriteByte('\n')
	}
	_, err = fmt.Fprint(env.Stdout, b.String())
	return err
}

// collectAll scans inputs with at most jobs in flight. Results keep the
// order of inputs; the first failure cancels the rest.
func collectAll(ctx context.Context, inputs []string, opts alignment.OpenOptions, jobs int) ([]flagstat.Stats, error) {
	start := time.Now()
	results := make([]flagstat.Stats, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, in := range inputs {
		g.Go(func() error {
			ictx := logctx.WithInt(logctx.WithStr(gctx, "input", in), "input_index", i)
			r, err := alignment.Open(ictx, in, opts)
			if err != nil {
				return err
			}
			defer r.Close()

			st, err := flagstat.Collect(ictx, r)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total uint64
	for _, st := range results {
		total += st.Total
	}
	logging.PhaseComplete(logctx.FromContext(ctx), "flagstat", time.Since(start)).
		Int("inputs", len(inputs)).
		Int("jobs", jobs).
		Count("records", int64(total)).
		Rate("records", int64(total)).
		Log("flagstat completed")
	return results, nil
}
