// Package cli implements the command-line interface for insertsize.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eunmann/insertsize/internal/config"
	"github.com/eunmann/insertsize/internal/logctx"
	"github.com/eunmann/insertsize/pkg/alignment"
	"github.com/eunmann/insertsize/pkg/logging"
	"github.com/eunmann/insertsize/pkg/s3fetch"
)

const usageText = `usage: insertsize [median] --input PATH [options]
       insertsize flagstat [options] INPUT...
commands: median (default), flagstat`

// Env holds the process surroundings a command runs against.
type Env struct {
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	LookupEnv config.LookupFunc

	// NewRemote builds the opener for s3:// inputs. Nil uses s3fetch.NewClient.
	NewRemote func(ctx context.Context, opts s3fetch.Options) (alignment.ObjectOpener, error)
}

// OSEnv returns an Env bound to the process's standard streams and environment.
func OSEnv() Env {
	return Env{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
	}
}

func (e Env) lookup() config.LookupFunc {
	if e.LookupEnv == nil {
		return func(string) (string, bool) { return "", false }
	}
	return e.LookupEnv
}

// Run executes the CLI with the given arguments.
func Run(ctx context.Context, args []string, env Env) error {
	if len(args) > 0 {
		switch args[0] {
		case "median":
			return runMedian(ctx, args[1:], env)
		case "flagstat":
			return runFlagstat(ctx, args[1:], env)
		}
	}
	return runMedian(ctx, args, env)
}

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	format     string
	logFormat  string
	verbose    bool
	quiet      bool
	s3Download bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "TOML config file (default $"+config.EnvConfig+")")
	fs.StringVar(&c.format, "format", "", "input format: auto, bam, or sam")
	fs.StringVar(&c.logFormat, "log-format", "", "log output: json or human (default: human on a terminal)")
	fs.BoolVar(&c.verbose, "verbose", false, "debug logging")
	fs.BoolVar(&c.verbose, "v", false, "shorthand for --verbose")
	fs.BoolVar(&c.quiet, "quiet", false, "only log warnings and errors")
	fs.BoolVar(&c.quiet, "q", false, "shorthand for --quiet")
	fs.BoolVar(&c.s3Download, "s3-download", false, "fetch s3:// inputs with the multipart download manager")
}

// layer returns the settings given explicitly on the command line.
func (c *commonFlags) layer(set map[string]bool) config.Layer {
	var l config.Layer
	if set["format"] {
		l.Format = &c.format
	}
	if set["log-format"] {
		l.LogFormat = &c.logFormat
	}
	if set["verbose"] || set["v"] {
		l.Verbose = &c.verbose
	}
	return l
}

func newFlagSet(name string, env Env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if env.Stderr != nil {
		fs.SetOutput(env.Stderr)
	}
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usageText)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) (map[string]bool, error) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, err
		}
		return nil, usageError(err)
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set, nil
}

func loadSettings(c *commonFlags, env Env, flags config.Layer) (config.Settings, error) {
	lookup := env.lookup()
	return config.Load(config.ConfigPath(c.configPath, lookup), lookup, flags)
}

// setupLogging builds the run logger on stderr and attaches it to ctx.
func setupLogging(ctx context.Context, env Env, s config.Settings, quiet bool) context.Context {
	w := env.Stderr
	if w == nil {
		w = io.Discard
	}
	logger := logging.InitWriter(w, logging.Level(s.Verbose, quiet), s.LogFormat)
	return logctx.WithLogger(ctx, logger)
}

// checkLocalInput rejects a missing local input before anything is opened.
// It is an I/O failure, not a usage error.
func checkLocalInput(input string) error {
	if input == alignment.StdinName || alignment.IsRemote(input) {
		return nil
	}
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	return nil
}

// openOptions prepares alignment.Open, building the S3 client only when an
// input needs it.
func openOptions(ctx context.Context, env Env, format alignment.Format, s3Download bool, inputs ...string) (alignment.OpenOptions, error) {
	opts := alignment.OpenOptions{Format: format, Stdin: env.Stdin}

	remote := false
	for _, in := range inputs {
		remote = remote || alignment.IsRemote(in)
	}
	if !remote {
		return opts, nil
	}

	newRemote := env.NewRemote
	if newRemote == nil {
		newRemote = func(ctx context.Context, o s3fetch.Options) (alignment.ObjectOpener, error) {
			c, err := s3fetch.NewClient(ctx, o)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	opener, err := newRemote(ctx, s3fetch.Options{Download: s3Download})
	if err != nil {
		return opts, fmt.Errorf("create S3 client: %w", err)
	}
	opts.Remote = opener
	return opts, nil
}
