// Package config resolves run settings from defaults, a TOML file,
// INSERTSIZE_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/eunmann/insertsize/pkg/alignment"
	"github.com/eunmann/insertsize/pkg/insertsize"
	"github.com/eunmann/insertsize/pkg/logging"
	"github.com/eunmann/insertsize/pkg/orient"
)

// Environment variables.
const (
	EnvConfig          = "INSERTSIZE_CONFIG"
	EnvMinPct          = "INSERTSIZE_MIN_PCT"
	EnvPairOrientation = "INSERTSIZE_PAIR_ORIENTATION"
	EnvStrategy        = "INSERTSIZE_STRATEGY"
	EnvLogFormat       = "INSERTSIZE_LOG_FORMAT"
)

// ErrInvalid marks configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Layer is one source of settings. Nil fields are unset and fall through to
// the next lower layer.
type Layer struct {
	IncludeDuplicates *bool    `toml:"include_duplicates"`
	RequireProperPair *bool    `toml:"require_proper_pair"`
	MinPct            *float64 `toml:"min_pct"`
	PairOrientation   *string  `toml:"pair_orientation"`
	Strategy          *string  `toml:"strategy"`
	Format            *string  `toml:"format"`
	LogFormat         *string  `toml:"log_format"`
	Verbose           *bool    `toml:"verbose"`
}

// Settings is the fully resolved configuration.
type Settings struct {
	Params    insertsize.Params
	Format    alignment.Format
	LogFormat logging.Format
	Verbose   bool
}

// LoadFile decodes a TOML config file. Unknown keys are rejected.
func LoadFile(path string) (Layer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, fmt.Errorf("%w: read config %s: %w", ErrInvalid, path, err)
	}

	var l Layer
	if err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&l); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Layer{}, fmt.Errorf("%w: config %s: %s", ErrInvalid, path, strict.String())
		}
		return Layer{}, fmt.Errorf("%w: decode config %s: %w", ErrInvalid, path, err)
	}
	return l, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv reads the INSERTSIZE_* overrides. Empty variables are ignored.
func FromEnv(lookup LookupFunc) (Layer, error) {
	var l Layer
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	if v, ok := get(EnvMinPct); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Layer{}, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, EnvMinPct, v)
		}
		l.MinPct = &f
	}
	if v, ok := get(EnvPairOrientation); ok {
		if _, err := orient.Parse(v); err != nil {
			return Layer{}, fmt.Errorf("%w: %s: %w", ErrInvalid, EnvPairOrientation, err)
		}
		l.PairOrientation = &v
	}
	if v, ok := get(EnvStrategy); ok {
		if _, err := insertsize.ParseStrategy(v); err != nil {
			return Layer{}, fmt.Errorf("%w: %s: %w", ErrInvalid, EnvStrategy, err)
		}
		l.Strategy = &v
	}
	if v, ok := get(EnvLogFormat); ok {
		if _, err := logging.ParseFormat(v); err != nil {
			return Layer{}, fmt.Errorf("%w: %s: %w", ErrInvalid, EnvLogFormat, err)
		}
		l.LogFormat = &v
	}
	return l, nil
}

// ConfigPath picks the config file: the flag value, else INSERTSIZE_CONFIG.
// An empty result means no file.
func ConfigPath(flagValue string, lookup LookupFunc) string {
	if flagValue != "" {
		return flagValue
	}
	if v, ok := lookup(EnvConfig); ok {
		return v
	}
	return ""
}

// Merge overlays layers in order; later layers win.
func Merge(layers ...Layer) Layer {
	var out Layer
	for _, l := range layers {
		out.IncludeDuplicates = pick(out.IncludeDuplicates, l.IncludeDuplicates)
		out.RequireProperPair = pick(out.RequireProperPair, l.RequireProperPair)
		out.MinPct = pick(out.MinPct, l.MinPct)
		out.PairOrientation = pick(out.PairOrientation, l.PairOrientation)
		out.Strategy = pick(out.Strategy, l.Strategy)
		out.Format = pick(out.Format, l.Format)
		out.LogFormat = pick(out.LogFormat, l.LogFormat)
		out.Verbose = pick(out.Verbose, l.Verbose)
	}
	return out
}

func pick[T any](cur, next *T) *T {
	if next != nil {
		return next
	}
	return cur
}

// Resolve applies defaults to unset fields and parses the enumerated values.
// Range checks on min_pct are left to insertsize.Params.Validate.
func (l Layer) Resolve() (Settings, error) {
	s := Settings{
		Params: insertsize.DefaultParams(),
		Format: alignment.FormatAuto,
	}

	if l.IncludeDuplicates != nil {
		s.Params.IncludeDuplicates = *l.IncludeDuplicates
	}
	if l.RequireProperPair != nil {
		s.Params.RequireProperPair = *l.RequireProperPair
	}
	if l.MinPct != nil {
		s.Params.MinPct = *l.MinPct
	}
	if l.PairOrientation != nil {
		c, err := orient.Parse(*l.PairOrientation)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: pair_orientation: %w", ErrInvalid, err)
		}
		s.Params.Orientation = c
	}
	if l.Strategy != nil {
		st, err := insertsize.ParseStrategy(*l.Strategy)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: strategy: %w", ErrInvalid, err)
		}
		s.Params.Strategy = st
	}
	if l.Format != nil {
		f, err := alignment.ParseFormat(*l.Format)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: format: %w", ErrInvalid, err)
		}
		s.Format = f
	}
	if l.LogFormat != nil {
		f, err := logging.ParseFormat(*l.LogFormat)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: log_format: %w", ErrInvalid, err)
		}
		s.LogFormat = f
	}
	if l.Verbose != nil {
		s.Verbose = *l.Verbose
	}
	return s, nil
}

// Load resolves settings from the config file at path (may be empty), the
// environment, and flag overrides.
func Load(path string, lookup LookupFunc, flags Layer) (Settings, error) {
	var file Layer
	if path != "" {
		var err error
		if file, err = LoadFile(path); err != nil {
			return Settings{}, err
		}
	}

	env, err := FromEnv(lookup)
	if err != nil {
		return Settings{}, err
	}

	return Merge(file, env, flags).Resolve()
}
