// Package benchutil provides synthetic read pairs for benchmarks and testing.
package benchutil

import (
	"math"
	"math/rand"

	"github.com/eunmann/insertsize/pkg/alignment"
	"github.com/eunmann/insertsize/pkg/orient"
)

// GeneratorConfig configures synthetic data generation.
type GeneratorConfig struct {
	// NumPairs is the number of read pairs; each yields two records.
	NumPairs int
	// OrientationMix maps categories to their probability (0.0-1.0).
	// If nil, every pair is FR.
	OrientationMix map[orient.Category]float64
	// InsertMean and InsertStdDev shape the normal insert size distribution.
	InsertMean   float64
	InsertStdDev float64
	// DuplicateRate marks both mates of a pair as duplicates.
	DuplicateRate float64
	// UnmappedRate leaves the second mate of a pair unmapped.
	UnmappedRate float64
	// Seed for reproducible generation. 0 = use BenchmarkSeed.
	Seed int64
}

// DefaultConfig returns a typical short-read library: mostly FR with a small
// share of RF and TANDEM pairs and a few duplicates.
func DefaultConfig(numPairs int) GeneratorConfig {
	return GeneratorConfig{
		NumPairs: numPairs,
		OrientationMix: map[orient.Category]float64{
			orient.FR:     0.90,
			orient.RF:     0.07,
			orient.Tandem: 0.03,
		},
		InsertMean:    350,
		InsertStdDev:  60,
		DuplicateRate: 0.05,
		UnmappedRate:  0.01,
		Seed:          BenchmarkSeed,
	}
}

// Generator generates synthetic alignment records.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a new data generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = BenchmarkSeed
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Records returns both mates of every pair, mates adjacent, leftmost first.
func (g *Generator) Records() []alignment.Record {
	recs := make([]alignment.Record, 0, 2*g.cfg.NumPairs)
	for i := 0; i < g.cfg.NumPairs; i++ {
		left, right := g.pair()
		recs = append(recs, left, right)
	}
	return recs
}

func (g *Generator) pair() (left, right alignment.Record) {
	leftRev, rightRev := g.strands(g.category())
	size := g.insertSize()
	dup := g.rng.Float64() < g.cfg.DuplicateRate
	unmapped := g.rng.Float64() < g.cfg.UnmappedRate

	left = alignment.Record{
		Paired:         true,
		ProperPair:     !unmapped,
		Duplicate:      dup,
		Reverse:        leftRev,
		MateReverse:    rightRev,
		MateUnmapped:   unmapped,
		TemplateLength: size,
	}
	right = alignment.Record{
		Paired:         true,
		ProperPair:     !unmapped,
		Duplicate:      dup,
		Unmapped:       unmapped,
		Reverse:        rightRev,
		MateReverse:    leftRev,
		TemplateLength: -size,
	}
	if unmapped {
		left.TemplateLength, right.TemplateLength = 0, 0
	}
	return left, right
}

func (g *Generator) category() orient.Category {
	if g.cfg.OrientationMix == nil {
		return orient.FR
	}
	r := g.rng.Float64()
	var cumulative float64
	for _, c := range orient.All {
		cumulative += g.cfg.OrientationMix[c]
		if r < cumulative {
			return c
		}
	}
	return orient.FR
}

func (g *Generator) strands(c orient.Category) (leftRev, rightRev bool) {
	switch c {
	case orient.RF:
		return true, false
	case orient.Tandem:
		rev := g.rng.Intn(2) == 1
		return rev, rev
	default:
		return false, true
	}
}

func (g *Generator) insertSize() int {
	mean := g.cfg.InsertMean
	if mean <= 0 {
		mean = 300
	}
	size := int(math.Round(mean + g.rng.NormFloat64()*g.cfg.InsertStdDev))
	if size < 1 {
		size = 1
	}
	return size
}
