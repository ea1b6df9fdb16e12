package benchutil

// Shared constants for benchmarks across packages.

// BenchmarkSeed is the default seed for reproducible benchmark data generation.
const BenchmarkSeed = 42

// Standard benchmark sizes (read pairs) for quick runs.
var BenchmarkSizes = []int{1000, 10000, 100000}

// ScalingSizes are larger sizes for comprehensive scaling tests.
// Used with INSERTSIZE_LONG_BENCH=1 environment variable.
var ScalingSizes = []int{250000, 1000000, 5000000}
