package insertsize

// Median returns the histogram "upper median": the smallest insert size whose
// cumulative count reaches floor((total+1)/2). For an even total this is the
// lower of the two central values, never their average. An empty histogram
// yields 0.
func Median(h Histogram) int {
	total := h.Total()
	if total == 0 {
		return 0
	}
	threshold := (total + 1) / 2

	sizes := h.Sizes()
	var running uint64
	for _, size := range sizes {
		running += h[size]
		if running >= threshold {
			return size
		}
	}
	// Unreachable for a consistent histogram.
	return sizes[len(sizes)-1]
}
