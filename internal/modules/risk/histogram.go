package risk

// Histogram is a chart-ready binning of a value distribution. BinEdges has
// one more entry than Counts; bin i spans [BinEdges[i], BinEdges[i+1]).
type Histogram struct {
	BinEdges []float64 `json:"bin_edges"`
	Counts   []int     `json:"counts"`
}

// NewHistogram bins values into the given number of equal-width bins across
// the observed range. A degenerate range (all values equal) collapses to a
// single bin holding everything.
func NewHistogram(values []float64, bins int) *Histogram {
	if len(values) == 0 || bins <= 0 {
		return nil
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if min == max {
		return &Histogram{
			BinEdges: []float64{min, max},
			Counts:   []int{len(values)},
		}
	}

	width := (max - min) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = min + float64(i)*width
	}
	edges[bins] = max // avoid float drift on the last edge

	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1 // max value lands in the last bin
		}
		counts[idx]++
	}

	return &Histogram{BinEdges: edges, Counts: counts}
}
