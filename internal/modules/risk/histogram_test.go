package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistogram(t *testing.T) {
	h := NewHistogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 5)
	require.NotNil(t, h)

	require.Len(t, h.BinEdges, 6)
	require.Len(t, h.Counts, 5)

	assert.Equal(t, 0.0, h.BinEdges[0])
	assert.Equal(t, 10.0, h.BinEdges[5])

	// Every value is counted exactly once
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 11, total)

	// The maximum lands in the last bin, not past it
	assert.GreaterOrEqual(t, h.Counts[4], 1)
}

func TestNewHistogramDegenerateRange(t *testing.T) {
	h := NewHistogram([]float64{2.5, 2.5, 2.5}, 50)
	require.NotNil(t, h)
	assert.Equal(t, []float64{2.5, 2.5}, h.BinEdges)
	assert.Equal(t, []int{3}, h.Counts)
}

func TestNewHistogramEmpty(t *testing.T) {
	assert.Nil(t, NewHistogram(nil, 50))
	assert.Nil(t, NewHistogram([]float64{1, 2}, 0))
}
