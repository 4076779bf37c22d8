package distribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformTable(w, h int) []float32 {
	v := make([]float32, w*h)
	for i := range v {
		v[i] = 1
	}
	return v
}

func TestDistribution2DUniformPdfConstant(t *testing.T) {
	d := NewDistribution2D(uniformTable(4, 4), 4, 4)
	for _, uv := range [][2]float32{{0.1, 0.1}, {0.6, 0.3}, {0.9, 0.9}} {
		assert.InDelta(t, 1.0, d.Pdf(uv[0], uv[1]), 1e-5)
	}
}

func TestDistribution2DSampleMatchesHotCell(t *testing.T) {
	table := uniformTable(4, 4)
	table[2*4+3] = 1000 // row 2, col 3 dominates
	d := NewDistribution2D(table, 4, 4)

	u, v, pdf, ok := d.SampleContinuous(0.99, 0.99)
	require.True(t, ok)
	assert.Greater(t, pdf, float32(1))
	assert.InDelta(t, 0.875, u, 0.3) // col 3 of 4 -> u in [0.75,1)
	assert.InDelta(t, 0.625, v, 0.3) // row 2 of 4 -> v in [0.5,0.75)
}

func TestDistribution2DZeroWeightFails(t *testing.T) {
	d := NewDistribution2D(make([]float32, 9), 3, 3)
	_, _, _, ok := d.SampleContinuous(0.5, 0.5)
	assert.False(t, ok)
	assert.Equal(t, float32(0), d.Pdf(0.5, 0.5))
}

func TestDistribution2DPdfIntegratesToOne(t *testing.T) {
	table := []float32{1, 2, 3, 4}
	d := NewDistribution2D(table, 2, 2)
	var sum float32
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			u := (float32(col) + 0.5) / 2
			v := (float32(row) + 0.5) / 2
			sum += d.Pdf(u, v) * (1.0 / 4.0)
		}
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}
