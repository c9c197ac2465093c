package additive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestContrast_UniformLine_IsContrastMin(t *testing.T) {
	line := make([]uint16, 1024)
	for i := range line {
		line[i] = 0x8000
	}
	c := Contrast(line, 0, 1)
	assert.InDelta(t, 0, c, 1e-6)
}

func TestContrast_ContrastMinOne_RemovesModulation(t *testing.T) {
	// spec.md §8 "Setting contrast_min=1.0 removes contrast modulation
	// (output unchanged as line variance varies)".
	rapid.Check(t, func(t *rapid.T) {
		line := rapid.SliceOfN(rapid.Uint16(), 8, 512).Draw(t, "line")
		c := Contrast(line, 1, 1)
		assert.Equal(t, float32(1), c)
	})
}

func TestContrast_InRangeContrastMinToOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		line := rapid.SliceOfN(rapid.Uint16(), 8, 512).Draw(t, "line")
		contrastMin := float32(rapid.Float64Range(0, 1).Draw(t, "contrastMin"))
		power := float32(rapid.Float64Range(0.1, 4).Draw(t, "power"))
		c := Contrast(line, contrastMin, power)
		assert.GreaterOrEqual(t, c, contrastMin-1e-4)
		assert.LessOrEqual(t, c, float32(1.0001))
	})
}

func TestContrast_HighVarianceExceedsLowVariance(t *testing.T) {
	low := make([]uint16, 256)
	for i := range low {
		low[i] = 0x8000
	}
	// Alternate in runs of 4 so the every-4th-sample variance sampling sees
	// both extremes; a period-2 pattern would sample as all zeros.
	high := make([]uint16, 256)
	for i := range high {
		if (i/4)%2 == 0 {
			high[i] = 0
		} else {
			high[i] = 0xFFFF
		}
	}
	assert.Greater(t, Contrast(high, 0, 1), Contrast(low, 0, 1))
}
