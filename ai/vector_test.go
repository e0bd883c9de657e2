package ai

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
	}{
		{name: "axis", in: []float32{0, 5, 0}},
		{name: "mixed", in: []float32{1, -2, 3, -4}},
		{name: "already unit", in: []float32{0.6, 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NormalizeVector(tt.in)
			var sum float64
			for _, v := range out {
				sum += float64(v) * float64(v)
			}
			assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
		})
	}
}

func TestNormalizeVector_ZeroAndEmpty(t *testing.T) {
	assert.Equal(t, []float32{0, 0, 0}, NormalizeVector([]float32{0, 0, 0}))
	assert.Empty(t, NormalizeVector(nil))
}

func TestNormalizeVector_DoesNotModifyInput(t *testing.T) {
	in := []float32{3, 4}
	_ = NormalizeVector(in)
	assert.Equal(t, []float32{3, 4}, in)
}
