// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion and interleaving helpers
package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloatToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"full scale", 1, MaxInt16},
		{"negative full scale", -1, -MaxInt16},
		{"half", 0.5, 16383},
		{"clip high", 1.5, MaxInt16},
		{"clip low", -2, MinInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FloatToInt16(tt.input))
		})
	}
}

func TestInt16ToFloat(t *testing.T) {
	assert.Equal(t, float32(0), Int16ToFloat(0))
	assert.Equal(t, float32(-1), Int16ToFloat(MinInt16))
	assert.InDelta(t, 0.5, Int16ToFloat(16384), 1e-9)
}

func TestInterleaveRoundTrip(t *testing.T) {
	frames := []float32{1, -1, 2, -2, 3, -3}
	a := make([]float32, 3)
	b := make([]float32, 3)

	assert.Equal(t, 3, Deinterleave(frames, a, b))
	assert.Equal(t, []float32{1, 2, 3}, a)
	assert.Equal(t, []float32{-1, -2, -3}, b)

	out := make([]float32, 6)
	assert.Equal(t, 3, Interleave(a, b, out))
	assert.Equal(t, frames, out)
}

func TestInterleaveBoundedByShortestSlice(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4}
	out := make([]float32, 6)
	assert.Equal(t, 1, Interleave(a, b, out))
	assert.Equal(t, []float32{1, 4, 0, 0, 0, 0}, out)
}
