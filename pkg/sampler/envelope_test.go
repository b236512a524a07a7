// ABOUTME: Tests for the sampler min/max envelope
// ABOUTME: Checks bucketing and the empty case
package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeEmpty(t *testing.T) {
	s := New(8, true)
	mins, maxs := s.Envelope(4)
	assert.Empty(t, mins)
	assert.Empty(t, maxs)
}

func TestEnvelopeBuckets(t *testing.T) {
	s := New(8, true)
	for _, v := range []float32{0.5, -0.25, 0.1, 0.2, -1, -0.5, 0.75, 0} {
		s.Sample(v)
	}

	mins, maxs := s.Envelope(4)
	assert.Equal(t, []float32{-0.25, 0, -1, 0}, mins)
	assert.Equal(t, []float32{0.5, 0.2, 0, 0.75}, maxs)
}

func TestEnvelopeMoreColumnsThanSamples(t *testing.T) {
	s := New(8, true)
	s.Sample(0.5)
	s.Sample(-0.5)

	mins, maxs := s.Envelope(100)
	assert.Len(t, mins, 2)
	assert.Equal(t, []float32{0.5, 0}, maxs)
}
