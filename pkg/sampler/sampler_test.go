// ABOUTME: Tests for the capture ring buffer
// ABOUTME: Covers wraparound ordering, RMS and mode-gated recording
package sampler

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func push(s *Sampler, from, to int) {
	for i := from; i < to; i++ {
		s.Sample(float32(i))
	}
}

func seq(from, to int) []float32 {
	out := make([]float32, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, float32(i))
	}
	return out
}

func TestGetReturnsLastMaxSizeSamplesInOrder(t *testing.T) {
	for _, total := range []int{0, 1, 7, 8, 9, 15, 16, 17, 100} {
		s := New(8, true)
		push(s, 0, total)

		from := total - 8
		if from < 0 {
			from = 0
		}
		assert.Equal(t, seq(from, total), s.Get(), "after %d samples", total)
		assert.Equal(t, total >= 8, s.IsFull())
		assert.Equal(t, total == 0, s.IsEmpty())
	}
}

func TestCopyToShortDestination(t *testing.T) {
	s := New(4, true)
	push(s, 0, 10) // holds 6,7,8,9

	dst := make([]float32, 3)
	n := s.CopyTo(dst)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{6, 7, 8}, dst)
	assert.Equal(t, float32(9), s.At(3))
}

func TestClearEmpties(t *testing.T) {
	s := New(4, true)
	push(s, 0, 6)
	require.False(t, s.IsEmpty())

	s.Clear()
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Get())

	push(s, 20, 22)
	assert.Equal(t, []float32{20, 21}, s.Get())
}

func TestRMS(t *testing.T) {
	s := New(4, true)
	assert.Zero(t, s.RMS())

	s.Sample(3)
	s.Sample(-4)
	assert.InDelta(t, math.Sqrt(12.5), s.RMS(), 1e-6)

	// after wrapping only the retained samples count
	push(s, 0, 4)
	for i := 0; i < 4; i++ {
		s.Sample(0.5)
	}
	assert.InDelta(t, 0.5, s.RMS(), 1e-6)
}

func TestHoldDoesNotRecord(t *testing.T) {
	s := New(4, false)
	assert.True(t, s.IsInHold())
	push(s, 0, 3)
	assert.True(t, s.IsEmpty())

	s.Live()
	push(s, 0, 3)
	assert.Equal(t, 3, s.Len())
}

func TestAutoCycle(t *testing.T) {
	s := New(16, false)
	s.Auto()
	assert.True(t, s.IsInAuto())

	push(s, 0, 5)
	s.HoldOrAutoHold()
	assert.True(t, s.IsInAutoHold())
	assert.True(t, s.IsWaiting())

	push(s, 100, 110)
	assert.Equal(t, seq(0, 5), s.Get(), "frozen capture must not change")

	s.Trigger()
	assert.True(t, s.IsEmpty(), "trigger starts a fresh capture")
	assert.False(t, s.IsInAutoHold())

	push(s, 50, 52)
	assert.Equal(t, seq(50, 52), s.Get())
}

func TestAcquireAfterWaitsForDeadline(t *testing.T) {
	now := time.Unix(500, 0)
	s := New(16, false)
	s.now = func() time.Time { return now }

	s.AcquireAfter(now.Add(200 * time.Millisecond))
	assert.True(t, s.IsWaiting())

	push(s, 0, 4)
	s.Trigger()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, CaptureAfterTrigger, s.Mode().Kind)

	now = now.Add(300 * time.Millisecond)
	s.Trigger()
	assert.Equal(t, Capture, s.Mode().Kind)

	push(s, 0, 4)
	assert.Equal(t, 4, s.Len())
}
