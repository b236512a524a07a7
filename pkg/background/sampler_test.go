// ABOUTME: Tests for the background sampler
// ABOUTME: Covers retention, eviction order, quietest selection and pause behaviour
package background

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// feed pushes n frames of constant amplitude
func feed(s *Sampler, n int, amplitude float32) {
	for i := 0; i < n; i++ {
		s.Sample(audio.Stereo{A: amplitude, B: -amplitude / 2})
	}
}

func TestRetainsAtMostNumClips(t *testing.T) {
	const clipLength = 32

	tests := []struct {
		name     string
		numClips int
		fed      int
	}{
		{"fewer than capacity", 5, 3},
		{"exactly capacity", 5, 5},
		{"over capacity", 5, 12},
		{"single slot", 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSampler(tt.numClips, clipLength, testRNG())
			for i := 0; i < tt.fed; i++ {
				feed(s, clipLength, float32(i+1)/100)
			}

			want := min(tt.fed, tt.numClips)
			require.Equal(t, want, s.Len())

			// oldest are evicted first, so the newest ids remain
			ids := s.IDs()
			for i, id := range ids {
				assert.Equal(t, ClipID(tt.fed-want+i), id)
			}
		})
	}
}

func TestClipRMSIsLouderChannel(t *testing.T) {
	s := NewSampler(2, 16, testRNG())
	feed(s, 16, 0.4)

	clip, ok := s.ChooseClip(1)
	require.True(t, ok)
	assert.InDelta(t, 0.4, clip.RMS, 1e-6)
	assert.Equal(t, 16, clip.Len())
}

func TestChooseClipEmpty(t *testing.T) {
	s := NewSampler(3, 8, testRNG())
	clip, ok := s.ChooseClip(10)
	assert.False(t, ok)
	assert.Nil(t, clip)
}

func TestChooseClipLimitOneIsQuietest(t *testing.T) {
	const clipLength = 8
	s := NewSampler(6, clipLength, testRNG())
	for _, amp := range []float32{0.5, 0.3, 0.05, 0.7, 0.2} {
		feed(s, clipLength, amp)
	}

	for i := 0; i < 20; i++ {
		clip, ok := s.ChooseClip(1)
		require.True(t, ok)
		assert.InDelta(t, 0.05, clip.RMS, 1e-6)
	}
}

func TestChooseClipStaysWithinQuietest(t *testing.T) {
	const clipLength = 8
	s := NewSampler(10, clipLength, testRNG())
	for i := 10; i > 0; i-- {
		feed(s, clipLength, float32(i)/10)
	}

	seen := map[ClipID]bool{}
	for i := 0; i < 200; i++ {
		clip, ok := s.ChooseClip(3)
		require.True(t, ok)
		assert.LessOrEqual(t, clip.RMS, float32(0.3)+1e-6)
		seen[clip.ID] = true
	}
	assert.Len(t, seen, 3)
}

func TestPausedClipIsDiscarded(t *testing.T) {
	const clipLength = 16
	s := NewSampler(4, clipLength, testRNG())

	// half a loud clip, interrupted by a click
	feed(s, clipLength/2, 0.9)
	s.Pause()
	assert.False(t, s.Capturing())

	// frames while paused go nowhere
	feed(s, clipLength*2, 0.9)
	assert.Zero(t, s.Len())

	s.Resume()
	s.Resume()
	assert.True(t, s.Capturing())
	feed(s, clipLength*3, 0.1)

	require.Equal(t, 3, s.Len())
	for i := 0; i < 50; i++ {
		clip, ok := s.ChooseClip(10)
		require.True(t, ok)
		assert.InDelta(t, 0.1, clip.RMS, 1e-6)
	}
}

func TestChosenClipIsRecycledOnEviction(t *testing.T) {
	const clipLength = 4
	s := NewSampler(1, clipLength, testRNG())
	feed(s, clipLength, 0.25)

	clip, ok := s.ChooseClip(1)
	require.True(t, ok)
	assert.Equal(t, clipLength, clip.Len())
	assert.Equal(t, ClipID(0), clip.ID)

	feed(s, clipLength, 0.75)

	// the pointer is still valid but its frames are gone
	assert.Equal(t, 0, clip.Len())
	assert.Equal(t, float32(0), clip.RMS)

	next, ok := s.ChooseClip(1)
	require.True(t, ok)
	assert.NotSame(t, clip, next)
	assert.Equal(t, ClipID(1), next.ID)
}

func TestSteadyStateReusesPool(t *testing.T) {
	const clipLength = 4
	s := NewSampler(2, clipLength, testRNG())
	for i := 0; i < 50; i++ {
		feed(s, clipLength, 0.1)
		if i%3 == 0 {
			s.Pause()
			s.Resume()
		}
	}
	assert.Equal(t, 2, s.Len())
	assert.Len(t, s.free, 1)
}
