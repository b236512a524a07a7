// ABOUTME: Background sampler that keeps the newest fixed-length clips
// ABOUTME: Ranks retained clips by RMS and picks randomly among the quietest
package background

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	"github.com/Resonate-Protocol/clickmute-go/pkg/sampler"
)

// ClipID orders clips by capture time
type ClipID uint64

// Clip is one captured stereo snapshot
type Clip struct {
	ID  ClipID
	A   *sampler.Sampler
	B   *sampler.Sampler
	RMS float32
}

func newClip(length int) *Clip {
	return &Clip{
		A: sampler.New(length, true),
		B: sampler.New(length, true),
	}
}

func (c *Clip) reset() {
	c.A.Clear()
	c.B.Clear()
	c.RMS = 0
}

// Len returns the clip length in frames
func (c *Clip) Len() int {
	return c.A.Len()
}

// Sampler cuts the signal into clips and retains the newest numClips of them.
type Sampler struct {
	numClips   int
	clipLength int

	current *Clip
	clips   []*Clip // ascending ID, so clips[0] is the oldest
	free    []*Clip
	sorted  []*Clip
	nextID  ClipID

	rng *rand.Rand
}

// NewSampler creates a background sampler retaining numClips clips of
// clipLength frames. A nil rng is replaced by a randomly seeded one. The
// sampler starts capturing immediately.
func NewSampler(numClips, clipLength int, rng *rand.Rand) *Sampler {
	if numClips <= 0 || clipLength <= 0 {
		panic("background: numClips and clipLength must be positive")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	// retained clips, one transient extra before eviction, one in progress
	pool := numClips + 2
	s := &Sampler{
		numClips:   numClips,
		clipLength: clipLength,
		clips:      make([]*Clip, 0, numClips+1),
		free:       make([]*Clip, 0, pool),
		sorted:     make([]*Clip, 0, numClips+1),
		rng:        rng,
	}
	for i := 0; i < pool; i++ {
		s.free = append(s.free, newClip(clipLength))
	}
	s.Resume()
	return s
}

// Sample feeds one frame into the clip being captured. When the clip is
// full it is retained and a new capture starts.
func (s *Sampler) Sample(frame audio.Stereo) {
	if s.current == nil {
		return
	}
	s.current.A.Sample(frame.A)
	s.current.B.Sample(frame.B)
	if !s.current.A.IsFull() {
		return
	}

	clip := s.current
	s.current = nil
	clip.ID = s.nextID
	s.nextID++
	clip.RMS = max(clip.A.RMS(), clip.B.RMS())

	s.clips = append(s.clips, clip)
	if len(s.clips) > s.numClips {
		oldest := s.clips[0]
		copy(s.clips, s.clips[1:])
		s.clips = s.clips[:len(s.clips)-1]
		s.release(oldest)
	}
	s.Resume()
}

// ChooseClip returns a random clip among the limit quietest retained ones.
// ok is false when nothing has been captured yet.
//
// The clip belongs to the sampler's pool. Once evicted it is cleared and
// reused for a later capture, so callers copy what they need before the
// next Sample and must not retain the pointer.
func (s *Sampler) ChooseClip(limit int) (clip *Clip, ok bool) {
	if len(s.clips) == 0 {
		return nil, false
	}
	s.sorted = append(s.sorted[:0], s.clips...)
	slices.SortFunc(s.sorted, func(a, b *Clip) int {
		return cmp.Compare(a.RMS, b.RMS)
	})

	n := min(max(limit, 1), len(s.sorted))
	return s.sorted[s.rng.IntN(n)], true
}

// Pause drops the clip being captured; nothing of it is retained
func (s *Sampler) Pause() {
	if s.current != nil {
		s.release(s.current)
		s.current = nil
	}
}

// Resume starts a new capture if none is in progress
func (s *Sampler) Resume() {
	if s.current != nil {
		return
	}
	n := len(s.free)
	if n == 0 {
		// the pool covers every live clip, so this only happens if a caller
		// holds more clips than it should
		s.current = newClip(s.clipLength)
		return
	}
	s.current = s.free[n-1]
	s.free = s.free[:n-1]
}

// Capturing reports whether a clip is in progress
func (s *Sampler) Capturing() bool {
	return s.current != nil
}

// Len returns the number of retained clips
func (s *Sampler) Len() int {
	return len(s.clips)
}

// ClipLength returns the clip length in frames
func (s *Sampler) ClipLength() int {
	return s.clipLength
}

// IDs returns the retained clip ids, oldest first
func (s *Sampler) IDs() []ClipID {
	ids := make([]ClipID, len(s.clips))
	for i, c := range s.clips {
		ids[i] = c.ID
	}
	return ids
}

func (s *Sampler) release(c *Clip) {
	c.reset()
	s.free = append(s.free, c)
}
