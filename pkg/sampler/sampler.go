// ABOUTME: Fixed-size ring buffer with mode-gated recording
// ABOUTME: Used for the live/click waveforms and as background clip storage
package sampler

import (
	"math"
	"time"
)

// Sampler keeps the most recent samples of one channel.
//
// A Sampler is not safe for concurrent use; callers that share one across
// goroutines guard it with their own lock.
type Sampler struct {
	data  []float32
	head  int // next write position
	count int
	mode  Mode
	now   func() time.Time
}

// New creates a sampler holding up to maxSize samples. A live sampler starts
// in Capture, otherwise in Hold.
func New(maxSize int, live bool) *Sampler {
	if maxSize <= 0 {
		panic("sampler: maxSize must be positive")
	}
	mode := Mode{Kind: Hold}
	if live {
		mode = Mode{Kind: Capture}
	}
	return &Sampler{
		data: make([]float32, maxSize),
		mode: mode,
		now:  time.Now,
	}
}

// Sample records one sample if the current mode allows it, overwriting the
// oldest sample when full.
func (s *Sampler) Sample(sample float32) {
	if !s.mode.Records() {
		return
	}
	s.data[s.head] = sample
	s.head++
	if s.head == len(s.data) {
		s.head = 0
	}
	if s.count < len(s.data) {
		s.count++
	}
}

// Get returns a copy of the contents, oldest first
func (s *Sampler) Get() []float32 {
	out := make([]float32, s.count)
	s.CopyTo(out)
	return out
}

// CopyTo copies up to len(dst) samples, oldest first, and returns how many
// were copied. It does not allocate.
func (s *Sampler) CopyTo(dst []float32) int {
	n := s.count
	if len(dst) < n {
		n = len(dst)
	}
	start := s.head - s.count
	if start < 0 {
		start += len(s.data)
	}
	first := copy(dst[:n], s.data[start:])
	if first < n {
		copy(dst[first:n], s.data[:n-first])
	}
	return n
}

// At returns the i-th oldest sample. i must be in [0, Len()).
func (s *Sampler) At(i int) float32 {
	idx := s.head - s.count + i
	if idx < 0 {
		idx += len(s.data)
	} else if idx >= len(s.data) {
		idx -= len(s.data)
	}
	return s.data[idx]
}

// RMS returns the root mean square of the contents. It returns 0 for an
// empty sampler; check IsEmpty when that distinction matters.
func (s *Sampler) RMS() float32 {
	if s.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < s.count; i++ {
		v := float64(s.At(i))
		sum += v * v
	}
	return float32(math.Sqrt(sum / float64(s.count)))
}

// Clear discards the contents without changing the mode
func (s *Sampler) Clear() {
	s.head = 0
	s.count = 0
}

func (s *Sampler) IsEmpty() bool { return s.count == 0 }
func (s *Sampler) IsFull() bool  { return s.count == len(s.data) }
func (s *Sampler) Len() int      { return s.count }
func (s *Sampler) MaxSize() int  { return len(s.data) }

// Mode returns the current mode
func (s *Sampler) Mode() Mode { return s.mode }

func (s *Sampler) apply(e Event) {
	next, clear := Next(s.mode, e, s.now())
	if clear {
		s.Clear()
	}
	s.mode = next
}

// Trigger signals a click: a timed capture starts once its deadline has
// passed, and the auto modes start a fresh capture.
func (s *Sampler) Trigger() { s.apply(Event{Kind: EventTrigger}) }

// HoldOrAutoHold freezes the capture, staying in the auto cycle if in it
func (s *Sampler) HoldOrAutoHold() { s.apply(Event{Kind: EventFreeze}) }

func (s *Sampler) Hold() { s.apply(Event{Kind: EventHold}) }
func (s *Sampler) Live() { s.apply(Event{Kind: EventLive}) }
func (s *Sampler) Auto() { s.apply(Event{Kind: EventAuto}) }

// AcquireAfter stops recording until a trigger arrives at or after t
func (s *Sampler) AcquireAfter(t time.Time) {
	s.apply(Event{Kind: EventAcquireAfter, Deadline: t})
}

func (s *Sampler) IsInHold() bool     { return s.mode.Kind == Hold }
func (s *Sampler) IsInAutoHold() bool { return s.mode.Kind == AutoHold }

func (s *Sampler) IsInAuto() bool {
	return s.mode.Kind == AutoCapture || s.mode.Kind == AutoHold
}

// IsWaiting reports whether the sampler is waiting for a trigger
func (s *Sampler) IsWaiting() bool {
	return s.mode.Kind == AutoHold || s.mode.Kind == CaptureAfterTrigger
}
