// ABOUTME: Processor and Device interfaces shared by the backends
// ABOUTME: Includes the per-channel scratch buffers and the Tee processor
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
)

// ErrNotOpen is returned when a device is started before it is opened
var ErrNotOpen = errors.New("device not opened")

// Channels is the channel count every backend opens for input and output
const Channels = 2

// Processor turns one period of stereo input into stereo output.
// It is called on the audio thread and must not block.
type Processor interface {
	Process(inA, inB, outA, outB []float32)
}

// ProcessorFunc adapts a function to Processor
type ProcessorFunc func(inA, inB, outA, outB []float32)

func (f ProcessorFunc) Process(inA, inB, outA, outB []float32) { f(inA, inB, outA, outB) }

// Config selects the stream parameters. Zero values pick device defaults.
type Config struct {
	SampleRate   int
	PeriodFrames int
}

// Device is a duplex audio backend
type Device interface {
	// Open negotiates the stream and returns the actual format
	Open(cfg Config) (audio.Format, error)
	// Start begins calling p on the audio thread
	Start(p Processor) error
	// Close stops the callback and releases the device
	Close() error
}

// New returns the backend registered under name
func New(name string) (Device, error) {
	switch name {
	case "", "malgo":
		return NewMalgo(), nil
	case "portaudio":
		return NewPortAudio(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", name)
	}
}

// buffers holds the deinterleaved channels of one period
type buffers struct {
	inA, inB, outA, outB []float32
}

func newBuffers(frames int) *buffers {
	b := &buffers{}
	b.resize(frames)
	return b
}

// resize only allocates when frames exceeds the current capacity
func (b *buffers) resize(frames int) {
	if cap(b.inA) < frames {
		b.inA = make([]float32, frames)
		b.inB = make([]float32, frames)
		b.outA = make([]float32, frames)
		b.outB = make([]float32, frames)
	}
	b.inA = b.inA[:frames]
	b.inB = b.inB[:frames]
	b.outA = b.outA[:frames]
	b.outB = b.outB[:frames]
}

// Sink observes processed output, for example to monitor it
type Sink interface {
	Feed(outA, outB []float32)
}

// Tee runs a processor and passes its output to sinks
type Tee struct {
	Processor Processor
	mu        sync.RWMutex
	sinks     []Sink
}

// NewTee creates a Tee around p
func NewTee(p Processor, sinks ...Sink) *Tee {
	return &Tee{Processor: p, sinks: sinks}
}

// Process runs the wrapped processor and feeds every sink
func (t *Tee) Process(inA, inB, outA, outB []float32) {
	t.Processor.Process(inA, inB, outA, outB)
	t.mu.RLock()
	for _, s := range t.sinks {
		s.Feed(outA, outB)
	}
	t.mu.RUnlock()
}

// Add attaches another sink
func (t *Tee) Add(s Sink) {
	t.mu.Lock()
	t.sinks = append(t.sinks, s)
	t.mu.Unlock()
}
