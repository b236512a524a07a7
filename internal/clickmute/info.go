// ABOUTME: Status shared between the audio goroutine and control surfaces
// ABOUTME: Atomic toggles and counters plus the diagnostic samplers
package clickmute

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/Resonate-Protocol/clickmute-go/pkg/sampler"
)

const (
	// LiveSamplerSize is the length of the undelayed input view
	LiveSamplerSize = 10240
	// ClickSamplerSize is the length of the click-aligned capture
	ClickSamplerSize = 102400
)

// Toggles is a consistent snapshot of the routing switches
type Toggles struct {
	MuteEnabled     bool
	InvertMute      bool
	BackgroundNoise bool
}

// Info is the status surface. Toggles and counters are lock-free; the two
// samplers share mu, which the audio goroutine takes once per buffer.
type Info struct {
	muteEnabled     atomic.Bool
	invertMute      atomic.Bool
	backgroundNoise atomic.Bool

	numClicks  atomic.Uint64
	violations atomic.Uint64
	clock      atomic.Uint64
	delays     atomic.Pointer[config.Delays]

	// written by the audio goroutine instead of logging
	slowPolls      atomic.Uint64
	lastSlowPoll   atomic.Int64
	configUpdates  atomic.Uint64
	ignoredConfigs atomic.Uint64

	mu    sync.Mutex
	live  *sampler.Sampler
	click *sampler.Sampler
}

// NewInfo creates the status with muting enabled and the click sampler
// waiting for the first click
func NewInfo() *Info {
	info := &Info{
		live:  sampler.New(LiveSamplerSize, true),
		click: sampler.New(ClickSamplerSize, false),
	}
	info.click.AcquireAfter(time.Now())
	info.muteEnabled.Store(true)
	return info
}

func (i *Info) MuteEnabled() bool     { return i.muteEnabled.Load() }
func (i *Info) InvertMute() bool      { return i.invertMute.Load() }
func (i *Info) BackgroundNoise() bool { return i.backgroundNoise.Load() }

func (i *Info) SetMuteEnabled(v bool) { i.muteEnabled.Store(v) }

// SetInvertMute switches to muting everything except the clicks.
// Enabling it turns background noise off.
func (i *Info) SetInvertMute(v bool) {
	i.invertMute.Store(v)
	if v {
		i.backgroundNoise.Store(false)
	}
}

func (i *Info) SetBackgroundNoise(v bool) { i.backgroundNoise.Store(v) }

// Toggles snapshots the switches
func (i *Info) Toggles() Toggles {
	return Toggles{
		MuteEnabled:     i.muteEnabled.Load(),
		InvertMute:      i.invertMute.Load(),
		BackgroundNoise: i.backgroundNoise.Load(),
	}
}

// NumClicks counts click reports that scheduled or extended a mute window
func (i *Info) NumClicks() uint64 { return i.numClicks.Load() }

// InvariantViolations counts mute windows that had to be clamped
func (i *Info) InvariantViolations() uint64 { return i.violations.Load() }

// Clock is the sample clock as of the last processed buffer
func (i *Info) Clock() uint64 { return i.clock.Load() }

// SlowPolls counts device polls that took more than twice the running
// average, with the duration of the most recent one
func (i *Info) SlowPolls() (uint64, time.Duration) {
	return i.slowPolls.Load(), time.Duration(i.lastSlowPoll.Load())
}

// ConfigUpdates counts config messages applied by the processor
func (i *Info) ConfigUpdates() uint64 { return i.configUpdates.Load() }

// IgnoredConfigs counts config messages the processor rejected
func (i *Info) IgnoredConfigs() uint64 { return i.ignoredConfigs.Load() }

// Delays returns the configuration currently applied by the processor
func (i *Info) Delays() (config.Delays, bool) {
	d := i.delays.Load()
	if d == nil {
		return config.Delays{}, false
	}
	return *d, true
}

func (i *Info) setDelays(d config.Delays) {
	i.delays.Store(&d)
}

// WithSamplers runs fn with exclusive access to the live (undelayed) and
// click-aligned samplers. fn must not block.
func (i *Info) WithSamplers(fn func(live, click *sampler.Sampler)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	fn(i.live, i.click)
}
