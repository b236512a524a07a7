// ABOUTME: Real-time mute-window scheduler
// ABOUTME: Delays, fades and crossfades the input around reported clicks
package clickmute

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/clicky"
	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/Resonate-Protocol/clickmute-go/internal/measure"
	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	"github.com/Resonate-Protocol/clickmute-go/pkg/background"
	"github.com/Resonate-Protocol/clickmute-go/pkg/dsp"
)

const (
	// DefaultNumClips is how many background clips are retained
	DefaultNumClips = 20
	// DefaultClipLength is the length of one background clip in frames
	DefaultClipLength = 1024
)

// ErrNoClickSource is returned when no click source is configured
var ErrNoClickSource = errors.New("click source is required")

// Dumper receives each processed buffer for debugging. Push must not block.
type Dumper interface {
	Push(raw, delayed, out, marker []float32)
}

// Options configure a ClickMute
type Options struct {
	SampleRate float64
	Config     config.Config
	Clicks     clicky.ClickSource
	Info       *Info
	Control    *Control

	// Optional
	Dumper     Dumper
	Rand       *rand.Rand
	NumClips   int
	ClipLength int
}

type opKind int

const (
	opTrigger opKind = iota
	opFreeze
)

// samplerOp is applied to the click sampler before sample index at
type samplerOp struct {
	at   int
	kind opKind
}

// ClickMute is the audio processor. Process must only be called from one
// goroutine.
type ClickMute struct {
	rate   float64
	delays config.Delays

	delaySeconds float64
	fadeSamples  int

	delayA, delayB *dsp.Delay
	faderA, faderB *dsp.Fader
	crossA, crossB *dsp.CrossFader

	bg     *background.Sampler
	looper *background.Looper

	clicks clicky.ClickSource
	timing measure.Repeated

	clock    uint64
	hasStart bool
	start    uint64
	end      uint64

	info    *Info
	control *Control
	dumper  Dumper

	marker  bool
	delayed []float32
	markers []float32
	ops     [4]samplerOp
	nops    int
}

// New creates the processor. Envelopes start silent and fade in over the
// configured fade length.
func New(opts Options) (*ClickMute, error) {
	if opts.Clicks == nil {
		return nil, ErrNoClickSource
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", opts.SampleRate)
	}
	if err := opts.Config.Validate(opts.SampleRate); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Info == nil {
		opts.Info = NewInfo()
	}
	if opts.Control == nil {
		opts.Control = NewControl(opts.SampleRate)
	}
	if opts.NumClips <= 0 {
		opts.NumClips = DefaultNumClips
	}
	if opts.ClipLength <= 0 {
		opts.ClipLength = DefaultClipLength
	}

	m := &ClickMute{
		rate:    opts.SampleRate,
		faderA:  dsp.NewFader(0),
		faderB:  dsp.NewFader(0),
		crossA:  dsp.NewCrossFader(0),
		crossB:  dsp.NewCrossFader(0),
		bg:      background.NewSampler(opts.NumClips, opts.ClipLength, opts.Rand),
		looper:  background.NewLooper(opts.ClipLength),
		clicks:  opts.Clicks,
		info:    opts.Info,
		control: opts.Control,
		dumper:  opts.Dumper,
	}
	m.applyDelays(opts.Config.Delays)

	m.faderA.FadeIn(m.fadeSamples)
	m.faderB.FadeIn(m.fadeSamples)
	m.crossA.FadeIn(m.fadeSamples)
	m.crossB.FadeIn(m.fadeSamples)

	return m, nil
}

// Info returns the status surface
func (m *ClickMute) Info() *Info { return m.info }

// Control returns the config channel
func (m *ClickMute) Control() *Control { return m.control }

// applyDelays rebuilds the delay lines. Envelope values are left alone so a
// ramp in progress continues.
func (m *ClickMute) applyDelays(d config.Delays) {
	m.delays = d
	m.delaySeconds = d.DelaySeconds()
	m.fadeSamples = d.FadeSamples(m.rate)

	n := d.DelaySamples(m.rate)
	m.delayA = dsp.NewDelay(n)
	m.delayB = dsp.NewDelay(n)

	m.info.setDelays(d)
}

func (m *ClickMute) processControl() {
	msg, ok := m.control.TryReceive()
	if !ok {
		return
	}
	if err := msg.Config.Validate(m.rate); err != nil {
		m.info.ignoredConfigs.Add(1)
		return
	}
	m.applyDelays(msg.Config.Delays)
	m.info.configUpdates.Add(1)
}

// samplesFrom converts seconds to the nearest non-negative sample count
func (m *ClickMute) samplesFrom(seconds float64) uint64 {
	return uint64(math.Round(math.Max(0, seconds*m.rate)))
}

func (m *ClickMute) pollClicks() {
	start := time.Now()
	ts, ok := m.clicks.WhenClicked()
	m.timing.Record(time.Since(start))

	if m.timing.Slow() {
		m.info.slowPolls.Add(1)
		m.info.lastSlowPoll.Store(int64(m.timing.Prev()))
	}

	if ok {
		m.schedule(ts)
	}
}

// schedule opens a mute window for a click, or extends the open one
func (m *ClickMute) schedule(ts clicky.Timestamp) {
	if !m.hasStart {
		m.start = m.clock + m.samplesFrom(m.delaySeconds+ts.T0+m.delays.MuteOffset)
		m.hasStart = true
	}

	m.end = m.clock + m.samplesFrom(m.delaySeconds+m.delays.MuteDuration+ts.T1)

	if m.hasStart && m.end < m.start {
		m.info.violations.Add(1)
		m.end = m.start
	}

	m.info.numClicks.Add(1)
}

func (m *ClickMute) pushOp(at int, kind opKind) {
	if m.nops < len(m.ops) {
		m.ops[m.nops] = samplerOp{at: at, kind: kind}
		m.nops++
	}
}

func (m *ClickMute) ensureScratch(n int) {
	if cap(m.delayed) < n {
		m.delayed = make([]float32, n)
		m.markers = make([]float32, n)
	}
	m.delayed = m.delayed[:n]
	m.markers = m.markers[:n]
}

func (m *ClickMute) startMute(t Toggles, i int) {
	switch {
	case t.InvertMute:
		m.faderA.FadeIn(m.fadeSamples)
		m.faderB.FadeIn(m.fadeSamples)
	case t.BackgroundNoise:
		m.crossA.FadeOut(m.fadeSamples)
		m.crossB.FadeOut(m.fadeSamples)
	default:
		m.faderA.FadeOut(m.fadeSamples)
		m.faderB.FadeOut(m.fadeSamples)
	}
	m.hasStart = false
	m.pushOp(i, opTrigger)
	m.marker = !m.marker
	m.bg.Pause()
}

func (m *ClickMute) endMute(t Toggles, i int) {
	switch {
	case t.InvertMute:
		m.faderA.FadeOut(m.fadeSamples)
		m.faderB.FadeOut(m.fadeSamples)
	case t.BackgroundNoise:
		m.crossA.FadeIn(m.fadeSamples)
		m.crossB.FadeIn(m.fadeSamples)
	default:
		m.faderA.FadeIn(m.fadeSamples)
		m.faderB.FadeIn(m.fadeSamples)
	}
	m.pushOp(i+1, opFreeze)
	m.bg.Resume()
}

// Process runs one buffer. All four slices are processed up to the
// shortest length.
func (m *ClickMute) Process(inA, inB, outA, outB []float32) {
	n := min(len(inA), len(inB), len(outA), len(outB))

	m.processControl()
	m.pollClicks()

	t := m.info.Toggles()
	m.ensureScratch(n)
	m.nops = 0

	for i := 0; i < n; i++ {
		if m.hasStart && m.clock == m.start {
			m.startMute(t, i)
		}
		if m.clock == m.end {
			m.endMute(t, i)
		}

		a := m.delayA.Process(inA[i])
		b := m.delayB.Process(inB[i])
		m.bg.Sample(audio.Stereo{A: a, B: b})
		m.delayed[i] = a

		noise := m.looper.Produce(m.bg)
		if t.MuteEnabled {
			if t.InvertMute || !t.BackgroundNoise {
				a = m.faderA.Process(a)
				b = m.faderB.Process(b)
			} else {
				a = m.crossA.Process(a, noise.A)
				b = m.crossB.Process(b, noise.B)
			}
		}

		outA[i] = a
		outB[i] = b
		if m.marker {
			m.markers[i] = 1
		} else {
			m.markers[i] = 0
		}

		m.clock++
	}

	m.replaySamplers(inA[:n])
	m.info.clock.Store(m.clock)

	if m.dumper != nil {
		m.dumper.Push(inA[:n], m.delayed, outA[:n], m.markers)
	}
}

// replaySamplers feeds the diagnostic samplers the buffer just processed,
// applying the click sampler transitions at the samples they happened on
func (m *ClickMute) replaySamplers(raw []float32) {
	m.info.mu.Lock()
	defer m.info.mu.Unlock()

	live, click := m.info.live, m.info.click
	pos := 0
	feed := func(to int) {
		for ; pos < to; pos++ {
			live.Sample(raw[pos])
			click.Sample(m.delayed[pos])
		}
	}

	for _, op := range m.ops[:m.nops] {
		feed(op.at)
		switch op.kind {
		case opTrigger:
			click.Trigger()
		case opFreeze:
			if !click.IsEmpty() {
				click.HoldOrAutoHold()
			}
		}
	}
	feed(len(raw))
}
