// ABOUTME: Speaker monitor of the processed stream using oto
// ABOUTME: The audio callback feeds a ring buffer that oto drains as int16 PCM
package device

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// monitorLatencyMs is the ring buffer capacity in milliseconds
const monitorLatencyMs = 500

// OtoMonitor plays whatever it is fed on the default output through oto.
// It implements Sink.
type OtoMonitor struct {
	mu      sync.Mutex
	otoCtx  *oto.Context
	player  *oto.Player
	ring    *RingBuffer
	scratch []float32
	ready   bool
}

// NewOtoMonitor creates an unopened monitor
func NewOtoMonitor() *OtoMonitor {
	return &OtoMonitor{}
}

// Open creates the oto context. oto allows only one context per process.
func (o *OtoMonitor) Open(format audio.Format) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		return nil
	}

	o.ring = NewRingBuffer(format.SampleRate * Channels * monitorLatencyMs / 1000)

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.player = ctx.NewPlayer(o)
	o.player.Play()
	o.ready = true

	logrus.WithField("sample_rate", format.SampleRate).Info("Monitor output started")
	return nil
}

// Feed queues processed output. Samples that do not fit are dropped.
func (o *OtoMonitor) Feed(outA, outB []float32) {
	if o.ring == nil {
		return
	}
	o.ring.WriteStereo(outA, outB)
}

// Read implements io.Reader for the oto player
func (o *OtoMonitor) Read(p []byte) (int, error) {
	n := len(p) / 2
	if cap(o.scratch) < n {
		o.scratch = make([]float32, n)
	}
	samples := o.scratch[:n]
	o.ring.Read(samples)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.FloatToInt16(s)))
	}
	return n * 2, nil
}

// Dropped returns how many samples the monitor could not keep up with
func (o *OtoMonitor) Dropped() uint64 {
	if o.ring == nil {
		return 0
	}
	return o.ring.Dropped()
}

// Close stops playback
func (o *OtoMonitor) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
	return nil
}
