//go:build portaudio

// ABOUTME: PortAudio duplex backend
// ABOUTME: Non-interleaved float32 stream handed straight to the Processor
package device

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// PortAudio is a full-duplex stereo device
type PortAudio struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	format audio.Format
	proc   Processor
}

// NewPortAudio creates an unopened PortAudio device
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio and opens the default duplex stream
func (p *PortAudio) Open(cfg Config) (audio.Format, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return p.format, nil
	}

	if err := portaudio.Initialize(); err != nil {
		return audio.Format{}, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	rate := float64(cfg.SampleRate)
	if rate <= 0 {
		in, err := portaudio.DefaultInputDevice()
		if err != nil {
			portaudio.Terminate()
			return audio.Format{}, fmt.Errorf("no default input device: %w", err)
		}
		rate = in.DefaultSampleRate
	}

	stream, err := portaudio.OpenDefaultStream(Channels, Channels, rate, cfg.PeriodFrames, p.callback)
	if err != nil {
		portaudio.Terminate()
		return audio.Format{}, fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	p.format = audio.Format{SampleRate: int(stream.Info().SampleRate), Channels: Channels}

	logrus.WithFields(logrus.Fields{
		"function":    "PortAudio.Open",
		"sample_rate": p.format.SampleRate,
	}).Info("Audio device opened")

	return p.format, nil
}

func (p *PortAudio) callback(in, out [][]float32) {
	if p.proc == nil {
		clear(out[0])
		clear(out[1])
		return
	}
	p.proc.Process(in[0], in[1], out[0], out[1])
}

// Start installs the processor and starts the stream
func (p *PortAudio) Start(proc Processor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return ErrNotOpen
	}
	p.proc = proc
	return p.stream.Start()
}

// Close releases resources
func (p *PortAudio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return err
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	return portaudio.Terminate()
}
