//go:build !portaudio

// ABOUTME: PortAudio stub for builds without the portaudio tag
// ABOUTME: Open and Start report ErrPortAudioDisabled
package device

import (
	"errors"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
)

// ErrPortAudioDisabled is returned by every PortAudio method in this build
var ErrPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio device (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio device
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open always fails in this build
func (p *PortAudio) Open(cfg Config) (audio.Format, error) {
	return audio.Format{}, ErrPortAudioDisabled
}

// Start always fails in this build
func (p *PortAudio) Start(proc Processor) error {
	return ErrPortAudioDisabled
}

// Close has nothing to release
func (p *PortAudio) Close() error {
	return nil
}
