// ABOUTME: JSON status snapshot of the click mute processor
// ABOUTME: Built from the lock-free counters and one short sampler lock
package diag

import (
	"github.com/Resonate-Protocol/clickmute-go/internal/clickmute"
	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/Resonate-Protocol/clickmute-go/pkg/sampler"
)

// envelopeColumns is the resolution of the live waveform in a snapshot
const envelopeColumns = 128

// Snapshot is the wire form of the processor status
type Snapshot struct {
	ServerID            string         `json:"server_id"`
	MuteEnabled         bool           `json:"mute_enabled"`
	InvertMute          bool           `json:"invert_mute"`
	BackgroundNoise     bool           `json:"background_noise"`
	NumClicks           uint64         `json:"num_clicks"`
	InvariantViolations uint64         `json:"invariant_violations"`
	Clock               uint64         `json:"clock"`
	Delays              *config.Delays `json:"delays,omitempty"`
	LiveMode            string         `json:"live_mode"`
	ClickMode           string         `json:"click_mode"`
	ClickSamples        int            `json:"click_samples"`
	Envelope            Envelope       `json:"envelope"`
	Devices             []string       `json:"devices,omitempty"`
}

// Envelope is a min/max waveform of the live buffer
type Envelope struct {
	Min []float32 `json:"min"`
	Max []float32 `json:"max"`
}

// TakeSnapshot reads the status surface
func TakeSnapshot(info *clickmute.Info) Snapshot {
	t := info.Toggles()
	snap := Snapshot{
		MuteEnabled:         t.MuteEnabled,
		InvertMute:          t.InvertMute,
		BackgroundNoise:     t.BackgroundNoise,
		NumClicks:           info.NumClicks(),
		InvariantViolations: info.InvariantViolations(),
		Clock:               info.Clock(),
	}
	if d, ok := info.Delays(); ok {
		snap.Delays = &d
	}

	info.WithSamplers(func(live, click *sampler.Sampler) {
		snap.LiveMode = live.Mode().Kind.String()
		snap.ClickMode = click.Mode().Kind.String()
		snap.ClickSamples = click.Len()
		snap.Envelope.Min, snap.Envelope.Max = live.Envelope(envelopeColumns)
	})
	if snap.Envelope.Min == nil {
		snap.Envelope = Envelope{Min: []float32{}, Max: []float32{}}
	}
	return snap
}
