// ABOUTME: Malgo duplex backend using miniaudio
// ABOUTME: Prefers JACK, falls back to the platform default backend
package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

const bytesPerSample = 4

// Malgo is a full-duplex float32 stereo device
type Malgo struct {
	mu       sync.Mutex
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	bufs     *buffers
	proc     Processor
}

// NewMalgo creates an unopened Malgo device
func NewMalgo() *Malgo {
	return &Malgo{}
}

func initContext() (*malgo.AllocatedContext, error) {
	onLog := func(msg string) {
		logrus.WithField("backend", "malgo").Debug(msg)
	}

	ctx, err := malgo.InitContext([]malgo.Backend{malgo.BackendJack}, malgo.ContextConfig{}, onLog)
	if err == nil {
		logrus.Info("Using JACK audio backend")
		return ctx, nil
	}
	logrus.WithError(err).Debug("JACK backend unavailable, using platform default")

	ctx, err = malgo.InitContext(nil, malgo.ContextConfig{}, onLog)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return ctx, nil
}

// Open creates the duplex device. The callback is silent until Start.
func (m *Malgo) Open(cfg Config) (audio.Format, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return m.format, nil
	}

	if m.malgoCtx == nil {
		ctx, err := initContext()
		if err != nil {
			return audio.Format{}, err
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = Channels
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = Channels
	deviceConfig.SampleRate = uint32(max(cfg.SampleRate, 0))
	deviceConfig.PeriodSizeInFrames = uint32(max(cfg.PeriodFrames, 0))
	deviceConfig.Alsa.NoMMap = 1

	m.bufs = newBuffers(max(cfg.PeriodFrames, 1024))

	callbacks := malgo.DeviceCallbacks{
		Data: m.dataCallback,
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return audio.Format{}, fmt.Errorf("failed to initialize duplex device: %w", err)
	}

	m.device = device
	m.format = audio.Format{SampleRate: int(device.SampleRate()), Channels: Channels}

	logrus.WithFields(logrus.Fields{
		"function":    "Malgo.Open",
		"sample_rate": m.format.SampleRate,
		"channels":    Channels,
	}).Info("Audio device opened")

	return m.format, nil
}

// Start installs the processor and starts the stream
func (m *Malgo) Start(p Processor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return ErrNotOpen
	}
	m.proc = p
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// dataCallback is called by malgo on its audio thread
func (m *Malgo) dataCallback(pOutput, pInput []byte, frameCount uint32) {
	frames := int(frameCount)
	b := m.bufs
	b.resize(frames)

	readStereoF32(pInput, b.inA, b.inB)
	if m.proc == nil {
		clear(b.outA)
		clear(b.outB)
	} else {
		m.proc.Process(b.inA, b.inB, b.outA, b.outB)
	}
	writeStereoF32(pOutput, b.outA, b.outB)
}

// readStereoF32 splits little-endian interleaved float32 bytes into a and b.
// Missing input reads as silence.
func readStereoF32(src []byte, a, b []float32) {
	for i := range a {
		off := i * Channels * bytesPerSample
		if off+Channels*bytesPerSample > len(src) {
			a[i], b[i] = 0, 0
			continue
		}
		a[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[off:]))
		b[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[off+bytesPerSample:]))
	}
}

// writeStereoF32 interleaves a and b as little-endian float32 bytes
func writeStereoF32(dst []byte, a, b []float32) {
	for i := range a {
		off := i * Channels * bytesPerSample
		if off+Channels*bytesPerSample > len(dst) {
			return
		}
		binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(a[i]))
		binary.LittleEndian.PutUint32(dst[off+bytesPerSample:], math.Float32bits(b[i]))
	}
}

// Close stops the callback before releasing the device and context
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			logrus.WithError(err).Warn("Device stop error")
		}
		m.device.Uninit()
		m.device = nil
	}

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			logrus.WithError(err).Warn("Malgo context uninit error")
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}
