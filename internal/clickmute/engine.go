// ABOUTME: Engine wires the click monitor, scheduler, audio device and dumps
// ABOUTME: Run blocks until the context ends, then shuts down in order
package clickmute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/clicky"
	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/Resonate-Protocol/clickmute-go/internal/wavdump"
	"github.com/Resonate-Protocol/clickmute-go/pkg/audio"
	"github.com/Resonate-Protocol/clickmute-go/pkg/audio/device"
	"github.com/sirupsen/logrus"
)

// ClickMonitor is a click source with a lifecycle
type ClickMonitor interface {
	clicky.ClickSource
	Start(ctx context.Context)
	Stop() error
	Devices() []clicky.DeviceInfo
	StaleEvents() uint64
}

// Speaker plays the processed stream
type Speaker interface {
	device.Sink
	Open(format audio.Format) error
	Close() error
}

// EngineConfig holds engine configuration
type EngineConfig struct {
	Config  config.Config
	Monitor ClickMonitor
	Device  device.Device
	// Stream hints; zero picks the device default
	SampleRate   int
	PeriodFrames int
	// Optional
	Speaker Speaker
	DumpDir string
	Info    *Info
	// ReportInterval paces logging of audio-path counters
	ReportInterval time.Duration
}

// Engine owns every long-lived component of a session
type Engine struct {
	config  EngineConfig
	info    *Info
	control *Control
	mute    *ClickMute
	dump    *wavdump.Dump
	format  audio.Format

	mu       sync.Mutex
	opened   bool
	running  bool
	stopOnce sync.Once
	stopErr  error

	stopReporter context.CancelFunc
	wg           sync.WaitGroup
}

// NewEngine creates an engine. Nothing is opened until Open or Run.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Monitor == nil {
		return nil, ErrNoClickSource
	}
	if cfg.Device == nil {
		return nil, errors.New("no audio device")
	}
	if cfg.Info == nil {
		cfg.Info = NewInfo()
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = ReportInterval
	}
	return &Engine{config: cfg, info: cfg.Info}, nil
}

// Open negotiates the audio stream and builds the scheduler for the
// actual sample rate. Control is available once Open returns.
func (e *Engine) Open() (audio.Format, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opened {
		return e.format, nil
	}

	format, err := e.config.Device.Open(device.Config{
		SampleRate:   e.config.SampleRate,
		PeriodFrames: e.config.PeriodFrames,
	})
	if err != nil {
		return audio.Format{}, fmt.Errorf("failed to open audio device: %w", err)
	}

	rate := float64(format.SampleRate)
	e.control = NewControl(rate)

	cfg := e.config.Config
	if err := cfg.Validate(rate); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "Engine.Open",
			"sample_rate": format.SampleRate,
		}).WithError(err).Warn("Configured delays are unusable, using defaults")
		cfg = config.Default()
	}

	opts := Options{
		SampleRate: rate,
		Config:     cfg,
		Clicks:     e.config.Monitor,
		Info:       e.info,
		Control:    e.control,
	}

	if e.config.DumpDir != "" {
		dump, err := wavdump.Open(e.config.DumpDir, format.SampleRate, wavdump.Options{})
		if err != nil {
			_ = e.config.Device.Close()
			return audio.Format{}, err
		}
		e.dump = dump
		opts.Dumper = dump
	}

	mute, err := New(opts)
	if err != nil {
		e.closeDump()
		_ = e.config.Device.Close()
		return audio.Format{}, err
	}

	e.mute = mute
	e.format = format
	e.opened = true

	logrus.WithFields(logrus.Fields{
		"function":    "Engine.Open",
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
	}).Info("Audio stream opened")

	return format, nil
}

// Run starts the monitor and the audio callback, blocks until ctx is done
// and then shuts everything down. The callback stops before the monitor.
func (e *Engine) Run(ctx context.Context) error {
	if _, err := e.Open(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine already running")
	}
	e.running = true
	e.mu.Unlock()

	e.config.Monitor.Start(ctx)

	rctx, cancel := context.WithCancel(context.Background())
	e.stopReporter = cancel
	rep := newReporter(e.info, e.config.Monitor.StaleEvents)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		rep.run(rctx, e.config.ReportInterval)
	}()

	var proc device.Processor = e.mute
	if e.config.Speaker != nil {
		if err := e.config.Speaker.Open(e.format); err != nil {
			logrus.WithError(err).Warn("Monitor output unavailable")
		} else {
			proc = device.NewTee(e.mute, e.config.Speaker)
		}
	}

	if err := e.config.Device.Start(proc); err != nil {
		_ = e.shutdown()
		return fmt.Errorf("failed to start audio: %w", err)
	}

	logrus.Info("Click mute running")
	<-ctx.Done()

	return e.shutdown()
}

// shutdown closes the device first so nothing calls the monitor or the
// dump afterwards
func (e *Engine) shutdown() error {
	e.stopOnce.Do(func() {
		var errs []error
		if err := e.config.Device.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio device: %w", err))
		}
		if err := e.config.Monitor.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop click monitor: %w", err))
		}
		if e.config.Speaker != nil {
			if err := e.config.Speaker.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close monitor output: %w", err))
			}
		}
		if err := e.closeDump(); err != nil {
			errs = append(errs, fmt.Errorf("flush dumps: %w", err))
		}
		if e.stopReporter != nil {
			e.stopReporter()
			e.wg.Wait()
		}
		e.stopErr = errors.Join(errs...)
		logrus.Info("Click mute stopped")
	})
	return e.stopErr
}

// Close releases an engine that was opened but never run. After Run it is
// a no-op.
func (e *Engine) Close() error {
	return e.shutdown()
}

func (e *Engine) closeDump() error {
	if e.dump == nil {
		return nil
	}
	return e.dump.Close()
}

// Info returns the status surface
func (e *Engine) Info() *Info { return e.info }

// Control returns the config channel, nil before Open
func (e *Engine) Control() *Control {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.control
}

// Format returns the negotiated stream format
func (e *Engine) Format() audio.Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format
}

// Devices lists the monitored input devices
func (e *Engine) Devices() []clicky.DeviceInfo {
	return e.config.Monitor.Devices()
}

// DumpDropped counts debug chunks lost because the writer lagged
func (e *Engine) DumpDropped() uint64 {
	if e.dump == nil {
		return 0
	}
	return e.dump.Dropped()
}
