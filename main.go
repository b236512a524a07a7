// ABOUTME: Entry point for the click mute processor
// ABOUTME: Parses CLI flags, wires the engine, TUI and diagnostics surface
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/clickmute"
	"github.com/Resonate-Protocol/clickmute-go/internal/clicky"
	"github.com/Resonate-Protocol/clickmute-go/internal/config"
	"github.com/Resonate-Protocol/clickmute-go/internal/diag"
	"github.com/Resonate-Protocol/clickmute-go/internal/discovery"
	"github.com/Resonate-Protocol/clickmute-go/internal/ui"
	"github.com/Resonate-Protocol/clickmute-go/internal/version"
	"github.com/Resonate-Protocol/clickmute-go/pkg/audio/device"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// statusInterval paces device list updates to the TUI
const statusInterval = time.Second

var opts struct {
	configPath string
	logFile    string
	debug      bool
	noTUI      bool
	backend    string
	sampleRate int
	period     int
	rescan     time.Duration
	monitor    bool
	diagAddr   string
	advertise  bool
	dumpDir    string
}

var rootCmd = &cobra.Command{
	Use:   "clickmute",
	Short: "Mute a live microphone around keyboard clicks",
	Long: `clickmute delays a live stereo input and fades it out around every
physical key press or release reported by the local keyboards, optionally
filling the gap with background noise captured from the same input.`,
	Version:      version.Version,
	SilenceUsage: true,
	RunE:         runClickMute,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", config.DefaultFilename, "Delay configuration file")
	f.StringVar(&opts.logFile, "log-file", "clickmute.log", "Log file path")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	f.BoolVar(&opts.noTUI, "no-tui", false, "Disable TUI, stream logs instead")
	f.StringVar(&opts.backend, "backend", "malgo", "Audio backend (malgo|portaudio)")
	f.IntVar(&opts.sampleRate, "sample-rate", 0, "Requested sample rate (0 = device default)")
	f.IntVar(&opts.period, "period", 256, "Requested period size in frames")
	f.DurationVar(&opts.rescan, "rescan", clicky.DefaultRescanInterval, "Input device re-enumeration interval")
	f.BoolVar(&opts.monitor, "monitor", false, "Play the processed stream on the default output")
	f.StringVar(&opts.diagAddr, "diag-addr", "", "Serve diagnostics on this address (e.g. :8931)")
	f.BoolVar(&opts.advertise, "advertise", false, "Advertise the diagnostics server over mDNS")
	f.StringVar(&opts.dumpDir, "dump-dir", "", "Write debug WAV tracks to this directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(useTUI bool) (io.Closer, error) {
	f, err := os.OpenFile(opts.logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	if useTUI {
		// TUI mode: log only to file
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if opts.debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return f, nil
}

func loadConfig() config.Config {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logrus.WithError(err).Warn("Using default delays")
		return config.Default()
	}
	return cfg
}

func deviceNames(e *clickmute.Engine) []string {
	devs := e.Devices()
	names := make([]string, 0, len(devs))
	for _, d := range devs {
		names = append(names, fmt.Sprintf("%s (%s)", d.Name, d.Path))
	}
	return names
}

func runClickMute(cmd *cobra.Command, args []string) error {
	useTUI := !opts.noTUI

	logCloser, err := setupLogging(useTUI)
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	logrus.WithFields(logrus.Fields{
		"product": version.Product,
		"version": version.Version,
	}).Info("Starting")

	cfg := loadConfig()

	mon, err := clicky.NewMonitor(clicky.Options{RescanInterval: opts.rescan})
	if err != nil {
		return fmt.Errorf("failed to create click monitor: %w", err)
	}

	dev, err := device.New(opts.backend)
	if err != nil {
		return err
	}

	engineCfg := clickmute.EngineConfig{
		Config:       cfg,
		Monitor:      mon,
		Device:       dev,
		SampleRate:   opts.sampleRate,
		PeriodFrames: opts.period,
		DumpDir:      opts.dumpDir,
	}
	if opts.monitor {
		engineCfg.Speaker = device.NewOtoMonitor()
	}

	engine, err := clickmute.NewEngine(engineCfg)
	if err != nil {
		return err
	}
	format, err := engine.Open()
	if err != nil {
		_ = engine.Close()
		return err
	}
	if d, ok := engine.Info().Delays(); ok {
		cfg.Delays = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.diagAddr != "" {
		srv := diag.New(diag.Config{
			Addr:    opts.diagAddr,
			Devices: func() []string { return deviceNames(engine) },
		}, engine.Info())
		if err := srv.Start(); err != nil {
			_ = engine.Close()
			return err
		}
		defer srv.Stop()

		if opts.advertise {
			if tcp, ok := srv.Addr().(*net.TCPAddr); ok {
				disc := discovery.NewManager(discovery.Config{
					ServiceName: serviceName(),
					Port:        tcp.Port,
					Version:     version.Version,
				})
				if err := disc.Advertise(); err != nil {
					logrus.WithError(err).Warn("mDNS advertisement failed")
				}
				defer disc.Stop()
			}
		}
	}

	if !useTUI {
		return engine.Run(ctx)
	}

	prog := ui.Run(ui.Options{
		Info:       engine.Info(),
		Control:    engine.Control(),
		Config:     cfg,
		ConfigPath: opts.configPath,
	})

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx)
		prog.Quit()
	}()

	go func() {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		for {
			prog.Send(ui.StatusMsg{
				Backend:     opts.backend,
				SampleRate:  format.SampleRate,
				Devices:     deviceNames(engine),
				DumpDropped: engine.DumpDropped(),
			})
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	if _, err := prog.Run(); err != nil {
		logrus.WithError(err).Error("TUI error")
	}
	stop()
	return <-done
}

func serviceName() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-clickmute", hostname)
}
