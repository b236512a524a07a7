// ABOUTME: Diagnostics tool for keyboard click detection
// ABOUTME: Prints click timestamps and monitored devices, or finds running instances
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/clickmute-go/internal/clicky"
	"github.com/Resonate-Protocol/clickmute-go/internal/discovery"
	"github.com/Resonate-Protocol/clickmute-go/internal/measure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var opts struct {
	interval time.Duration
	rescan   time.Duration
	debug    bool
	timeout  time.Duration
}

var rootCmd = &cobra.Command{
	Use:          "clicky-probe",
	Short:        "Print keyboard click timestamps as the audio thread would see them",
	SilenceUsage: true,
	RunE:         runProbe,
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find click mute diagnostics servers on the local network",
	RunE:  runFind,
}

func init() {
	rootCmd.Flags().DurationVar(&opts.interval, "interval", 10*time.Millisecond, "Poll interval (one audio period)")
	rootCmd.Flags().DurationVar(&opts.rescan, "rescan", clicky.DefaultRescanInterval, "Device re-enumeration interval")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	findCmd.Flags().DurationVar(&opts.timeout, "timeout", 3*time.Second, "How long to wait for answers")
	rootCmd.AddCommand(findCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000000"})
	if opts.debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func runProbe(cmd *cobra.Command, args []string) error {
	setupLogging()

	mon, err := clicky.NewMonitor(clicky.Options{RescanInterval: opts.rescan})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon.Start(ctx)
	defer func() { _ = mon.Stop() }()

	fmt.Println("=== Click Probe ===")
	fmt.Println("Press keys; timestamps are seconds relative to each poll (<= 0).")
	fmt.Println()

	var timing measure.Repeated
	var known []clicky.DeviceInfo

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("Average poll: %v over %d polls\n", timing.Average(), timing.Calls())
			return nil
		case <-ticker.C:
		}

		if devs := mon.Devices(); !slices.Equal(devs, known) {
			known = devs
			fmt.Printf("%d keyboard device(s):\n", len(devs))
			for _, d := range devs {
				fmt.Printf("  %-20s %s\n", d.Path, d.Name)
			}
		}

		var ts clicky.Timestamp
		var ok bool
		timing.Measure(func() { ts, ok = mon.WhenClicked() })
		if ok {
			fmt.Printf("click %s  (poll %v)\n", ts, timing.Prev())
		}
		if timing.Slow() {
			logrus.WithFields(logrus.Fields{
				"poll":    timing.Prev(),
				"average": timing.Average(),
			}).Warn("Slow device poll")
		}
	}
}

func runFind(cmd *cobra.Command, args []string) error {
	setupLogging()

	found, err := discovery.Lookup(opts.timeout)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Println("No click mute instances found")
		return nil
	}
	for _, inst := range found {
		fmt.Printf("%-40s %s\n", inst.Name, inst.StatusURL())
	}
	return nil
}
