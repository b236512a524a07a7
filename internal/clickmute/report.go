// ABOUTME: Logs audio-path events from outside the audio goroutine
// ABOUTME: The callback only bumps counters; this loop turns changes into log lines
package clickmute

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ReportInterval is how often the counters are checked
const ReportInterval = time.Second

type counters struct {
	slowPolls      uint64
	violations     uint64
	configUpdates  uint64
	ignoredConfigs uint64
	staleEvents    uint64
}

// reporter logs counter changes since its previous check
type reporter struct {
	info  *Info
	stale func() uint64
	last  counters
}

func newReporter(info *Info, stale func() uint64) *reporter {
	r := &reporter{info: info, stale: stale}
	r.last = r.read()
	return r
}

func (r *reporter) read() counters {
	slow, _ := r.info.SlowPolls()
	c := counters{
		slowPolls:      slow,
		violations:     r.info.InvariantViolations(),
		configUpdates:  r.info.ConfigUpdates(),
		ignoredConfigs: r.info.IgnoredConfigs(),
	}
	if r.stale != nil {
		c.staleEvents = r.stale()
	}
	return c
}

func (r *reporter) check() {
	cur := r.read()
	prev := r.last
	r.last = cur

	if n := cur.slowPolls - prev.slowPolls; n > 0 {
		_, last := r.info.SlowPolls()
		logrus.WithFields(logrus.Fields{
			"function": "reporter.check",
			"count":    n,
			"last":     last,
		}).Warn("Polling input devices was slow")
	}
	if n := cur.violations - prev.violations; n > 0 {
		logrus.WithFields(logrus.Fields{
			"function": "reporter.check",
			"count":    n,
		}).Warn("Mute window ended before it started, clamped")
	}
	if n := cur.ignoredConfigs - prev.ignoredConfigs; n > 0 {
		logrus.WithField("count", n).Warn("Ignored invalid config update")
	}
	if cur.configUpdates != prev.configUpdates {
		d, _ := r.info.Delays()
		logrus.WithFields(logrus.Fields{
			"mute_offset":   d.MuteOffset,
			"mute_duration": d.MuteDuration,
			"fade":          d.Fade,
		}).Info("Applied config")
	}
	if n := cur.staleEvents - prev.staleEvents; n > 0 {
		logrus.WithField("count", n).Debug("Dropped stale key events")
	}
}

// run checks on every tick and once more when ctx ends
func (r *reporter) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.check()
			return
		case <-ticker.C:
			r.check()
		}
	}
}
