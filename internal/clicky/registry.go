// ABOUTME: Input device registry with periodic re-enumeration
// ABOUTME: Diffs device sets and journals added/removed handles for the harvester
package clicky

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRescanInterval is how often devices are re-enumerated
const DefaultRescanInterval = 20 * time.Second

// Handle identifies an open device. On Linux it is the file descriptor.
type Handle int

// DeviceInfo describes an input device that reports key events
type DeviceInfo struct {
	// Key identifies the physical device across rescans
	Key  string
	Path string
	Name string
}

// Device is a monitored, open device
type Device struct {
	Info   DeviceInfo
	Handle Handle
}

// Source enumerates and opens input devices
type Source interface {
	// Enumerate lists the devices that support key events
	Enumerate() ([]DeviceInfo, error)
	// Open opens a device for non-blocking reads
	Open(info DeviceInfo) (Handle, error)
}

// Registry tracks the monitored devices. Only its own goroutine changes the
// device set; the journal is handed to the harvester under mu.
type Registry struct {
	source   Source
	interval time.Duration

	mu      sync.Mutex
	devices map[string]Device
	added   []Handle
	removed []Handle
	dead    []Handle
}

// NewRegistry creates a registry. A non-positive interval selects
// DefaultRescanInterval.
func NewRegistry(source Source, interval time.Duration) *Registry {
	if interval <= 0 {
		interval = DefaultRescanInterval
	}
	return &Registry{
		source:   source,
		interval: interval,
		devices:  make(map[string]Device),
	}
}

// Run rescans immediately and then on every interval until ctx is done
func (r *Registry) Run(ctx context.Context) {
	if err := r.Rescan(); err != nil {
		logrus.WithError(err).Warn("Initial input device scan failed")
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Rescan(); err != nil {
				logrus.WithError(err).Warn("Input device rescan failed")
			}
		}
	}
}

// Rescan enumerates devices once and journals the differences. Devices
// present before and after keep their open handle unless the harvester
// reported it dead, in which case the device is reopened.
func (r *Registry) Rescan() error {
	infos, err := r.source.Enumerate()
	if err != nil {
		return fmt.Errorf("failed to enumerate input devices: %w", err)
	}

	r.mu.Lock()
	dead := make(map[Handle]bool, len(r.dead))
	for _, h := range r.dead {
		dead[h] = true
	}
	r.dead = r.dead[:0]
	r.mu.Unlock()

	next := make(map[string]Device, len(infos))
	var added []Handle

	for _, info := range infos {
		if _, dup := next[info.Key]; dup {
			continue
		}
		if dev, ok := r.devices[info.Key]; ok && !dead[dev.Handle] {
			next[info.Key] = dev
			continue
		}
		h, err := r.source.Open(info)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Registry.Rescan",
				"path":     info.Path,
				"name":     info.Name,
			}).WithError(err).Debug("Skipping input device")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"path": info.Path,
			"name": info.Name,
		}).Info("Using input device")
		next[info.Key] = Device{Info: info, Handle: h}
		added = append(added, h)
	}

	var removed []Handle
	for key, dev := range r.devices {
		if cur, ok := next[key]; !ok || cur.Handle != dev.Handle {
			fields := logrus.Fields{
				"path": dev.Info.Path,
				"name": dev.Info.Name,
			}
			if dead[dev.Handle] {
				logrus.WithFields(fields).Info("Input device lost")
			} else {
				logrus.WithFields(fields).Info("Input device removed")
			}
			removed = append(removed, dev.Handle)
		}
	}

	r.mu.Lock()
	r.devices = next
	r.added = append(r.added, added...)
	r.removed = append(r.removed, removed...)
	r.mu.Unlock()

	return nil
}

// Apply hands the pending journal to fn and clears it. fn runs with the
// registry lock held and must not block; added entries are applied before
// removed ones.
func (r *Registry) Apply(fn func(added, removed []Handle)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.added) == 0 && len(r.removed) == 0 {
		return
	}
	fn(r.added, r.removed)
	r.added = r.added[:0]
	r.removed = r.removed[:0]
}

// MarkDead reports a handle that hung up or failed a read. The next Rescan
// journals it as removed and reopens the device if it is still enumerated.
// The handle stays open until the removal is applied.
func (r *Registry) MarkDead(h Handle) {
	r.mu.Lock()
	r.dead = append(r.dead, h)
	r.mu.Unlock()
}

// closeAll hands every held handle to closeFn and forgets the devices
func (r *Registry) closeAll(closeFn func(Handle)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dev := range r.devices {
		closeFn(dev.Handle)
	}
	r.devices = make(map[string]Device)
	r.dead = r.dead[:0]
}

// Devices returns the monitored devices sorted by path
func (r *Registry) Devices() []DeviceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]DeviceInfo, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
