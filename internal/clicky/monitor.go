// ABOUTME: Monitor ties the registry goroutine to the click harvester
// ABOUTME: Start/Stop lifecycle with two-phase shutdown
package clicky

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnsupported is returned where input devices cannot be monitored
var ErrUnsupported = errors.New("input device monitoring is not supported on this platform")

// ClickSource reports recent key activity
type ClickSource interface {
	WhenClicked() (Timestamp, bool)
}

type harvester interface {
	ClickSource
	StaleEvents() uint64
	Close() error
}

// Monitor owns the registry goroutine and the harvester
type Monitor struct {
	registry  *Registry
	harvester harvester

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Start launches the registry goroutine
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.registry.Run(ctx)
	}()
}

// Stop cancels the registry goroutine, waits for it and releases devices.
// The caller must have stopped calling WhenClicked.
func (m *Monitor) Stop() error {
	var err error
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()
		err = m.harvester.Close()
	})
	return err
}

// WhenClicked never blocks on device I/O
func (m *Monitor) WhenClicked() (Timestamp, bool) {
	return m.harvester.WhenClicked()
}

// StaleEvents counts key events dropped for being older than StaleAfter
func (m *Monitor) StaleEvents() uint64 {
	return m.harvester.StaleEvents()
}

// Devices lists the monitored devices
func (m *Monitor) Devices() []DeviceInfo {
	return m.registry.Devices()
}

// Options configure a Monitor
type Options struct {
	RescanInterval time.Duration
	Source         Source
}
