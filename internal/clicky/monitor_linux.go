//go:build linux

// ABOUTME: Linux Monitor constructor backed by evdev and epoll
// ABOUTME: Defaults to /dev/input/event* when no source is given
package clicky

// NewMonitor builds a Monitor. Devices are enumerated once Start runs.
func NewMonitor(opts Options) (*Monitor, error) {
	source := opts.Source
	if source == nil {
		source = NewEvdevSource()
	}
	registry := NewRegistry(source, opts.RescanInterval)
	poller, err := NewPoller(registry)
	if err != nil {
		return nil, err
	}
	return &Monitor{registry: registry, harvester: poller}, nil
}
