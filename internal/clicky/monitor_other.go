//go:build !linux

// ABOUTME: Stub Monitor constructor for platforms without evdev
// ABOUTME: Always reports ErrUnsupported
package clicky

// NewMonitor is unsupported off Linux
func NewMonitor(opts Options) (*Monitor, error) {
	return nil, ErrUnsupported
}
