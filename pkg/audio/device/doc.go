// ABOUTME: Duplex audio device backends driving a Processor
// ABOUTME: malgo (default), PortAudio (build tag) and an oto speaker monitor
// Package device connects a Processor to real audio hardware.
//
// A backend captures two input channels, hands them to the Processor in
// per-channel float32 slices and plays the two output channels it fills.
// The callback runs on the backend's audio thread: buffers are
// preallocated when the device opens and reused on every period.
package device
