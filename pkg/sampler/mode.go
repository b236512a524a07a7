// ABOUTME: Sampler mode state machine
// ABOUTME: Modes, events and the pure transition function between them
package sampler

import (
	"fmt"
	"time"
)

// Kind identifies a sampler mode
type Kind int

const (
	Capture Kind = iota
	AutoCapture
	AutoHold
	CaptureAfterTrigger
	Hold
)

func (k Kind) String() string {
	switch k {
	case Capture:
		return "capture"
	case AutoCapture:
		return "auto-capture"
	case AutoHold:
		return "auto-hold"
	case CaptureAfterTrigger:
		return "capture-after-trigger"
	case Hold:
		return "hold"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mode is the sampler state. Deadline is only meaningful for
// CaptureAfterTrigger.
type Mode struct {
	Kind     Kind
	Deadline time.Time
}

// Records reports whether samples are stored in this mode
func (m Mode) Records() bool {
	return m.Kind == Capture || m.Kind == AutoCapture
}

// EventKind identifies something that happens to a sampler
type EventKind int

const (
	// EventTrigger is a click arriving
	EventTrigger EventKind = iota
	// EventFreeze ends a capture: auto modes go to AutoHold, others to Hold
	EventFreeze
	EventHold
	EventLive
	EventAuto
	// EventAcquireAfter waits for Deadline and then captures on the next trigger
	EventAcquireAfter
)

// Event is an input to Next
type Event struct {
	Kind     EventKind
	Deadline time.Time
}

// Next returns the mode that follows m when e happens at now. clear is true
// when the transition requires the recorded contents to be discarded first.
func Next(m Mode, e Event, now time.Time) (next Mode, clear bool) {
	switch e.Kind {
	case EventTrigger:
		switch m.Kind {
		case CaptureAfterTrigger:
			if !now.Before(m.Deadline) {
				return Mode{Kind: Capture}, false
			}
			return m, false
		case AutoHold, AutoCapture:
			return Mode{Kind: AutoCapture}, true
		default:
			return m, false
		}
	case EventFreeze:
		if m.Kind == AutoCapture || m.Kind == AutoHold {
			return Mode{Kind: AutoHold}, false
		}
		return Mode{Kind: Hold}, false
	case EventHold:
		return Mode{Kind: Hold}, false
	case EventLive:
		return Mode{Kind: Capture}, false
	case EventAuto:
		return Mode{Kind: AutoCapture}, false
	case EventAcquireAfter:
		return Mode{Kind: CaptureAfterTrigger, Deadline: e.Deadline}, false
	}
	return m, false
}
