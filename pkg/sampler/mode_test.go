// ABOUTME: Tests for the sampler transition table
// ABOUTME: Exercises Next for every mode/event pair that changes state
package sampler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextTransitions(t *testing.T) {
	now := time.Unix(1000, 0)
	past := now.Add(-time.Millisecond)
	future := now.Add(200 * time.Millisecond)

	tests := []struct {
		name      string
		from      Mode
		event     Event
		want      Mode
		wantClear bool
	}{
		{"capture ignores trigger", Mode{Kind: Capture}, Event{Kind: EventTrigger}, Mode{Kind: Capture}, false},
		{"hold ignores trigger", Mode{Kind: Hold}, Event{Kind: EventTrigger}, Mode{Kind: Hold}, false},
		{"timed capture fires after deadline", Mode{Kind: CaptureAfterTrigger, Deadline: past}, Event{Kind: EventTrigger}, Mode{Kind: Capture}, false},
		{"timed capture fires at deadline", Mode{Kind: CaptureAfterTrigger, Deadline: now}, Event{Kind: EventTrigger}, Mode{Kind: Capture}, false},
		{"timed capture waits before deadline", Mode{Kind: CaptureAfterTrigger, Deadline: future}, Event{Kind: EventTrigger}, Mode{Kind: CaptureAfterTrigger, Deadline: future}, false},
		{"auto hold rearms", Mode{Kind: AutoHold}, Event{Kind: EventTrigger}, Mode{Kind: AutoCapture}, true},
		{"auto capture restarts", Mode{Kind: AutoCapture}, Event{Kind: EventTrigger}, Mode{Kind: AutoCapture}, true},
		{"freeze auto capture", Mode{Kind: AutoCapture}, Event{Kind: EventFreeze}, Mode{Kind: AutoHold}, false},
		{"freeze auto hold", Mode{Kind: AutoHold}, Event{Kind: EventFreeze}, Mode{Kind: AutoHold}, false},
		{"freeze capture", Mode{Kind: Capture}, Event{Kind: EventFreeze}, Mode{Kind: Hold}, false},
		{"freeze timed capture", Mode{Kind: CaptureAfterTrigger, Deadline: future}, Event{Kind: EventFreeze}, Mode{Kind: Hold}, false},
		{"hold", Mode{Kind: AutoCapture}, Event{Kind: EventHold}, Mode{Kind: Hold}, false},
		{"live", Mode{Kind: Hold}, Event{Kind: EventLive}, Mode{Kind: Capture}, false},
		{"auto", Mode{Kind: Capture}, Event{Kind: EventAuto}, Mode{Kind: AutoCapture}, false},
		{"acquire after", Mode{Kind: Hold}, Event{Kind: EventAcquireAfter, Deadline: future}, Mode{Kind: CaptureAfterTrigger, Deadline: future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, clear := Next(tt.from, tt.event, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantClear, clear)
		})
	}
}

func TestModeRecords(t *testing.T) {
	assert.True(t, Mode{Kind: Capture}.Records())
	assert.True(t, Mode{Kind: AutoCapture}.Records())
	assert.False(t, Mode{Kind: AutoHold}.Records())
	assert.False(t, Mode{Kind: CaptureAfterTrigger}.Records())
	assert.False(t, Mode{Kind: Hold}.Records())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "auto-hold", AutoHold.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
