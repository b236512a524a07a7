// ABOUTME: Tests for repeated call timing
// ABOUTME: Uses recorded durations so results are deterministic
package measure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepeatedEmpty(t *testing.T) {
	var r Repeated
	assert.Zero(t, r.Average())
	assert.Zero(t, r.Prev())
	assert.False(t, r.Slow())
}

func TestRepeatedAverage(t *testing.T) {
	var r Repeated
	r.Record(2 * time.Millisecond)
	r.Record(4 * time.Millisecond)

	assert.Equal(t, 3*time.Millisecond, r.Average())
	assert.Equal(t, 4*time.Millisecond, r.Prev())
	assert.EqualValues(t, 2, r.Calls())
}

func TestRepeatedSlow(t *testing.T) {
	tests := []struct {
		name  string
		times []time.Duration
		slow  bool
	}{
		{"single call", []time.Duration{time.Second}, false},
		{"steady", []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}, false},
		{"spike", []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond, 10 * time.Millisecond}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Repeated
			for _, d := range tt.times {
				r.Record(d)
			}
			assert.Equal(t, tt.slow, r.Slow())
		})
	}
}

func TestRepeatedMeasure(t *testing.T) {
	var r Repeated
	called := false
	r.Measure(func() { called = true })

	assert.True(t, called)
	assert.EqualValues(t, 1, r.Calls())
	assert.GreaterOrEqual(t, r.Prev(), time.Duration(0))
}
