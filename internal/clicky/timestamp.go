// ABOUTME: Click timestamp type and per-poll aggregation
// ABOUTME: Drops stale events and keeps the oldest/newest age seen
package clicky

import (
	"fmt"
	"math"
	"time"
)

// StaleAfter is the age beyond which a key event is ignored
const StaleAfter = 100 * time.Millisecond

// Timestamp says a key changed state between T0 and T1 seconds from now.
// Both values are <= 0 and T0 <= T1.
type Timestamp struct {
	T0 float64
	T1 float64
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("[%.4fs, %.4fs]", ts.T0, ts.T1)
}

// collector aggregates event ages within one poll
type collector struct {
	ts    Timestamp
	ok    bool
	stale int
}

func (c *collector) reset() {
	*c = collector{}
}

// add records an event that happened age ago
func (c *collector) add(age time.Duration) {
	if age > StaleAfter {
		c.stale++
		return
	}
	delta := math.Min(math.Copysign(0, -1), -age.Seconds())
	if !c.ok {
		c.ts = Timestamp{T0: delta, T1: delta}
		c.ok = true
		return
	}
	c.ts.T0 = math.Min(c.ts.T0, delta)
	c.ts.T1 = math.Max(c.ts.T1, delta)
}

func (c *collector) result() (Timestamp, bool) {
	return c.ts, c.ok
}
