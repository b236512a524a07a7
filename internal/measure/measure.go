// ABOUTME: Timing helpers for repeated calls on the audio path
// ABOUTME: Keeps a running average and the last duration without allocating
package measure

import "time"

// Measure times a single call of f
func Measure(f func()) time.Duration {
	start := time.Now()
	f()
	return time.Since(start)
}

// Repeated accumulates the timing of a call made over and over
type Repeated struct {
	calls int64
	total time.Duration
	prev  time.Duration
}

// Measure times f and records the result
func (r *Repeated) Measure(f func()) {
	d := Measure(f)
	r.Record(d)
}

// Record adds an externally measured duration
func (r *Repeated) Record(d time.Duration) {
	r.calls++
	r.total += d
	r.prev = d
}

// Average is zero until the first call
func (r *Repeated) Average() time.Duration {
	if r.calls == 0 {
		return 0
	}
	return r.total / time.Duration(r.calls)
}

// Prev returns the duration of the most recent call
func (r *Repeated) Prev() time.Duration {
	return r.prev
}

// Calls returns how many calls were recorded
func (r *Repeated) Calls() int64 {
	return r.calls
}

// Slow reports whether the most recent call took more than twice the average
func (r *Repeated) Slow() bool {
	return r.calls > 1 && r.prev > 2*r.Average()
}
