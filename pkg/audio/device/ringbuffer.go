// ABOUTME: Mutex-guarded float32 ring buffer between audio threads
// ABOUTME: Overflowing writes drop samples instead of blocking
package device

import "sync"

// RingBuffer is a thread-safe circular buffer of interleaved samples
type RingBuffer struct {
	buffer   []float32
	readPos  int
	writePos int
	size     int
	count    int // Number of samples currently in buffer
	dropped  uint64
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with given capacity (in samples)
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]float32, capacity),
		size:   capacity,
	}
}

func (rb *RingBuffer) put(sample float32) bool {
	if rb.count == rb.size {
		rb.dropped++
		return false
	}
	rb.buffer[rb.writePos] = sample
	rb.writePos = (rb.writePos + 1) % rb.size
	rb.count++
	return true
}

// Write adds samples to the ring buffer and returns how many fit
func (rb *RingBuffer) Write(samples []float32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for _, s := range samples {
		if !rb.put(s) {
			rb.dropped += uint64(len(samples) - written - 1)
			break
		}
		written++
	}
	return written
}

// WriteStereo interleaves a and b into the buffer. Whole frames only.
func (rb *RingBuffer) WriteStereo(a, b []float32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(a), len(b))
	frames := min(n, (rb.size-rb.count)/2)
	for i := 0; i < frames; i++ {
		rb.put(a[i])
		rb.put(b[i])
	}
	rb.dropped += uint64(2 * (n - frames))
	return frames
}

// Read retrieves samples from the ring buffer, zero-filling on underrun
func (rb *RingBuffer) Read(samples []float32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(samples) && rb.count > 0; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}

	for i := read; i < len(samples); i++ {
		samples[i] = 0
	}

	return read
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free slots in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Dropped returns how many samples were discarded because the buffer was full
func (rb *RingBuffer) Dropped() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}
