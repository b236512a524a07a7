// ABOUTME: Tests for the float32 ring buffer
// ABOUTME: Covers wraparound, underrun zero-fill and overflow accounting
package device

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferWriteRead(t *testing.T) {
	rb := NewRingBuffer(4)
	assert.Equal(t, 3, rb.Write([]float32{1, 2, 3}))
	assert.Equal(t, 3, rb.Available())
	assert.Equal(t, 1, rb.Free())

	out := make([]float32, 2)
	assert.Equal(t, 2, rb.Read(out))
	assert.Equal(t, []float32{1, 2}, out)

	// wraps around the end
	assert.Equal(t, 3, rb.Write([]float32{4, 5, 6}))
	out = make([]float32, 4)
	assert.Equal(t, 4, rb.Read(out))
	assert.Equal(t, []float32{3, 4, 5, 6}, out)
}

func TestRingBufferUnderrunZeroFills(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]float32{0.5})

	out := []float32{9, 9, 9}
	assert.Equal(t, 1, rb.Read(out))
	assert.Equal(t, []float32{0.5, 0, 0}, out)
}

func TestRingBufferOverflowDrops(t *testing.T) {
	rb := NewRingBuffer(3)
	assert.Equal(t, 3, rb.Write([]float32{1, 2, 3, 4, 5}))
	assert.EqualValues(t, 2, rb.Dropped())
}

func TestRingBufferWriteStereo(t *testing.T) {
	rb := NewRingBuffer(5)
	frames := rb.WriteStereo([]float32{1, 2, 3}, []float32{-1, -2, -3})
	assert.Equal(t, 2, frames, "only whole frames are written")
	assert.EqualValues(t, 2, rb.Dropped())

	out := make([]float32, 4)
	rb.Read(out)
	assert.Equal(t, []float32{1, -1, 2, -2}, out)
}

func TestRingBufferConcurrent(t *testing.T) {
	rb := NewRingBuffer(64)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			rb.Write([]float32{1, 2})
		}
	}()
	go func() {
		defer wg.Done()
		buf := make([]float32, 8)
		for i := 0; i < 1000; i++ {
			rb.Read(buf)
		}
	}()
	wg.Wait()

	assert.LessOrEqual(t, rb.Available(), 64)
}
