// ABOUTME: Fixed-length circular delay line
// ABOUTME: Outputs silence until the buffer has filled once
package dsp

// Delay delays a single channel by a fixed number of samples.
type Delay struct {
	buffer []float32
	index  int
	filled bool
}

// NewDelay creates a delay line of length samples. length must be positive.
func NewDelay(length int) *Delay {
	if length <= 0 {
		panic("dsp: delay length must be positive")
	}
	return &Delay{
		buffer: make([]float32, length),
	}
}

// Len returns the delay length in samples
func (d *Delay) Len() int {
	return len(d.buffer)
}

// Process stores sample and returns the sample pushed Len() calls ago,
// or 0 while the line is still filling.
func (d *Delay) Process(sample float32) float32 {
	var out float32
	if d.filled {
		out = d.buffer[d.index]
	}
	d.buffer[d.index] = sample
	d.index++
	if d.index == len(d.buffer) {
		d.index = 0
		d.filled = true
	}
	return out
}
