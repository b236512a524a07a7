// ABOUTME: Linear gain envelopes for click-free muting
// ABOUTME: Fader scales one source, CrossFader blends two
package dsp

// envelope is the shared ramp state. Re-arming only changes the step, so a
// ramp that is retriggered mid-way continues from where it is.
type envelope struct {
	value float32
	step  float32
}

func (e *envelope) advance() float32 {
	v := e.value + e.step
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	e.value = v
	return v
}

// Fader ramps the gain of a single source between 0 and 1.
type Fader struct {
	env envelope
}

// NewFader creates a fader holding value (0..1) with no ramp in progress
func NewFader(value float32) *Fader {
	return &Fader{env: envelope{value: clamp01(value)}}
}

// FadeIn ramps the gain up to 1 over samples. samples must be > 0.
func (f *Fader) FadeIn(samples int) {
	f.env.step = 1 / float32(samples)
}

// FadeOut ramps the gain down to 0 over samples. samples must be > 0.
func (f *Fader) FadeOut(samples int) {
	f.env.step = -1 / float32(samples)
}

// Process advances the envelope by one sample and applies it
func (f *Fader) Process(sample float32) float32 {
	return sample * f.env.advance()
}

// Value returns the current gain
func (f *Fader) Value() float32 {
	return f.env.value
}

// CrossFader blends source A with source B. A value of 1 passes A only,
// 0 passes B only.
type CrossFader struct {
	env envelope
}

// NewCrossFader creates a crossfader holding value (0..1)
func NewCrossFader(value float32) *CrossFader {
	return &CrossFader{env: envelope{value: clamp01(value)}}
}

// FadeIn moves toward source A over samples. samples must be > 0.
func (c *CrossFader) FadeIn(samples int) {
	c.env.step = 1 / float32(samples)
}

// FadeOut moves toward source B over samples. samples must be > 0.
func (c *CrossFader) FadeOut(samples int) {
	c.env.step = -1 / float32(samples)
}

// Process advances the envelope by one sample and mixes a and b
func (c *CrossFader) Process(a, b float32) float32 {
	v := c.env.advance()
	return a*v + b*(1-v)
}

// Value returns the current weight of source A
func (c *CrossFader) Value() float32 {
	return c.env.value
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
