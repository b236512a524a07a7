// ABOUTME: Audio type definitions
// ABOUTME: Stereo frames, stream format and sample conversions
package audio

const (
	// 16-bit PCM range
	MaxInt16 = 32767
	MinInt16 = -32768
)

// Stereo is one frame of the A/B channel pair
type Stereo struct {
	A float32
	B float32
}

// Silence is the zero frame
var Silence = Stereo{}

// Format describes the duplex stream format
type Format struct {
	SampleRate int
	Channels   int
}

// FloatToInt16 converts a float sample in [-1, 1] to 16-bit PCM, clipping
// anything outside that range.
func FloatToInt16(sample float32) int16 {
	scaled := sample * MaxInt16
	if scaled > MaxInt16 {
		return MaxInt16
	}
	if scaled < MinInt16 {
		return MinInt16
	}
	return int16(scaled)
}

// Int16ToFloat converts a 16-bit PCM sample to a float in [-1, 1)
func Int16ToFloat(sample int16) float32 {
	return float32(sample) / 32768
}

// Deinterleave splits interleaved stereo frames into a and b. It returns
// the number of frames written, bounded by the shortest slice.
func Deinterleave(interleaved, a, b []float32) int {
	n := len(interleaved) / 2
	if len(a) < n {
		n = len(a)
	}
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		a[i] = interleaved[2*i]
		b[i] = interleaved[2*i+1]
	}
	return n
}

// Interleave merges a and b into interleaved stereo frames. It returns the
// number of frames written, bounded by the shortest slice.
func Interleave(a, b, interleaved []float32) int {
	n := len(interleaved) / 2
	if len(a) < n {
		n = len(a)
	}
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		interleaved[2*i] = a[i]
		interleaved[2*i+1] = b[i]
	}
	return n
}
