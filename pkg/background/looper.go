// ABOUTME: Plays background clips back frame by frame
// ABOUTME: Requests a new clip from the background sampler whenever one runs out
package background

import "github.com/Resonate-Protocol/clickmute-go/pkg/audio"

// ChooseLimit is how many of the quietest clips the looper picks from
const ChooseLimit = 10

// Looper produces a continuous noise bed from background clips.
type Looper struct {
	a, b     []float32
	length   int
	playhead int
	playing  bool
}

// NewLooper creates a looper for clips of clipLength frames
func NewLooper(clipLength int) *Looper {
	return &Looper{
		a: make([]float32, clipLength),
		b: make([]float32, clipLength),
	}
}

// Produce returns the next frame of the current clip. It returns silence
// when no clip is available and on the call after a clip ends.
func (l *Looper) Produce(bg *Sampler) audio.Stereo {
	if !l.playing {
		if clip, ok := bg.ChooseClip(ChooseLimit); ok {
			l.length = clip.A.CopyTo(l.a)
			clip.B.CopyTo(l.b[:l.length])
			l.playhead = 0
			l.playing = true
		}
	}
	if !l.playing {
		return audio.Silence
	}
	if l.playhead >= l.length {
		l.playing = false
		return audio.Silence
	}
	frame := audio.Stereo{A: l.a[l.playhead], B: l.b[l.playhead]}
	l.playhead++
	return frame
}

// Playing reports whether a clip is loaded
func (l *Looper) Playing() bool {
	return l.playing
}
