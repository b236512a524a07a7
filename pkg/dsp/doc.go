// ABOUTME: Signal chain building blocks for the click mute pipeline
// ABOUTME: Fixed-length delay line and linear gain envelopes
// Package dsp provides the small per-sample processors the mute pipeline is
// built from.
//
// Every processor works on one float32 sample at a time and never allocates
// after construction, so they are safe to drive from a real-time audio
// callback:
//   - Delay: fixed-length FIFO that emits silence until it has filled once
//   - Fader: linear gain ramp between 0 and 1
//   - CrossFader: linear blend between two sources
//
// Example:
//
//	delay := dsp.NewDelay(1920)
//	fader := dsp.NewFader(1)
//	fader.FadeOut(480)
//	out := fader.Process(delay.Process(in))
package dsp
