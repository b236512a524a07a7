// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Stereo frames, Format and sample conversion functions
// Package audio provides the audio types shared by the click mute packages.
//
//   - Stereo: one A/B frame, the unit the background sampler and looper work in
//   - Format: sample rate and channel count of the duplex stream
//
// It also provides conversions used at the device boundary:
//   - float32 ↔ 16-bit PCM
//   - interleaved ↔ per-channel slices
//
// Example:
//
//	n := audio.Deinterleave(frames, inA, inB)
//	pcm := audio.FloatToInt16(inA[0])
package audio
