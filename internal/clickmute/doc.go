// ABOUTME: Click mute scheduler and its control/status surfaces
// ABOUTME: Mutes delayed audio around keyboard clicks with sample accuracy
// Package clickmute delays a stereo input just long enough that a keyboard
// click reported by the input devices can be faded out of the signal before
// it is heard. During the mute window the signal is either silenced or
// crossfaded to background noise captured earlier from the same input.
//
// ClickMute is the real-time processor. Info exposes its status to the UI
// through atomics and one short-held mutex, and Control carries config
// updates into the audio goroutine. Engine wires it to an audio device and
// the click monitor.
package clickmute
