// ABOUTME: Keyboard click detection from Linux input devices
// ABOUTME: Hot-plug aware device registry plus a non-blocking event harvester
// Package clicky turns raw key events from input devices into click
// timestamps for the mute scheduler.
//
// Two parts cooperate:
//   - Registry runs on its own goroutine, re-enumerates devices on an
//     interval and journals which handles appeared or disappeared.
//   - The harvester is called from the audio side. It applies the journal to
//     an epoll set, polls with a zero timeout and aggregates the age of every
//     key press/release seen into one Timestamp.
//
// Devices cross between the two as plain integer handles.
package clicky
