// ABOUTME: Diagnostic capture ring buffer package
// ABOUTME: Records a channel's recent samples under a small mode state machine
// Package sampler implements the capture ring buffer used to visualise the
// signal and to freeze a snapshot around a click.
//
// A Sampler records into a fixed-size ring (oldest samples are overwritten
// once full) but only while its Mode allows it. Mode changes go through the
// pure Next function so the transition table can be tested on its own:
//
//	Capture              always records
//	AutoCapture          records; Freeze moves it to AutoHold
//	AutoHold             frozen; Trigger clears and re-arms AutoCapture
//	CaptureAfterTrigger  ignores samples; Trigger after the deadline -> Capture
//	Hold                 never records
package sampler
