// ABOUTME: Background noise capture and playback
// ABOUTME: Slices the signal into clips, ranks them by loudness and loops the quiet ones
// Package background keeps a bed of recent background noise that can be
// played in place of the microphone while a click is muted.
//
// Sampler continuously cuts the incoming stereo signal into fixed-length
// clips, keeps the newest ones and can pick a random clip among the
// quietest. A capture that is interrupted by Pause is thrown away, so the
// clicks themselves never end up in the noise bed.
//
// Looper plays one chosen clip frame by frame and asks for another when it
// runs out.
//
// Clip storage is allocated up front; neither type allocates while running.
package background
