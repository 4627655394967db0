// Package audio is the umbrella for the audio-handling sub-packages:
//
//   - wave: float32 waveform buffers and channel operations
//   - wavio: WAV decoding and 32-bit-float WAV encoding
//   - resample: sample-rate conversion to the canonical 32 kHz
//
// Example usage:
//
//	import "github.com/soundsieve/soundsieve/pkg/audio/wavio"
//
//	// Load a recording as canonical-rate mono.
//	buf, err := wavio.LoadAudio("query.wav", true)
package audio
