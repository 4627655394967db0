// Package wave provides float32 waveform buffers for the separation
// pipeline. A Buffer holds interleaved frames at an arbitrary channel
// count; the canonical internal sample rate is 32 kHz.
package wave

import (
	"math"
	"time"
)

// CanonicalRate is the internal sample rate every waveform is
// normalized to before touching a model.
const CanonicalRate = 32000

// Buffer is an interleaved float32 waveform. For stereo data the
// layout is L0 R0 L1 R1 …; channel 0 is the left channel.
type Buffer struct {
	Data     []float32
	Channels int
}

// FromMono wraps a single-channel sample slice. The slice is not
// copied.
func FromMono(samples []float32) *Buffer {
	return &Buffer{Data: samples, Channels: 1}
}

// Interleave builds a Buffer from per-channel sample slices. All
// channels must have the same length.
func Interleave(channels ...[]float32) *Buffer {
	if len(channels) == 0 {
		return &Buffer{}
	}
	frames := len(channels[0])
	data := make([]float32, frames*len(channels))
	for c, ch := range channels {
		for i := 0; i < frames && i < len(ch); i++ {
			data[i*len(channels)+c] = ch[i]
		}
	}
	return &Buffer{Data: data, Channels: len(channels)}
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the playback time at the given sample rate.
func (b *Buffer) Duration(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(rate)
}

// Channel extracts channel c as a new sample slice.
func (b *Buffer) Channel(c int) []float32 {
	frames := b.Frames()
	out := make([]float32, frames)
	if c < 0 || c >= b.Channels {
		return out
	}
	for i := 0; i < frames; i++ {
		out[i] = b.Data[i*b.Channels+c]
	}
	return out
}

// Mixdown averages all channels into a new mono sample slice. A mono
// buffer yields a copy of its data.
func (b *Buffer) Mixdown() []float32 {
	frames := b.Frames()
	out := make([]float32, frames)
	if b.Channels == 1 {
		copy(out, b.Data)
		return out
	}
	for i := 0; i < frames; i++ {
		sum := float32(0)
		for c := 0; c < b.Channels; c++ {
			sum += b.Data[i*b.Channels+c]
		}
		out[i] = sum / float32(b.Channels)
	}
	return out
}

// IsFinite reports whether every sample is a finite number.
func (b *Buffer) IsFinite() bool {
	return IsFinite(b.Data)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	data := make([]float32, len(b.Data))
	copy(data, b.Data)
	return &Buffer{Data: data, Channels: b.Channels}
}

// IsFinite reports whether every sample in the slice is a finite
// number (no NaN, no ±Inf).
func IsFinite(samples []float32) bool {
	for _, v := range samples {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// PadTo returns samples right-padded with zeros to length n. When the
// input is already n or longer, the leading n samples are returned as
// a copy.
func PadTo(samples []float32, n int) []float32 {
	out := make([]float32, n)
	copy(out, samples)
	return out
}
