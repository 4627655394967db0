// Package zeroshot wraps the two neural nets of the zero-shot
// separation chain: the feature extractor, which embeds a sound into
// a 2048-dimensional vector, and the separator, which isolates
// whatever that vector describes from a mixture clip.
//
// Both models work on fixed-size clips of 10 seconds at 32 kHz
// ([ClipSamples] mono float32 samples). Callers are responsible for
// slicing longer material into clips; the pipeline package does this
// with 50% overlap and stitches results back together.
package zeroshot

import (
	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/onnx"
)

// ClipSamples is the clip length both models are traced for:
// 10 seconds at the canonical 32 kHz rate.
const ClipSamples = 10 * wave.CanonicalRate

// LatentOutputName is the output head the extractor model must
// expose. A model without it is treated as not loaded.
const LatentOutputName = "latent_output"

// Model slots used by the catalog and configuration.
const (
	RoleExtractor onnx.ModelID = "extractor"
	RoleSeparator onnx.ModelID = "separator"
)

// Extractor computes sound features from audio clips.
//
// # Audio Requirements
//
//   - Sample rate: 32000 Hz
//   - Channels: 1 (mono)
//   - Any length; input is zero-padded or truncated to one clip
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Extractor interface {
	// Extract computes the sound feature of a mono waveform.
	// Returns a float32 vector of length Dimension().
	Extract(samples []float32) ([]float32, error)

	// Dimension returns the length of the vectors Extract produces.
	Dimension() int

	// Close releases any resources held by the model.
	Close() error
}

// Separator isolates one source from a mixture clip.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Separator interface {
	// Separate runs the separator on exactly one clip. chunk must
	// hold ClipSamples mono samples and cond one sound feature; the
	// result has the same length as chunk.
	Separate(chunk, cond []float32) ([]float32, error)

	// Close releases any resources held by the model.
	Close() error
}

func closeAll(tensors []*onnx.Tensor) {
	for _, t := range tensors {
		t.Close()
	}
}
