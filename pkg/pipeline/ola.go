package pipeline

import (
	"context"

	"github.com/soundsieve/soundsieve/pkg/fault"
)

// olaEps floors the weight divisor during normalization.
const olaEps = 1e-8

// window builds the overlap-add weight curve for one clip: a linear
// fade-in over the first clip·overlap samples, flat 1 in the middle,
// and a mirrored fade-out at the tail. Every weight is positive, so a
// sample covered by a single clip divides back to its raw value. A
// zero overlap yields a flat curve.
func window(clip int, overlap float64) []float32 {
	w := make([]float32, clip)
	fade := int(float64(clip) * overlap)
	if fade <= 0 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	for i := range w {
		switch {
		case i < fade:
			w[i] = float32(i+1) / float32(fade)
		case i >= clip-fade:
			w[i] = float32(clip-i) / float32(fade)
		default:
			w[i] = 1
		}
	}
	return w
}

// overlapAdd stitches separated clips back into one waveform. Clip i
// covers [starts[i], starts[i]+clip); outputs are summed under the
// weight curve in start order and normalized by the accumulated
// weight. The result is trimmed, or right-zero-padded, to frames
// samples.
func overlapAdd(ctx context.Context, clips chunkStore, starts []int, clip int, overlap float64, frames int) ([]float32, error) {
	if len(starts) == 0 {
		return make([]float32, frames), nil
	}

	length := starts[len(starts)-1] + clip
	out := make([]float32, length)
	wsum := make([]float32, length)
	w := window(clip, overlap)

	for i, start := range starts {
		samples, err := clips.Get(ctx, i)
		if err != nil {
			return nil, err
		}
		if len(samples) != clip {
			return nil, fault.New(fault.BadOutput, "clip %d holds %d samples, want %d", i, len(samples), clip)
		}
		for j := 0; j < clip; j++ {
			out[start+j] += samples[j] * w[j]
			wsum[start+j] += w[j]
		}
	}

	for i := range out {
		d := wsum[i]
		switch {
		case d == 0:
			d = 1
		case d < olaEps:
			d = olaEps
		}
		out[i] /= d
	}

	if length >= frames {
		return out[:frames], nil
	}
	return append(out, make([]float32, frames-length)...), nil
}
