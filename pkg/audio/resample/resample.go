// Package resample converts waveforms between sample rates using a
// pure Go polyphase resampler (no CGO/FFI dependencies).
package resample

import (
	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/soundsieve/soundsieve/pkg/fault"
)

// tailPad is the number of zero frames appended to the input so the
// resampling filter flushes its group delay in a single Process call.
const tailPad = 4096

// Resample converts a single-channel waveform from srcRate to
// dstRate. Equal rates return the input unchanged without copying.
// The output holds floor(len(samples) * dstRate / srcRate) frames.
func Resample(samples []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fault.New(fault.ResampleError, "invalid rate conversion %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate || len(samples) == 0 {
		return samples, nil
	}

	config := &resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	rs, err := resampling.New(config)
	if err != nil {
		return nil, fault.Wrap(fault.ResampleError, "", err)
	}

	input := make([]float64, len(samples)+tailPad)
	for i, s := range samples {
		input[i] = float64(s)
	}

	output, err := rs.Process(input)
	if err != nil {
		return nil, fault.Wrap(fault.ResampleError, "", err)
	}

	want := int(float64(len(samples)) * float64(dstRate) / float64(srcRate))
	out := make([]float32, want)
	for i := 0; i < want && i < len(output); i++ {
		out[i] = float32(output[i])
	}
	return out, nil
}

// Ratio returns the frame count a conversion from srcRate to dstRate
// produces for n input frames.
func Ratio(n, srcRate, dstRate int) int {
	if srcRate <= 0 || dstRate <= 0 {
		return 0
	}
	return int(float64(n) * float64(dstRate) / float64(srcRate))
}
