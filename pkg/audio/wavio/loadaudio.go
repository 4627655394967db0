package wavio

import (
	"github.com/soundsieve/soundsieve/pkg/audio/resample"
	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/fault"
)

// LoadAudio reads the WAV file at path and returns it at the
// canonical 32 kHz rate. When forceMono is set, multi-channel input
// is averaged down to a single channel before resampling; mono input
// stays single-channel either way.
func LoadAudio(path string, forceMono bool) (*wave.Buffer, error) {
	buf, info, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	if forceMono && buf.Channels > 1 {
		buf = wave.FromMono(buf.Mixdown())
	}
	if info.SampleRate == wave.CanonicalRate {
		return buf, nil
	}

	if buf.Channels == 1 {
		out, err := resample.Resample(buf.Data, info.SampleRate, wave.CanonicalRate)
		if err != nil {
			return nil, fault.WithPath(err, path)
		}
		return wave.FromMono(out), nil
	}

	// Resample each channel independently, then trim to the shortest
	// in case filter rounding leaves them a frame apart.
	chans := make([][]float32, buf.Channels)
	shortest := -1
	for c := range chans {
		out, err := resample.Resample(buf.Channel(c), info.SampleRate, wave.CanonicalRate)
		if err != nil {
			return nil, fault.WithPath(err, path)
		}
		chans[c] = out
		if shortest < 0 || len(out) < shortest {
			shortest = len(out)
		}
	}
	for c := range chans {
		chans[c] = chans[c][:shortest]
	}
	return wave.Interleave(chans...), nil
}
