package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/audio/wavio"
	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/feature"
	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

// SeparateFile extracts the sound named by featureName from one
// mixture file and returns the path of the written result,
// <results-dir>/<mixture-basename>_<featureName>.wav.
//
// The mixture is normalized to the canonical rate with its channel
// count preserved. A stereo mixture is separated channel by channel,
// left first, and reassembled at the end; the result always has as
// many frames and channels as the input.
func (p *Pipeline) SeparateFile(ctx context.Context, sep zeroshot.Separator, mixturePath, featureName string, progress func(percent int)) (string, error) {
	if progress == nil {
		progress = func(int) {}
	}

	cond, condPath, err := p.features.Load(featureName)
	if err != nil {
		return "", err
	}
	p.log.InfoPrintf("separating %s with feature %s", mixturePath, condPath)

	mix, err := wavio.LoadAudio(mixturePath, false)
	if err != nil {
		return "", err
	}
	if mix.Frames() == 0 {
		return "", fault.Wrap(fault.DecodeError, mixturePath, errors.New("mixture holds no samples"))
	}

	var out *wave.Buffer
	switch mix.Channels {
	case 1:
		mono, err := p.separateMono(ctx, sep, mix.Data, cond, progress)
		if err != nil {
			return "", fault.WithPath(err, mixturePath)
		}
		out = wave.FromMono(mono)
	case 2:
		left, err := p.separateMono(ctx, sep, mix.Channel(0), cond, halfBand(progress, 0))
		if err != nil {
			return "", fault.WithPath(err, mixturePath)
		}
		right, err := p.separateMono(ctx, sep, mix.Channel(1), cond, halfBand(progress, 50))
		if err != nil {
			return "", fault.WithPath(err, mixturePath)
		}
		out = wave.Interleave(left, right)
	default:
		return "", fault.Wrap(fault.UnsupportedFormat, mixturePath,
			fmt.Errorf("separation handles 1 or 2 channels, got %d", mix.Channels))
	}

	dest := p.resultPath(mixturePath, featureName)
	if err := wavio.WriteFile(dest, out, wave.CanonicalRate, wavio.WithLogger(p.log)); err != nil {
		return "", err
	}
	return dest, nil
}

// separateMono runs the clip/separate/overlap-add loop over one
// channel. Clips are processed in start order; each output is parked
// in a chunk store until the overlap-add pass.
func (p *Pipeline) separateMono(ctx context.Context, sep zeroshot.Separator, samples []float32, cond feature.Vector, progress func(int)) ([]float32, error) {
	starts := chunkStarts(len(samples))
	clips := p.newChunkStore(len(starts))
	defer clips.Close()

	for i, start := range starts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := sep.Separate(chunkAt(samples, start), cond)
		if err != nil {
			return nil, err
		}
		if err := clips.Put(ctx, i, got); err != nil {
			return nil, err
		}
		progress(100 * (i + 1) / len(starts))
	}

	return overlapAdd(ctx, clips, starts, zeroshot.ClipSamples, OverlapRate, len(samples))
}

// chunkStarts returns the clip start offsets: every ChunkStep samples
// while the start still lies inside the waveform.
func chunkStarts(frames int) []int {
	var starts []int
	for s := 0; s < frames; s += ChunkStep {
		starts = append(starts, s)
	}
	return starts
}

// chunkAt copies one clip out of the waveform, zero-padded past the
// end.
func chunkAt(samples []float32, start int) []float32 {
	end := start + zeroshot.ClipSamples
	if end > len(samples) {
		end = len(samples)
	}
	return wave.PadTo(samples[start:end], zeroshot.ClipSamples)
}

// halfBand maps a 0-100 channel progress into the 50-point band
// starting at offset, so stereo channels report as 0-50 and 50-100.
func halfBand(progress func(int), offset int) func(int) {
	return func(p int) {
		progress(offset + p/2)
	}
}

func (p *Pipeline) resultPath(mixturePath, featureName string) string {
	base := strings.TrimSuffix(filepath.Base(mixturePath), filepath.Ext(mixturePath))
	return filepath.Join(p.results, base+"_"+featureName+".wav")
}
