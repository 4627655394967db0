// Package pipeline implements the two processing flows of the
// separation toolkit.
//
// The feature flow turns a set of query recordings into one averaged
// sound feature. The separation flow cuts a mixture into overlapping
// ten-second clips, runs each clip through the separator conditioned
// on a sound feature, and stitches the outputs back together with a
// window-normalized overlap-add. Both flows report progress through a
// callback and classify failures with pkg/fault kinds.
package pipeline

import (
	"github.com/soundsieve/soundsieve/pkg/feature"
	"github.com/soundsieve/soundsieve/pkg/storage"
	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

const (
	// DefaultFeaturesDir holds sound features written by feature jobs.
	DefaultFeaturesDir = "output_features"

	// DefaultResultsDir holds separated waveforms.
	DefaultResultsDir = "separated_results"
)

const (
	// OverlapRate is the fraction of each clip shared with its
	// neighbor during separation.
	OverlapRate = 0.5

	// ChunkStep is the hop between consecutive clip starts.
	ChunkStep = int(zeroshot.ClipSamples * (1 - OverlapRate))
)

// defaultSpillBytes is the in-RAM budget for one file's separated
// clips. Past it, clip outputs stream through the spill store when
// one is configured.
const defaultSpillBytes = 256 << 20

// Pipeline runs the feature-creation and separation flows. Model
// sessions are supplied per call so the job runner can decide their
// lifetime.
type Pipeline struct {
	features  *feature.Dir
	results   string
	log       Logger
	spill     storage.FileStore
	spillOver int64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFeaturesDir overrides the directory sound features are written
// to and resolved from.
func WithFeaturesDir(dir string) Option {
	return func(p *Pipeline) {
		p.features = feature.NewDir(dir)
	}
}

// WithResultsDir overrides the directory separated waveforms are
// written to.
func WithResultsDir(dir string) Option {
	return func(p *Pipeline) {
		p.results = dir
	}
}

// WithLogger overrides the default slog-backed logger.
func WithLogger(l Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// WithSpill gives the pipeline a store for parking separated clips
// when a mixture is too long to hold them all in RAM.
func WithSpill(fs storage.FileStore) Option {
	return func(p *Pipeline) {
		p.spill = fs
	}
}

// WithSpillThreshold sets the clip-output byte count above which the
// spill store is used.
func WithSpillThreshold(bytes int64) Option {
	return func(p *Pipeline) {
		p.spillOver = bytes
	}
}

// New builds a Pipeline writing to the default output directories.
// Directories are created on first use, not here.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		features:  feature.NewDir(DefaultFeaturesDir),
		results:   DefaultResultsDir,
		log:       DefaultLogger(),
		spillOver: defaultSpillBytes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Features exposes the sound-feature directory, the catalog of every
// feature known to the toolkit.
func (p *Pipeline) Features() *feature.Dir {
	return p.features
}

// ResultsDir returns the directory separated waveforms are written
// to.
func (p *Pipeline) ResultsDir() string {
	return p.results
}

// Logger returns the logger the pipeline writes to.
func (p *Pipeline) Logger() Logger {
	return p.log
}
