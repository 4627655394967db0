package zeroshot

import (
	"slices"
	"sync"

	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/feature"
	"github.com/soundsieve/soundsieve/pkg/onnx"
)

// ONNXExtractor implements [Extractor] on an ONNX Runtime session.
//
// The model takes one [1, ClipSamples] float32 waveform and exposes a
// [LatentOutputName] head of shape [1, 2048]. Input and output names
// are read from the graph at construction time.
type ONNXExtractor struct {
	mu          sync.Mutex
	session     *onnx.Session
	inputName   string
	ownsSession bool
	closed      bool
}

var _ Extractor = (*ONNXExtractor)(nil)

// ExtractorOption configures an ONNXExtractor.
type ExtractorOption func(*ONNXExtractor)

// WithExtractorInput overrides the waveform input name. By default
// the graph's single input is used.
func WithExtractorInput(name string) ExtractorOption {
	return func(m *ONNXExtractor) {
		m.inputName = name
	}
}

// NewExtractor wraps an existing session. The session stays owned by
// the caller; Close leaves it open.
func NewExtractor(session *onnx.Session, opts ...ExtractorOption) (*ONNXExtractor, error) {
	m := &ONNXExtractor{session: session}
	for _, opt := range opts {
		opt(m)
	}

	outs, err := session.OutputNames()
	if err != nil {
		return nil, fault.Wrap(fault.ModelNotLoaded, "", err)
	}
	if !slices.Contains(outs, LatentOutputName) {
		return nil, fault.New(fault.ModelNotLoaded, "model lacks the %s head (outputs: %v)", LatentOutputName, outs)
	}

	if m.inputName == "" {
		ins, err := session.InputNames()
		if err != nil {
			return nil, fault.Wrap(fault.ModelNotLoaded, "", err)
		}
		if len(ins) != 1 {
			return nil, fault.New(fault.ModelNotLoaded, "extractor model wants one input, has %d", len(ins))
		}
		m.inputName = ins[0]
	}
	return m, nil
}

// NewExtractorFromFile loads an .onnx model from disk. The returned
// extractor owns the session and releases it on Close.
func NewExtractorFromFile(env *onnx.Env, path string, opts ...ExtractorOption) (*ONNXExtractor, error) {
	session, err := env.NewSessionFromFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.ModelNotLoaded, path, err)
	}
	m, err := NewExtractor(session, opts...)
	if err != nil {
		session.Close()
		return nil, fault.WithPath(err, path)
	}
	m.ownsSession = true
	return m, nil
}

// Extract implements [Extractor].
func (m *ONNXExtractor) Extract(samples []float32) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fault.New(fault.ModelNotLoaded, "extractor is closed")
	}

	// Step 1: validate the waveform.
	if len(samples) == 0 {
		return nil, fault.New(fault.BadInput, "waveform is empty")
	}
	if !wave.IsFinite(samples) {
		return nil, fault.New(fault.BadInput, "waveform contains NaN or Inf")
	}

	// Step 2: shape to exactly one clip.
	clip := shapeClip(samples)

	// Step 3: run the model.
	input, err := onnx.NewTensor([]int64{1, ClipSamples}, clip)
	if err != nil {
		return nil, fault.Wrap(fault.BadInput, "", err)
	}
	defer input.Close()

	outputs, err := m.session.Run(
		[]string{m.inputName}, []*onnx.Tensor{input},
		[]string{LatentOutputName},
	)
	if err != nil {
		return nil, fault.Wrap(fault.InferenceError, "", err)
	}
	defer closeAll(outputs)

	// Step 4: validate and copy out the embedding.
	emb, err := outputs[0].FloatData()
	if err != nil {
		return nil, fault.Wrap(fault.BadOutput, "", err)
	}
	if len(emb) != feature.Dim {
		return nil, fault.New(fault.BadOutput, "embedding has %d values, want %d", len(emb), feature.Dim)
	}
	if !wave.IsFinite(emb) {
		return nil, fault.New(fault.BadOutput, "embedding contains NaN or Inf")
	}
	return emb, nil
}

// Dimension implements [Extractor].
func (m *ONNXExtractor) Dimension() int {
	return feature.Dim
}

// Close implements [Extractor].
func (m *ONNXExtractor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.ownsSession {
		return m.session.Close()
	}
	return nil
}

// shapeClip pads or truncates samples to exactly one clip. Truncation
// keeps the leading samples.
func shapeClip(samples []float32) []float32 {
	if len(samples) == ClipSamples {
		return samples
	}
	if len(samples) > ClipSamples {
		return samples[:ClipSamples]
	}
	return wave.PadTo(samples, ClipSamples)
}
