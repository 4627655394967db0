package zeroshot

import (
	"sync"

	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/feature"
	"github.com/soundsieve/soundsieve/pkg/onnx"
)

// ONNXSeparator implements [Separator] on an ONNX Runtime session.
//
// The model takes a [1, ClipSamples, 1] waveform and a [1, 2048]
// condition, in that graph order, and returns one [1, ClipSamples, 1]
// separated waveform. Names are read from the graph at construction
// time; use the options when a model deviates from the order.
type ONNXSeparator struct {
	mu             sync.Mutex
	session        *onnx.Session
	waveformInput  string
	conditionInput string
	outputName     string
	ownsSession    bool
	closed         bool
}

var _ Separator = (*ONNXSeparator)(nil)

// SeparatorOption configures an ONNXSeparator.
type SeparatorOption func(*ONNXSeparator)

// WithSeparatorInputs overrides the waveform and condition input
// names. By default the graph's first input is the waveform and the
// second the condition.
func WithSeparatorInputs(waveform, condition string) SeparatorOption {
	return func(m *ONNXSeparator) {
		m.waveformInput = waveform
		m.conditionInput = condition
	}
}

// WithSeparatorOutput overrides the output name. By default the
// graph's first output is used.
func WithSeparatorOutput(name string) SeparatorOption {
	return func(m *ONNXSeparator) {
		m.outputName = name
	}
}

// NewSeparator wraps an existing session. The session stays owned by
// the caller; Close leaves it open.
func NewSeparator(session *onnx.Session, opts ...SeparatorOption) (*ONNXSeparator, error) {
	m := &ONNXSeparator{session: session}
	for _, opt := range opts {
		opt(m)
	}

	if m.waveformInput == "" || m.conditionInput == "" {
		ins, err := session.InputNames()
		if err != nil {
			return nil, fault.Wrap(fault.ModelNotLoaded, "", err)
		}
		if len(ins) != 2 {
			return nil, fault.New(fault.ModelNotLoaded, "separator model wants two inputs (waveform, condition), has %d", len(ins))
		}
		if m.waveformInput == "" {
			m.waveformInput = ins[0]
		}
		if m.conditionInput == "" {
			m.conditionInput = ins[1]
		}
	}

	if m.outputName == "" {
		outs, err := session.OutputNames()
		if err != nil {
			return nil, fault.Wrap(fault.ModelNotLoaded, "", err)
		}
		if len(outs) == 0 {
			return nil, fault.New(fault.ModelNotLoaded, "separator model has no outputs")
		}
		m.outputName = outs[0]
	}
	return m, nil
}

// NewSeparatorFromFile loads an .onnx model from disk. The returned
// separator owns the session and releases it on Close.
func NewSeparatorFromFile(env *onnx.Env, path string, opts ...SeparatorOption) (*ONNXSeparator, error) {
	session, err := env.NewSessionFromFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.ModelNotLoaded, path, err)
	}
	m, err := NewSeparator(session, opts...)
	if err != nil {
		session.Close()
		return nil, fault.WithPath(err, path)
	}
	m.ownsSession = true
	return m, nil
}

// Separate implements [Separator].
func (m *ONNXSeparator) Separate(chunk, cond []float32) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fault.New(fault.ModelNotLoaded, "separator is closed")
	}

	// Step 1: validate the inputs.
	if err := validateSeparatorInputs(chunk, cond); err != nil {
		return nil, err
	}

	// Step 2: build the [1, ClipSamples, 1] waveform and [1, 2048]
	// condition tensors.
	mix, err := onnx.NewTensor([]int64{1, ClipSamples, 1}, chunk)
	if err != nil {
		return nil, fault.Wrap(fault.ShapeMismatch, "", err)
	}
	defer mix.Close()

	condition, err := onnx.NewTensor([]int64{1, feature.Dim}, cond)
	if err != nil {
		return nil, fault.Wrap(fault.ShapeMismatch, "", err)
	}
	defer condition.Close()

	// Step 3: run the model.
	outputs, err := m.session.Run(
		[]string{m.waveformInput, m.conditionInput},
		[]*onnx.Tensor{mix, condition},
		[]string{m.outputName},
	)
	if err != nil {
		return nil, fault.Wrap(fault.InferenceError, "", err)
	}
	defer closeAll(outputs)

	// Step 4: validate the separated clip.
	shape, err := outputs[0].Shape()
	if err != nil {
		return nil, fault.Wrap(fault.BadOutput, "", err)
	}
	if len(shape) != 3 || shape[0] != 1 || shape[1] != ClipSamples || shape[2] != 1 {
		return nil, fault.New(fault.BadOutput, "output shape %v, want [1 %d 1]", shape, ClipSamples)
	}
	out, err := outputs[0].FloatData()
	if err != nil {
		return nil, fault.Wrap(fault.BadOutput, "", err)
	}
	if !wave.IsFinite(out) {
		return nil, fault.New(fault.BadOutput, "output contains NaN or Inf")
	}
	return out, nil
}

// Close implements [Separator].
func (m *ONNXSeparator) Close() error {
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

func validateSeparatorInputs(chunk, cond []float32) error {
	if len(chunk) == 0 {
		return fault.New(fault.ShapeMismatch, "chunk is empty")
	}
	if len(chunk) != ClipSamples {
		return fault.New(fault.ShapeMismatch, "chunk holds %d samples, want %d", len(chunk), ClipSamples)
	}
	if len(cond) == 0 {
		return fault.New(fault.ShapeMismatch, "condition is empty")
	}
	if len(cond) != feature.Dim {
		return fault.New(fault.ShapeMismatch, "condition has %d values, want %d", len(cond), feature.Dim)
	}
	if !wave.IsFinite(chunk) {
		return fault.New(fault.BadInput, "chunk contains NaN or Inf")
	}
	if !wave.IsFinite(cond) {
		return fault.New(fault.BadInput, "condition contains NaN or Inf")
	}
	return nil
}
