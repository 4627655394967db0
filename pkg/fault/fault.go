// Package fault defines the error taxonomy shared by the separation
// toolkit. Every failure that crosses a package boundary is classified
// under a [Kind] so that pipelines and the job orchestrator can report
// uniform, human-readable messages without inspecting error internals.
//
// Errors created here work with the standard errors package:
//
//	err := fault.Wrap(fault.DecodeError, path, cause)
//	fault.Is(err, fault.DecodeError) // true
//	errors.Is(err, cause)            // true
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The zero value means unclassified.
type Kind string

const (
	// DecodeError marks audio files the decoder could not parse.
	DecodeError Kind = "decode error"
	// UnsupportedFormat marks audio files in a format the decoder
	// recognizes but does not handle (format tag, bit depth).
	UnsupportedFormat Kind = "unsupported format"
	// ResampleError marks sample-rate conversion failures.
	ResampleError Kind = "resample error"
	// WriteError marks output validation or serialization failures.
	WriteError Kind = "write error"
	// InvalidTensor marks empty or non-finite waveform data.
	InvalidTensor Kind = "invalid tensor"
	// BadEmbedding marks feature files that do not hold exactly one
	// 2048-float vector.
	BadEmbedding Kind = "bad embedding"
	// ModelNotLoaded marks a missing model or a model without the
	// required inputs/outputs.
	ModelNotLoaded Kind = "model not loaded"
	// BadInput marks model inputs rejected before inference.
	BadInput Kind = "bad input"
	// ShapeMismatch marks tensors of the wrong rank or extent.
	ShapeMismatch Kind = "shape mismatch"
	// InferenceError marks failures inside a model forward pass.
	InferenceError Kind = "inference error"
	// BadOutput marks model outputs that fail post-validation.
	BadOutput Kind = "bad output"
	// NoValidInputs marks a feature job in which every query failed.
	NoValidInputs Kind = "no valid inputs"
	// Busy marks a job submission rejected because one is running.
	Busy Kind = "busy"
	// IOError marks filesystem failures outside encode/decode.
	IOError Kind = "io error"
)

// Error is a classified error, optionally tagged with the offending
// file path and a wrapped cause.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err under kind, tagged with the offending path.
// Path and err may each be empty.
func Wrap(kind Kind, path string, err error) error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// WithPath tags err with the offending path. A classified error that
// already carries a path is returned unchanged; an unclassified error
// is filed under IOError.
func WithPath(err error, path string) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		if fe.Path != "" {
			return err
		}
		return &Error{Kind: fe.Kind, Path: path, Err: fe.Err}
	}
	return &Error{Kind: IOError, Path: path, Err: err}
}

// KindOf returns the kind of the first classified error in err's
// chain, or the zero Kind when err carries no classification.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err's chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// PathOf returns the tagged path of the first classified error in
// err's chain, or "" when none is set.
func PathOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Path
	}
	return ""
}
