// Package feature stores sound features: the 2048-dimensional
// embeddings that tell the separator which source to isolate. A
// feature file holds one vector as a single line of space-separated
// decimals; the package also manages the on-disk feature library
// with timestamped, collision-free names.
package feature

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soundsieve/soundsieve/pkg/fault"
)

// Dim is the sound-feature dimensionality. Every model in the chain
// produces and consumes vectors of exactly this length.
const Dim = 2048

// Vector is one sound feature.
type Vector []float32

// WriteFile writes vec to path as one line of space-separated
// decimals, creating parent directories as needed. An existing file
// is overwritten.
func WriteFile(path string, vec Vector) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fault.Wrap(fault.IOError, path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(fault.IOError, path, err)
	}
	if err := Write(f, vec); err != nil {
		f.Close()
		os.Remove(path)
		return fault.WithPath(err, path)
	}
	if err := f.Close(); err != nil {
		return fault.Wrap(fault.IOError, path, err)
	}
	return nil
}

// Write writes vec to w as one line of space-separated decimals
// terminated by a newline. Values are printed with just enough
// precision to survive a read round trip bit-exactly.
func Write(w io.Writer, vec Vector) error {
	if len(vec) != Dim {
		return fault.New(fault.BadEmbedding, "expected %d values, got %d", Dim, len(vec))
	}
	bw := bufio.NewWriter(w)
	scratch := make([]byte, 0, 16)
	for i, v := range vec {
		if i > 0 {
			bw.WriteByte(' ')
		}
		scratch = strconv.AppendFloat(scratch[:0], float64(v), 'g', -1, 32)
		if _, err := bw.Write(scratch); err != nil {
			return fault.Wrap(fault.IOError, "", err)
		}
	}
	bw.WriteByte('\n')
	if err := bw.Flush(); err != nil {
		return fault.Wrap(fault.IOError, "", err)
	}
	return nil
}

// ReadFile reads a sound feature from path.
func ReadFile(path string) (Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault.Wrap(fault.IOError, path, err)
	}
	defer f.Close()

	vec, err := Read(f)
	if err != nil {
		return nil, fault.WithPath(err, path)
	}
	return vec, nil
}

// Read parses a sound feature from r. Any whitespace separates
// values; the vector must hold exactly [Dim] of them.
func Read(r io.Reader) (Vector, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fault.Wrap(fault.IOError, "", err)
	}

	fields := strings.Fields(string(raw))
	vec := make(Vector, 0, Dim)
	for _, tok := range fields {
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, fault.New(fault.BadEmbedding, "token %q is not a number", tok)
		}
		vec = append(vec, float32(v))
	}
	if len(vec) != Dim {
		return nil, fault.New(fault.BadEmbedding, "expected %d values, got %d", Dim, len(vec))
	}
	return vec, nil
}
