package wavio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/fault"
)

// maxWriteRate is the highest sample rate the writer accepts.
const maxWriteRate = 192000

// maxWriteChannels bounds the channel count of written files.
const maxWriteChannels = 64

// Logger receives writer warnings. The pipeline logger satisfies it.
type Logger interface {
	WarnPrintf(format string, args ...any)
}

type slogWarner struct{}

func (slogWarner) WarnPrintf(format string, args ...any) {
	slog.Warn("wavio: " + fmt.Sprintf(format, args...))
}

// WriteOption configures WriteFile and Encode.
type WriteOption func(*writeSettings)

type writeSettings struct {
	log Logger
}

// WithLogger routes writer warnings through l.
func WithLogger(l Logger) WriteOption {
	return func(s *writeSettings) {
		s.log = l
	}
}

func settings(opts []WriteOption) writeSettings {
	s := writeSettings{log: slogWarner{}}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WriteFile writes buf to path as a 32-bit IEEE-float WAV file,
// creating parent directories as needed. A failed write removes the
// partial file.
func WriteFile(path string, buf *wave.Buffer, rate int, opts ...WriteOption) error {
	if err := validate(buf, rate, settings(opts).log); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fault.Wrap(fault.WriteError, path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fault.Wrap(fault.WriteError, path, err)
	}
	if err := encode(f, buf, rate); err != nil {
		f.Close()
		os.Remove(path)
		return fault.Wrap(fault.WriteError, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fault.Wrap(fault.WriteError, path, err)
	}
	return nil
}

// Encode writes buf to w as a 32-bit IEEE-float WAV stream.
func Encode(w io.Writer, buf *wave.Buffer, rate int, opts ...WriteOption) error {
	if err := validate(buf, rate, settings(opts).log); err != nil {
		return err
	}
	if err := encode(w, buf, rate); err != nil {
		return fault.Wrap(fault.WriteError, "", err)
	}
	return nil
}

func validate(buf *wave.Buffer, rate int, log Logger) error {
	if buf == nil || len(buf.Data) == 0 {
		return fault.New(fault.InvalidTensor, "empty waveform")
	}
	if !buf.IsFinite() {
		return fault.New(fault.InvalidTensor, "waveform contains NaN or Inf")
	}
	if buf.Channels < 1 || buf.Channels > maxWriteChannels {
		return fault.New(fault.WriteError, "channel count %d outside [1, %d]", buf.Channels, maxWriteChannels)
	}
	if rate <= 0 || rate > maxWriteRate {
		return fault.New(fault.WriteError, "sample rate %d outside (0, %d]", rate, maxWriteRate)
	}
	if rate != wave.CanonicalRate {
		log.WarnPrintf("writing non-canonical sample rate %d", rate)
	}
	return nil
}

func encode(w io.Writer, buf *wave.Buffer, rate int) error {
	bw := bufio.NewWriter(w)

	channels := buf.Channels
	dataSize := uint32(len(buf.Data)) * 4
	byteRate := uint32(rate * channels * 4)
	blockAlign := uint16(channels * 4)

	// RIFF prelude and fmt chunk, 16-byte PCM-style layout with the
	// IEEE-float format tag.
	bw.WriteString("RIFF")
	binary.Write(bw, binary.LittleEndian, uint32(36)+dataSize)
	bw.WriteString("WAVE")
	bw.WriteString("fmt ")
	binary.Write(bw, binary.LittleEndian, uint32(16))
	binary.Write(bw, binary.LittleEndian, uint16(formatIEEEFloat))
	binary.Write(bw, binary.LittleEndian, uint16(channels))
	binary.Write(bw, binary.LittleEndian, uint32(rate))
	binary.Write(bw, binary.LittleEndian, byteRate)
	binary.Write(bw, binary.LittleEndian, blockAlign)
	binary.Write(bw, binary.LittleEndian, uint16(32))
	bw.WriteString("data")
	binary.Write(bw, binary.LittleEndian, dataSize)

	var scratch [4]byte
	for _, s := range buf.Data {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(s))
		if _, err := bw.Write(scratch[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
