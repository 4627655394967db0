// Package wavio reads and writes RIFF/WAVE files. Reading handles
// integer PCM (8/16/24/32-bit) and IEEE-float (32/64-bit) variants at
// any sample rate and channel count; writing always emits 32-bit
// IEEE float, the result format of the separation pipeline.
package wavio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/fault"
)

// WAV format tags.
const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xfffe
)

// Info describes the format of a decoded WAV file.
type Info struct {
	Format     uint16 // resolved format tag (1 = PCM, 3 = IEEE float)
	Channels   int
	SampleRate int
	Bits       int
}

type fmtChunk struct {
	audioFormat   uint16
	numChannels   uint16
	sampleRate    uint32
	byteRate      uint32
	blockAlign    uint16
	bitsPerSample uint16
}

// ReadFile decodes the WAV file at path into an interleaved float32
// buffer at the file's native sample rate.
func ReadFile(path string) (*wave.Buffer, *Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fault.Wrap(fault.IOError, path, err)
	}
	defer f.Close()

	buf, info, kind, err := decode(f)
	if err != nil {
		return nil, nil, fault.Wrap(kind, path, err)
	}
	return buf, info, nil
}

// Decode decodes a WAV stream into an interleaved float32 buffer at
// the stream's native sample rate.
func Decode(r io.Reader) (*wave.Buffer, *Info, error) {
	buf, info, kind, err := decode(r)
	if err != nil {
		return nil, nil, fault.Wrap(kind, "", err)
	}
	return buf, info, nil
}

func decode(r io.Reader) (*wave.Buffer, *Info, fault.Kind, error) {
	if err := readRIFFHeader(r); err != nil {
		return nil, nil, fault.DecodeError, err
	}

	fc, data, err := scanChunks(r)
	if err != nil {
		return nil, nil, fault.DecodeError, err
	}

	format := fc.audioFormat
	if format != formatPCM && format != formatIEEEFloat {
		return nil, nil, fault.UnsupportedFormat,
			fmt.Errorf("format tag %d (only PCM and IEEE float supported)", format)
	}
	if fc.numChannels == 0 {
		return nil, nil, fault.DecodeError, errors.New("fmt chunk declares zero channels")
	}
	if fc.sampleRate == 0 {
		return nil, nil, fault.DecodeError, errors.New("fmt chunk declares zero sample rate")
	}

	samples, err := toFloat32(data, format, int(fc.bitsPerSample))
	if err != nil {
		return nil, nil, fault.UnsupportedFormat, err
	}

	// Drop a trailing partial frame rather than failing the file.
	channels := int(fc.numChannels)
	if rem := len(samples) % channels; rem != 0 {
		samples = samples[:len(samples)-rem]
	}

	info := &Info{
		Format:     format,
		Channels:   channels,
		SampleRate: int(fc.sampleRate),
		Bits:       int(fc.bitsPerSample),
	}
	return &wave.Buffer{Data: samples, Channels: channels}, info, "", nil
}

// readRIFFHeader consumes and validates the 12-byte RIFF/WAVE prelude.
func readRIFFHeader(r io.Reader) error {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" {
		return errors.New("not a RIFF/WAVE file")
	}
	return nil
}

// scanChunks walks the chunk list until both fmt and data have been
// seen, skipping unknown chunks (LIST, INFO, junk) and the pad byte
// after odd-sized chunks.
func scanChunks(r io.Reader) (*fmtChunk, []byte, error) {
	var fc *fmtChunk
	var data []byte
	dataFound := false

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, nil, fmt.Errorf("reading chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			parsed, err := readFmtChunk(r, size)
			if err != nil {
				return nil, nil, err
			}
			fc = parsed

		case "data":
			chunk, err := readDataChunk(r, size)
			if err != nil {
				return nil, nil, err
			}
			data = chunk
			dataFound = true

		default:
			if err := skipBytes(r, int64(size)); err != nil {
				return nil, nil, fmt.Errorf("skipping chunk %q: %w", id, err)
			}
		}

		if size%2 == 1 {
			if err := skipBytes(r, 1); err != nil && !errors.Is(err, io.EOF) {
				return nil, nil, fmt.Errorf("skipping pad byte: %w", err)
			}
		}

		if fc != nil && dataFound {
			break
		}
	}

	if fc == nil {
		return nil, nil, errors.New("fmt chunk not found")
	}
	if !dataFound {
		return nil, nil, errors.New("data chunk not found")
	}
	return fc, data, nil
}

func readFmtChunk(r io.Reader, size uint32) (*fmtChunk, error) {
	if size < 16 {
		return nil, fmt.Errorf("fmt chunk too short: %d bytes", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading fmt chunk: %w", err)
	}

	fc := &fmtChunk{
		audioFormat:   binary.LittleEndian.Uint16(body[0:2]),
		numChannels:   binary.LittleEndian.Uint16(body[2:4]),
		sampleRate:    binary.LittleEndian.Uint32(body[4:8]),
		byteRate:      binary.LittleEndian.Uint32(body[8:12]),
		blockAlign:    binary.LittleEndian.Uint16(body[12:14]),
		bitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
	}

	// WAVE_FORMAT_EXTENSIBLE carries the effective format tag in the
	// first two bytes of the SubFormat GUID.
	if fc.audioFormat == formatExtensible {
		if size < 40 {
			return nil, fmt.Errorf("extensible fmt chunk too short: %d bytes", size)
		}
		fc.audioFormat = binary.LittleEndian.Uint16(body[24:26])
	}

	return fc, nil
}

// readDataChunk reads the sample bytes. A declared size of zero or
// 0xFFFFFFFF (streaming writers that never patch the header) reads to
// EOF; a truncated file yields the bytes that are present.
func readDataChunk(r io.Reader, size uint32) ([]byte, error) {
	if size == 0 || size == math.MaxUint32 {
		return io.ReadAll(r)
	}
	data := make([]byte, size)
	n, err := io.ReadFull(r, data)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) && n > 0 {
			return data[:n], nil
		}
		return nil, fmt.Errorf("reading data chunk: %w", err)
	}
	return data, nil
}

func skipBytes(r io.Reader, n int64) error {
	if n == 0 {
		return nil
	}
	if s, ok := r.(io.Seeker); ok {
		_, err := s.Seek(n, io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}

// toFloat32 converts raw little-endian sample bytes to float32 in
// [-1, 1] for integer PCM; float data is passed through bit-exactly.
func toFloat32(data []byte, format uint16, bits int) ([]float32, error) {
	switch {
	case format == formatPCM && bits == 8:
		out := make([]float32, len(data))
		for i, v := range data {
			out[i] = (float32(v) - 128) / 128
		}
		return out, nil

	case format == formatPCM && bits == 16:
		n := len(data) / 2
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			s := int16(binary.LittleEndian.Uint16(data[i*2:]))
			out[i] = float32(s) / 32768
		}
		return out, nil

	case format == formatPCM && bits == 24:
		n := len(data) / 3
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			b := data[i*3:]
			s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if s&0x800000 != 0 {
				s |= ^int32(0xffffff) // sign extend
			}
			out[i] = float32(s) / 8388608
		}
		return out, nil

	case format == formatPCM && bits == 32:
		n := len(data) / 4
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			s := int32(binary.LittleEndian.Uint32(data[i*4:]))
			out[i] = float32(float64(s) / 2147483648)
		}
		return out, nil

	case format == formatIEEEFloat && bits == 32:
		n := len(data) / 4
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out, nil

	case format == formatIEEEFloat && bits == 64:
		n := len(data) / 8
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:])))
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%d-bit samples with format tag %d", bits, format)
	}
}
