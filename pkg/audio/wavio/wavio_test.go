package wavio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/soundsieve/soundsieve/pkg/audio/wave"
	"github.com/soundsieve/soundsieve/pkg/fault"
)

// writeInt16Fixture writes an interleaved int16 PCM file through the
// go-audio encoder so the reader is checked against an independent
// writer.
func writeInt16Fixture(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
}

// wavBytes builds a minimal in-memory WAV with a 16-byte fmt chunk.
func wavBytes(format uint16, channels, rate, bits int, data []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, format)
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(rate))
	binary.Write(&b, binary.LittleEndian, uint32(rate*channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(channels*bits/8))
	binary.Write(&b, binary.LittleEndian, uint16(bits))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)
	return b.Bytes()
}

func TestReadPCM16Fixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcm16.wav")
	ints := []int{0, 16384, -16384, 32767, -32768, 1}
	writeInt16Fixture(t, path, 44100, 1, ints)

	buf, info, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if info.SampleRate != 44100 || info.Channels != 1 || info.Bits != 16 {
		t.Fatalf("info = %+v, want 44100 Hz mono 16-bit", info)
	}
	if len(buf.Data) != len(ints) {
		t.Fatalf("got %d samples, want %d", len(buf.Data), len(ints))
	}
	for i, v := range ints {
		want := float32(v) / 32768
		if diff := math.Abs(float64(buf.Data[i] - want)); diff > 1e-6 {
			t.Errorf("sample %d = %v, want %v", i, buf.Data[i], want)
		}
	}
}

func TestFloatRoundTripBitExact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")
	src := &wave.Buffer{
		Data:     []float32{0, 1, -1, 0.5, -0.25, 3.0517578e-05, 0.70710677, -0.99999994},
		Channels: 2,
	}

	if err := WriteFile(path, src, wave.CanonicalRate); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, info, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if info.Format != formatIEEEFloat || info.Bits != 32 {
		t.Fatalf("info = %+v, want IEEE float 32-bit", info)
	}
	if info.SampleRate != wave.CanonicalRate || info.Channels != 2 {
		t.Fatalf("info = %+v, want 32000 Hz stereo", info)
	}
	if len(got.Data) != len(src.Data) {
		t.Fatalf("got %d samples, want %d", len(got.Data), len(src.Data))
	}
	for i := range src.Data {
		if math.Float32bits(got.Data[i]) != math.Float32bits(src.Data[i]) {
			t.Errorf("sample %d = %v, want bit-exact %v", i, got.Data[i], src.Data[i])
		}
	}
}

func TestDecodeSampleVariants(t *testing.T) {
	f64 := func(vals ...float64) []byte {
		b := make([]byte, 8*len(vals))
		for i, v := range vals {
			binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
		}
		return b
	}
	i32 := func(vals ...int32) []byte {
		b := make([]byte, 4*len(vals))
		for i, v := range vals {
			binary.LittleEndian.PutUint32(b[i*4:], uint32(v))
		}
		return b
	}

	tests := []struct {
		name   string
		raw    []byte
		format uint16
		bits   int
		want   []float32
	}{
		{
			name:   "pcm8 unsigned",
			raw:    []byte{128, 255, 0, 192},
			format: formatPCM,
			bits:   8,
			want:   []float32{0, 0.9921875, -1, 0.5},
		},
		{
			name:   "pcm24 sign extended",
			raw:    []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0xc0, 0xff, 0xff, 0x7f},
			format: formatPCM,
			bits:   24,
			want:   []float32{0.5, -0.5, 0.99999988},
		},
		{
			name:   "pcm32",
			raw:    i32(1 << 30, -(1 << 30)),
			format: formatPCM,
			bits:   32,
			want:   []float32{0.5, -0.5},
		},
		{
			name:   "float64 narrowed",
			raw:    f64(0.25, -0.125, 1.0),
			format: formatIEEEFloat,
			bits:   64,
			want:   []float32{0.25, -0.125, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, _, err := Decode(bytes.NewReader(wavBytes(tt.format, 1, 32000, tt.bits, tt.raw)))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if len(buf.Data) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(buf.Data), len(tt.want))
			}
			for i, want := range tt.want {
				if diff := math.Abs(float64(buf.Data[i] - want)); diff > 1e-6 {
					t.Errorf("sample %d = %v, want %v", i, buf.Data[i], want)
				}
			}
		})
	}
}

func TestDecodeExtensibleFloat(t *testing.T) {
	// 40-byte extensible fmt chunk whose SubFormat resolves to IEEE
	// float.
	var b bytes.Buffer
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:], math.Float32bits(0.5))
	binary.LittleEndian.PutUint32(data[4:], math.Float32bits(-0.5))

	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(60+len(data)))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(40))
	binary.Write(&b, binary.LittleEndian, uint16(formatExtensible))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint32(48000))
	binary.Write(&b, binary.LittleEndian, uint32(48000*4))
	binary.Write(&b, binary.LittleEndian, uint16(4))
	binary.Write(&b, binary.LittleEndian, uint16(32))
	binary.Write(&b, binary.LittleEndian, uint16(22)) // cbSize
	binary.Write(&b, binary.LittleEndian, uint16(32)) // valid bits
	binary.Write(&b, binary.LittleEndian, uint32(4))  // channel mask
	binary.Write(&b, binary.LittleEndian, uint16(formatIEEEFloat))
	b.Write(make([]byte, 14)) // rest of the SubFormat GUID
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(data)))
	b.Write(data)

	buf, info, err := Decode(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if info.Format != formatIEEEFloat {
		t.Errorf("resolved format = %d, want %d", info.Format, formatIEEEFloat)
	}
	if info.SampleRate != 48000 {
		t.Errorf("rate = %d, want 48000", info.SampleRate)
	}
	if buf.Data[0] != 0.5 || buf.Data[1] != -0.5 {
		t.Errorf("samples = %v, want [0.5 -0.5]", buf.Data)
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, math.Float32bits(0.25))

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0)) // size unused by scanner
	b.WriteString("WAVE")

	// Odd-sized junk chunk before fmt, pad byte follows.
	b.WriteString("JUNK")
	binary.Write(&b, binary.LittleEndian, uint32(3))
	b.Write([]byte{1, 2, 3, 0})

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(formatIEEEFloat))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint32(32000))
	binary.Write(&b, binary.LittleEndian, uint32(32000*4))
	binary.Write(&b, binary.LittleEndian, uint16(4))
	binary.Write(&b, binary.LittleEndian, uint16(32))

	// LIST chunk between fmt and data.
	b.WriteString("LIST")
	binary.Write(&b, binary.LittleEndian, uint32(4))
	b.WriteString("INFO")

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)

	buf, _, err := Decode(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(buf.Data) != 1 || buf.Data[0] != 0.25 {
		t.Errorf("samples = %v, want [0.25]", buf.Data)
	}
}

func TestDecodeTruncatedData(t *testing.T) {
	// Header declares 6 frames but only 4 are present; the reader
	// keeps what exists.
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], uint16(100))
	binary.LittleEndian.PutUint16(raw[2:], uint16(200))
	binary.LittleEndian.PutUint16(raw[4:], uint16(300))
	binary.LittleEndian.PutUint16(raw[6:], uint16(400))

	full := wavBytes(formatPCM, 1, 32000, 16, raw)
	// Patch the data size up and keep the bytes short.
	binary.LittleEndian.PutUint32(full[40:], 12)

	buf, _, err := Decode(bytes.NewReader(full))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(buf.Data) != 4 {
		t.Errorf("got %d samples, want 4", len(buf.Data))
	}
}

func TestDecodeDropsPartialFrame(t *testing.T) {
	// 5 samples over 2 channels: the trailing half frame goes away.
	raw := make([]byte, 10)
	buf, _, err := Decode(bytes.NewReader(wavBytes(formatPCM, 2, 32000, 16, raw)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := buf.Frames(); got != 2 {
		t.Errorf("frames = %d, want 2", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	noData := wavBytes(formatPCM, 1, 32000, 16, nil)
	noData = noData[:len(noData)-8] // chop the data chunk header off

	tests := []struct {
		name string
		raw  []byte
		kind fault.Kind
	}{
		{
			name: "not riff",
			raw:  []byte("ID3\x03rest of an mp3 file........"),
			kind: fault.DecodeError,
		},
		{
			name: "missing data chunk",
			raw:  noData,
			kind: fault.DecodeError,
		},
		{
			name: "mp3 format tag",
			raw:  wavBytes(0x55, 1, 32000, 16, make([]byte, 4)),
			kind: fault.UnsupportedFormat,
		},
		{
			name: "12 bit pcm",
			raw:  wavBytes(formatPCM, 1, 32000, 12, make([]byte, 4)),
			kind: fault.UnsupportedFormat,
		},
		{
			name: "zero channels",
			raw:  wavBytes(formatPCM, 0, 32000, 16, make([]byte, 4)),
			kind: fault.DecodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(bytes.NewReader(tt.raw))
			if err == nil {
				t.Fatal("Decode should fail")
			}
			if got := fault.KindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q (err: %v)", got, tt.kind, err)
			}
		})
	}
}

func TestWriteValidation(t *testing.T) {
	mono := func(vals ...float32) *wave.Buffer { return wave.FromMono(vals) }

	tests := []struct {
		name string
		buf  *wave.Buffer
		rate int
		kind fault.Kind
	}{
		{"nil buffer", nil, 32000, fault.InvalidTensor},
		{"empty buffer", mono(), 32000, fault.InvalidTensor},
		{"nan sample", mono(0, float32(math.NaN())), 32000, fault.InvalidTensor},
		{"inf sample", mono(float32(math.Inf(1))), 32000, fault.InvalidTensor},
		{"zero rate", mono(0.1), 0, fault.WriteError},
		{"negative rate", mono(0.1), -8000, fault.WriteError},
		{"rate above limit", mono(0.1), 192001, fault.WriteError},
		{"zero channels", &wave.Buffer{Data: []float32{0.1}, Channels: 0}, 32000, fault.WriteError},
		{"too many channels", &wave.Buffer{Data: make([]float32, 65), Channels: 65}, 32000, fault.WriteError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Encode(&bytes.Buffer{}, tt.buf, tt.rate)
			if err == nil {
				t.Fatal("Encode should fail")
			}
			if got := fault.KindOf(err); got != tt.kind {
				t.Errorf("kind = %q, want %q (err: %v)", got, tt.kind, err)
			}
		})
	}
}

type warnRecorder struct {
	warnings []string
}

func (r *warnRecorder) WarnPrintf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

func TestWriteNonCanonicalRateProceeds(t *testing.T) {
	var log warnRecorder
	path := filepath.Join(t.TempDir(), "odd-rate.wav")
	if err := WriteFile(path, wave.FromMono([]float32{0.1, 0.2}), 44100, WithLogger(&log)); err != nil {
		t.Fatalf("WriteFile at 44100 Hz should only warn, got %v", err)
	}
	if len(log.warnings) != 1 {
		t.Errorf("warnings = %v, want one rate warning", log.warnings)
	}
	_, info, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if info.SampleRate != 44100 {
		t.Errorf("rate = %d, want 44100", info.SampleRate)
	}
}

func TestWriteCanonicalRateIsQuiet(t *testing.T) {
	var log warnRecorder
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := WriteFile(path, wave.FromMono([]float32{0.1}), wave.CanonicalRate, WithLogger(&log)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if len(log.warnings) != 0 {
		t.Errorf("unexpected warnings: %v", log.warnings)
	}
}

func TestWriteCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.wav")
	if err := WriteFile(path, wave.FromMono([]float32{0.5}), 32000); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestWriteValidationFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	err := WriteFile(path, wave.FromMono([]float32{float32(math.NaN())}), 32000)
	if err == nil {
		t.Fatal("WriteFile should fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed write should not leave a file behind")
	}
}

func TestLoadAudioForceMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// L = 0.5, R = -0.5 everywhere: the mixdown is silence.
	ints := []int{16384, -16384, 16384, -16384, 16384, -16384}
	writeInt16Fixture(t, path, 32000, 2, ints)

	buf, err := LoadAudio(path, true)
	if err != nil {
		t.Fatalf("LoadAudio: %v", err)
	}
	if buf.Channels != 1 {
		t.Fatalf("channels = %d, want 1", buf.Channels)
	}
	if len(buf.Data) != 3 {
		t.Fatalf("got %d samples, want 3", len(buf.Data))
	}
	for i, v := range buf.Data {
		if math.Abs(float64(v)) > 1e-6 {
			t.Errorf("sample %d = %v, want 0", i, v)
		}
	}
}

func TestLoadAudioStereoPreserved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeInt16Fixture(t, path, 32000, 2, []int{100, -100, 200, -200})

	buf, err := LoadAudio(path, false)
	if err != nil {
		t.Fatalf("LoadAudio: %v", err)
	}
	if buf.Channels != 2 {
		t.Fatalf("channels = %d, want 2", buf.Channels)
	}
	if buf.Frames() != 2 {
		t.Fatalf("frames = %d, want 2", buf.Frames())
	}
}

func TestLoadAudioResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "16k.wav")
	n := 16000
	ints := make([]int, n)
	for i := range ints {
		ints[i] = 16384 // constant 0.5
	}
	writeInt16Fixture(t, path, 16000, 1, ints)

	buf, err := LoadAudio(path, false)
	if err != nil {
		t.Fatalf("LoadAudio: %v", err)
	}
	if buf.Channels != 1 {
		t.Fatalf("channels = %d, want 1", buf.Channels)
	}

	want := 32000
	if got := len(buf.Data); got < want-1 || got > want+1 {
		t.Fatalf("got %d samples, want %d (give or take a frame)", got, want)
	}

	// A constant signal stays constant away from the filter edges.
	for i := want / 3; i < 2*want/3; i++ {
		if diff := math.Abs(float64(buf.Data[i]) - 0.5); diff > 0.02 {
			t.Fatalf("sample %d = %v, want about 0.5", i, buf.Data[i])
		}
	}
}
