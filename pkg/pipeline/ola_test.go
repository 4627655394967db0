package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

func TestWindow(t *testing.T) {
	got := window(8, 0.5)
	want := []float32{0.25, 0.5, 0.75, 1, 1, 0.75, 0.5, 0.25}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("w[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for i, v := range got {
		if v <= 0 {
			t.Errorf("w[%d] = %v, every weight must stay positive", i, v)
		}
	}
}

func TestWindowWithFlatMiddle(t *testing.T) {
	got := window(8, 0.25)
	want := []float32{0.5, 1, 1, 1, 1, 1, 1, 0.5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("w[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWindowZeroOverlap(t *testing.T) {
	for i, v := range window(6, 0) {
		if v != 1 {
			t.Errorf("w[%d] = %v, want 1", i, v)
		}
	}
}

// storedClips parks the given clips in a memory store.
func storedClips(t *testing.T, clips ...[]float32) chunkStore {
	t.Helper()
	m := &memoryChunks{}
	for i, c := range clips {
		if err := m.Put(context.Background(), i, c); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func constSlice(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestOverlapAddConstant(t *testing.T) {
	// Three clips of 8 at stride 4. A constant input must come back
	// constant: the weight sums cancel exactly.
	clips := storedClips(t, constSlice(8, 1), constSlice(8, 1), constSlice(8, 1))
	out, err := overlapAdd(context.Background(), clips, []int{0, 4, 8}, 8, 0.5, 14)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 14 {
		t.Fatalf("len = %d, want 14", len(out))
	}
	for i, v := range out {
		if v != 1 {
			t.Errorf("out[%d] = %v, want exactly 1", i, v)
		}
	}
}

func TestOverlapAddSingleClip(t *testing.T) {
	// With one clip the window divides itself back out and the raw
	// separator output survives.
	clip := []float32{0.5, -0.25, 0.125, 1, -1, 0.75, 0.0625, -0.5}
	out, err := overlapAdd(context.Background(), storedClips(t, clip), []int{0}, 8, 0.5, 6)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}
	for i := 0; i < 6; i++ {
		if diff := math.Abs(float64(out[i] - clip[i])); diff > 1e-6 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], clip[i])
		}
	}
}

func TestOverlapAddPadsShortReconstruction(t *testing.T) {
	out, err := overlapAdd(context.Background(), storedClips(t, constSlice(8, 1)), []int{0}, 8, 0.5, 12)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 12 {
		t.Fatalf("len = %d, want 12", len(out))
	}
	for i := 8; i < 12; i++ {
		if out[i] != 0 {
			t.Errorf("out[%d] = %v, want zero padding", i, out[i])
		}
	}
}

func TestOverlapAddNoClips(t *testing.T) {
	out, err := overlapAdd(context.Background(), &memoryChunks{}, nil, 8, 0.5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
}

func TestOverlapAddRejectsShortClip(t *testing.T) {
	_, err := overlapAdd(context.Background(), storedClips(t, constSlice(3, 1)), []int{0}, 8, 0.5, 8)
	if !fault.Is(err, fault.BadOutput) {
		t.Errorf("kind = %q, want %q", fault.KindOf(err), fault.BadOutput)
	}
}

func TestChunkStarts(t *testing.T) {
	if got := chunkStarts(0); got != nil {
		t.Errorf("chunkStarts(0) = %v, want none", got)
	}
	if got := chunkStarts(1); len(got) != 1 || got[0] != 0 {
		t.Errorf("chunkStarts(1) = %v, want [0]", got)
	}
	if got := chunkStarts(ChunkStep); len(got) != 1 {
		t.Errorf("chunkStarts(step) = %v, want one start", got)
	}
	// A length that is an exact multiple of the step still gets a
	// final, fully padded clip.
	if got := chunkStarts(2 * ChunkStep); len(got) != 2 {
		t.Errorf("chunkStarts(2*step) = %v, want two starts", got)
	}
	got := chunkStarts(500000)
	want := []int{0, 160000, 320000, 480000}
	if len(got) != len(want) {
		t.Fatalf("starts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("starts = %v, want %v", got, want)
		}
	}
}

func TestChunkAt(t *testing.T) {
	samples := []float32{1, 2, 3, 4, 5}
	got := chunkAt(samples, 3)
	if len(got) != zeroshot.ClipSamples {
		t.Fatalf("len = %d, want %d", len(got), zeroshot.ClipSamples)
	}
	if got[0] != 4 || got[1] != 5 || got[2] != 0 {
		t.Errorf("clip head = %v %v %v, want 4 5 0", got[0], got[1], got[2])
	}
}
