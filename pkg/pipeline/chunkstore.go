package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/storage"
	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

// chunkStore parks separated clip outputs between inference and the
// overlap-add pass. Get must return exactly the samples that Put
// stored, bit for bit, so the two backends produce identical results.
type chunkStore interface {
	Put(ctx context.Context, index int, samples []float32) error
	Get(ctx context.Context, index int) ([]float32, error)
	Close() error
}

// newChunkStore picks where a file's separated clips wait for the
// overlap-add pass. Small files stay in RAM; past the byte budget the
// clips stream through the spill store.
func (p *Pipeline) newChunkStore(n int) chunkStore {
	need := int64(n) * zeroshot.ClipSamples * 4
	if p.spill != nil && need > p.spillOver {
		p.log.DebugPrintf("spilling %d clip outputs (%d MiB) to disk", n, need>>20)
		return newSpillChunks(p.spill)
	}
	return &memoryChunks{}
}

// memoryChunks keeps every clip in RAM.
type memoryChunks struct {
	clips [][]float32
}

func (m *memoryChunks) Put(ctx context.Context, index int, samples []float32) error {
	for len(m.clips) <= index {
		m.clips = append(m.clips, nil)
	}
	m.clips[index] = samples
	return nil
}

func (m *memoryChunks) Get(ctx context.Context, index int) ([]float32, error) {
	if index < 0 || index >= len(m.clips) || m.clips[index] == nil {
		return nil, fault.New(fault.IOError, "clip %d was never stored", index)
	}
	return m.clips[index], nil
}

func (m *memoryChunks) Close() error {
	m.clips = nil
	return nil
}

// clipRecord is the serialized form of one separated clip.
type clipRecord struct {
	Index   int       `msgpack:"index"`
	Samples []float32 `msgpack:"samples"`
}

// spillChunks streams clip outputs through a FileStore under a
// job-unique prefix so concurrent runners sharing one spill area
// never collide.
type spillChunks struct {
	fs     storage.FileStore
	prefix string
}

func newSpillChunks(fs storage.FileStore) *spillChunks {
	return &spillChunks{fs: fs, prefix: "clips-" + uuid.NewString()}
}

func (s *spillChunks) name(index int) string {
	return fmt.Sprintf("%s/%06d.bin", s.prefix, index)
}

func (s *spillChunks) Put(ctx context.Context, index int, samples []float32) error {
	data, err := msgpack.Marshal(clipRecord{Index: index, Samples: samples})
	if err != nil {
		return fault.Wrap(fault.IOError, s.name(index), err)
	}
	wc, err := s.fs.Write(ctx, s.name(index))
	if err != nil {
		return fault.Wrap(fault.IOError, s.name(index), err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fault.Wrap(fault.IOError, s.name(index), err)
	}
	if err := wc.Close(); err != nil {
		return fault.Wrap(fault.IOError, s.name(index), err)
	}
	return nil
}

func (s *spillChunks) Get(ctx context.Context, index int) ([]float32, error) {
	rc, err := s.fs.Read(ctx, s.name(index))
	if err != nil {
		return nil, fault.Wrap(fault.IOError, s.name(index), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fault.Wrap(fault.IOError, s.name(index), err)
	}
	var rec clipRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fault.Wrap(fault.IOError, s.name(index), err)
	}
	if rec.Index != index {
		return nil, fault.New(fault.IOError, "spill record holds clip %d, want %d", rec.Index, index)
	}
	return rec.Samples, nil
}

// Close drops the job's spill files. It uses a fresh context so
// cleanup still happens after a cancelled job.
func (s *spillChunks) Close() error {
	return s.fs.DeleteAll(context.Background(), s.prefix)
}
