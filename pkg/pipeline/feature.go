package pipeline

import (
	"context"

	"github.com/soundsieve/soundsieve/pkg/audio/wavio"
	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/feature"
	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

// CreateFeature builds one sound feature from a set of query files
// and returns the path it was written to.
//
// Each query is loaded as 32 kHz mono and embedded by the extractor.
// Queries that fail to decode or embed are logged and skipped; the
// job fails with NoValidInputs only when every query was skipped.
// The element-wise mean of the surviving embeddings is written under
// a unique timestamped name in the features directory.
//
// Progress counts processed files over total files, skips included.
func (p *Pipeline) CreateFeature(ctx context.Context, ex zeroshot.Extractor, queryPaths []string, outName string, progress func(percent int)) (string, error) {
	if progress == nil {
		progress = func(int) {}
	}
	if len(queryPaths) == 0 {
		return "", fault.New(fault.NoValidInputs, "no query files given")
	}

	acc := make(feature.Vector, ex.Dimension())
	n := 0
	for i, path := range queryPaths {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		emb, err := p.embedQuery(ex, path)
		switch {
		case err != nil:
			p.log.WarnPrintf("skipping query %s: %v", path, err)
		case len(emb) != len(acc):
			p.log.WarnPrintf("skipping query %s: embedding has %d values, want %d", path, len(emb), len(acc))
		default:
			for j, v := range emb {
				acc[j] += v
			}
			n++
		}
		progress(100 * (i + 1) / len(queryPaths))
	}
	p.log.InfoPrintf("embedded %d of %d query files", n, len(queryPaths))

	if n == 0 {
		return "", fault.New(fault.NoValidInputs, "none of the %d query files produced an embedding", len(queryPaths))
	}
	for j := range acc {
		acc[j] /= float32(n)
	}
	return p.features.Save(outName, acc)
}

// embedQuery loads one query as canonical-rate mono and runs it
// through the extractor.
func (p *Pipeline) embedQuery(ex zeroshot.Extractor, path string) ([]float32, error) {
	w, err := wavio.LoadAudio(path, true)
	if err != nil {
		return nil, err
	}
	return ex.Extract(w.Data)
}
