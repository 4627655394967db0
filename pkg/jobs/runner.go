// Package jobs runs feature-creation and separation jobs one at a
// time on a background goroutine, reporting their lifecycle through
// an Events sink.
package jobs

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/onnx"
	"github.com/soundsieve/soundsieve/pkg/pipeline"
	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

// ModelProvider opens the model sessions a job needs. The runner
// acquires models when a job starts and closes them when it ends, so
// a provider backed by a session catalog can cache the expensive
// loads across jobs.
type ModelProvider interface {
	OpenExtractor() (zeroshot.Extractor, error)
	OpenSeparator() (zeroshot.Separator, error)
}

// CatalogModels provides models from an ONNX session catalog using
// the paths and tensor-name overrides of a model manifest.
type CatalogModels struct {
	Manifest *zeroshot.Manifest
	Catalog  *onnx.Catalog
}

// OpenExtractor implements ModelProvider.
func (m CatalogModels) OpenExtractor() (zeroshot.Extractor, error) {
	return m.Manifest.OpenExtractor(m.Catalog)
}

// OpenSeparator implements ModelProvider.
func (m CatalogModels) OpenSeparator() (zeroshot.Separator, error) {
	return m.Manifest.OpenSeparator(m.Catalog)
}

// Runner is the job orchestrator. It admits one job at a time and
// executes it on a background goroutine; a submission made while a
// job is running is rejected with a warning log and a Busy error,
// without touching the running job or the event sink.
type Runner struct {
	pipe   *pipeline.Pipeline
	models ModelProvider
	events Events
	log    pipeline.Logger

	mu   sync.Mutex
	busy bool
	wg   sync.WaitGroup
}

// NewRunner wires a runner to its pipeline, model source, and event
// sink. A nil sink discards all notifications.
func NewRunner(pipe *pipeline.Pipeline, models ModelProvider, events Events) *Runner {
	if events == nil {
		events = NopEvents{}
	}
	return &Runner{pipe: pipe, models: models, events: events, log: pipe.Logger()}
}

// IsBusy reports whether a job is currently running.
func (r *Runner) IsBusy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Wait blocks until the running job, if any, has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// SubmitFeature starts a feature-creation job over the query files.
func (r *Runner) SubmitFeature(queryPaths []string, outName string) error {
	if !r.admit() {
		r.log.WarnPrintf("feature job %q rejected: a job is already running", outName)
		return fault.New(fault.Busy, "a job is already running")
	}
	id := uuid.NewString()
	r.log.InfoPrintf("feature job %s: %d query files -> %q", id, len(queryPaths), outName)

	paths := slices.Clone(queryPaths)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runFeature(paths, outName)
	}()
	return nil
}

// SubmitSeparation starts a separation job that runs every mixture
// against the named sound feature, in the order given.
func (r *Runner) SubmitSeparation(mixturePaths []string, featureName string) error {
	if !r.admit() {
		r.log.WarnPrintf("separation job with feature %q rejected: a job is already running", featureName)
		return fault.New(fault.Busy, "a job is already running")
	}
	id := uuid.NewString()
	r.log.InfoPrintf("separation job %s: %d mixtures with feature %q", id, len(mixturePaths), featureName)

	paths := slices.Clone(mixturePaths)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runSeparation(paths, featureName)
	}()
	return nil
}

func (r *Runner) admit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return false
	}
	r.busy = true
	return true
}

func (r *Runner) settle() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

func (r *Runner) runFeature(queryPaths []string, outName string) {
	r.events.Started()
	paths, err := r.featureJob(queryPaths, outName)

	// Release the slot before the terminal events so a listener
	// reacting to them can submit the next job right away.
	r.settle()
	if err != nil {
		r.events.Error(err.Error())
	}
	r.events.Finished(paths)
}

func (r *Runner) runSeparation(mixturePaths []string, featureName string) {
	r.events.Started()
	paths, err := r.separationJob(mixturePaths, featureName)

	r.settle()
	if err != nil {
		r.events.Error(err.Error())
	}
	r.events.Finished(paths)
}

// featureJob acquires the extractor and runs the feature flow once.
func (r *Runner) featureJob(queryPaths []string, outName string) ([]string, error) {
	ex, err := r.models.OpenExtractor()
	if err != nil {
		return nil, err
	}
	defer ex.Close()

	path, err := r.pipe.CreateFeature(context.Background(), ex, queryPaths, outName, r.events.Progress)
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// separationJob acquires the separator and works through the
// mixtures in submission order. A failing mixture is reported and
// skipped; only a model-load failure aborts the whole job.
func (r *Runner) separationJob(mixturePaths []string, featureName string) ([]string, error) {
	sep, err := r.models.OpenSeparator()
	if err != nil {
		return nil, err
	}
	defer sep.Close()

	var done []string
	total := len(mixturePaths)
	for i, mix := range mixturePaths {
		band := i * 100
		path, err := r.pipe.SeparateFile(context.Background(), sep, mix, featureName, func(p int) {
			r.events.Progress((band + p) / total)
		})
		if err != nil {
			r.log.ErrorPrintf("separation failed for %s: %v", mix, err)
			r.events.Error(err.Error())
			continue
		}
		done = append(done, path)
	}
	return done, nil
}
