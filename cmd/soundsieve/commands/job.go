package commands

import (
	"fmt"
	"os"
	"sync"

	"github.com/soundsieve/soundsieve/cmd/soundsieve/internal/config"
	"github.com/soundsieve/soundsieve/pkg/jobs"
	"github.com/soundsieve/soundsieve/pkg/onnx"
	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

// consoleEvents renders job lifecycle events on the terminal: a
// single rewritten progress line on stderr while the job runs, result
// paths on stdout when it finishes.
type consoleEvents struct {
	mu       sync.Mutex
	last     int
	failures []string
	results  []string
}

func (c *consoleEvents) Started() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = -1
}

func (c *consoleEvents) Progress(percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if percent == c.last {
		return
	}
	c.last = percent
	fmt.Fprintf(os.Stderr, "\rprocessing… %3d%%", percent)
}

func (c *consoleEvents) Finished(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last >= 0 {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
	c.results = paths
	for _, p := range paths {
		fmt.Println(p)
	}
}

func (c *consoleEvents) Error(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last >= 0 {
		fmt.Fprint(os.Stderr, "\r\033[K")
		c.last = -1
	}
	c.failures = append(c.failures, message)
	fmt.Fprintf(os.Stderr, "error: %s\n", message)
}

// err summarizes the job outcome after the runner has drained.
func (c *consoleEvents) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case len(c.failures) == 0:
		return nil
	case len(c.results) > 0:
		return fmt.Errorf("%d of %d inputs failed", len(c.failures), len(c.failures)+len(c.results))
	default:
		return fmt.Errorf("%s", c.failures[0])
	}
}

// runJob wires a job runner from the effective configuration, submits
// one job through submit, and blocks until it has drained.
func runJob(cfg *config.Config, submit func(*jobs.Runner) error) error {
	manifest, err := zeroshot.LoadManifest(cfg.Manifest)
	if err != nil {
		return err
	}

	env, err := onnx.NewEnv("soundsieve")
	if err != nil {
		return fmt.Errorf("initialize inference runtime: %w", err)
	}
	defer env.Close()

	catalog := onnx.NewCatalog(env)
	defer catalog.Close()
	manifest.Register(catalog)

	pipe, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	console := &consoleEvents{}
	runner := jobs.NewRunner(pipe, jobs.CatalogModels{Manifest: manifest, Catalog: catalog}, console)
	if err := submit(runner); err != nil {
		return err
	}
	runner.Wait()
	return console.err()
}
