package onnx

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// ModelID identifies a model slot in a [Catalog].
type ModelID string

// Catalog maps model IDs to .onnx files on disk and caches loaded
// sessions. Models are loaded lazily on first use so a process that
// only manages features never pays for the separator.
type Catalog struct {
	env *Env

	mu       sync.Mutex
	paths    map[ModelID]string
	sessions map[ModelID]*Session
}

// NewCatalog returns an empty catalog backed by env.
func NewCatalog(env *Env) *Catalog {
	return &Catalog{
		env:      env,
		paths:    make(map[ModelID]string),
		sessions: make(map[ModelID]*Session),
	}
}

// Register binds id to an .onnx file. Re-registering an id swaps the
// path and drops any cached session for it.
func (c *Catalog) Register(id ModelID, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[id]; ok {
		s.Close()
		delete(c.sessions, id)
	}
	c.paths[id] = path
}

// Load returns the session for id, loading the model file on first
// use. The returned session is shared; do not close it, close the
// catalog instead.
func (c *Catalog) Load(id ModelID) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[id]; ok {
		return s, nil
	}
	path, ok := c.paths[id]
	if !ok {
		return nil, fmt.Errorf("onnx: model %q not registered", id)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("onnx: model %q: %w", id, err)
	}

	s, err := c.env.NewSessionFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("onnx: model %q: %w", id, err)
	}
	c.sessions[id] = s
	return s, nil
}

// Path returns the registered file for id.
func (c *Catalog) Path(id ModelID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	path, ok := c.paths[id]
	return path, ok
}

// List returns the registered model IDs in sorted order.
func (c *Catalog) List() []ModelID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]ModelID, 0, len(c.paths))
	for id := range c.paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close releases every cached session. The catalog stays usable;
// subsequent loads reopen the model files.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, s := range c.sessions {
		s.Close()
		delete(c.sessions, id)
	}
	return nil
}
