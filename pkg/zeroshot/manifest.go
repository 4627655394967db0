package zeroshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soundsieve/soundsieve/pkg/fault"
	"github.com/soundsieve/soundsieve/pkg/onnx"
)

// ModelRef names one model file plus optional tensor-name overrides
// for graphs that deviate from the standard layout.
type ModelRef struct {
	Path      string `yaml:"path" json:"path"`
	Input     string `yaml:"input,omitempty" json:"input,omitempty"`
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty"`
	Output    string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Manifest names the two model files the pipeline loads. It lives as
// a YAML or JSON file next to the models:
//
//	extractor:
//	  path: htsat.onnx
//	separator:
//	  path: zero_shot_asp.onnx
//
// Relative model paths are resolved against the manifest's directory.
type Manifest struct {
	Extractor ModelRef `yaml:"extractor" json:"extractor"`
	Separator ModelRef `yaml:"separator" json:"separator"`
}

// LoadManifest reads and validates a model manifest. The format is
// chosen by file extension; unknown extensions try YAML first, then
// JSON.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.IOError, path, err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fault.Wrap(fault.IOError, path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fault.Wrap(fault.IOError, path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &m); err != nil {
			if err2 := json.Unmarshal(data, &m); err2 != nil {
				return nil, fault.New(fault.IOError, "%s: not a YAML or JSON manifest", path)
			}
		}
	}

	if m.Extractor.Path == "" {
		return nil, fault.New(fault.ModelNotLoaded, "%s names no extractor model", path)
	}
	if m.Separator.Path == "" {
		return nil, fault.New(fault.ModelNotLoaded, "%s names no separator model", path)
	}

	dir := filepath.Dir(path)
	if !filepath.IsAbs(m.Extractor.Path) {
		m.Extractor.Path = filepath.Join(dir, m.Extractor.Path)
	}
	if !filepath.IsAbs(m.Separator.Path) {
		m.Separator.Path = filepath.Join(dir, m.Separator.Path)
	}
	return &m, nil
}

// Register binds the manifest's model files into the catalog under
// the standard roles.
func (m *Manifest) Register(c *onnx.Catalog) {
	c.Register(RoleExtractor, m.Extractor.Path)
	c.Register(RoleSeparator, m.Separator.Path)
}

// OpenExtractor loads the extractor model through the catalog. The
// catalog keeps the session; closing the returned wrapper leaves it
// cached.
func (m *Manifest) OpenExtractor(c *onnx.Catalog) (*ONNXExtractor, error) {
	session, err := c.Load(RoleExtractor)
	if err != nil {
		return nil, fault.Wrap(fault.ModelNotLoaded, m.Extractor.Path, err)
	}
	var opts []ExtractorOption
	if m.Extractor.Input != "" {
		opts = append(opts, WithExtractorInput(m.Extractor.Input))
	}
	return NewExtractor(session, opts...)
}

// OpenSeparator loads the separator model through the catalog.
func (m *Manifest) OpenSeparator(c *onnx.Catalog) (*ONNXSeparator, error) {
	session, err := c.Load(RoleSeparator)
	if err != nil {
		return nil, fault.Wrap(fault.ModelNotLoaded, m.Separator.Path, err)
	}
	var opts []SeparatorOption
	if m.Separator.Input != "" || m.Separator.Condition != "" {
		opts = append(opts, WithSeparatorInputs(m.Separator.Input, m.Separator.Condition))
	}
	if m.Separator.Output != "" {
		opts = append(opts, WithSeparatorOutput(m.Separator.Output))
	}
	return NewSeparator(session, opts...)
}
