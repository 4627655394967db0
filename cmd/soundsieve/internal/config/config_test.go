package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	d := Default()
	if cfg.Manifest != d.Manifest || cfg.FeaturesDir != d.FeaturesDir ||
		cfg.ResultsDir != d.ResultsDir || cfg.LogLevel != d.LogLevel {
		t.Fatalf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoadFromPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "manifest: /opt/models/models.yaml\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Manifest != "/opt/models/models.yaml" {
		t.Errorf("manifest = %q", cfg.Manifest)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if cfg.FeaturesDir != Default().FeaturesDir {
		t.Errorf("features_dir should default, got %q", cfg.FeaturesDir)
	}
}

func TestLoadFromRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"bad level", "log_level: loud\n"},
		{"bad format", "log_format: xml\n"},
		{"negative spill", "spill_mb: -3\n"},
		{"malformed yaml", "manifest: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Fatalf("LoadFrom accepted %q", tc.data)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.FeaturesDir = "my_features"
	cfg.SpillMB = 64
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.FeaturesDir != "my_features" || got.SpillMB != 64 {
		t.Fatalf("round trip lost values: %+v", got)
	}
}
