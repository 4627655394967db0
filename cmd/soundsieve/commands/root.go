package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soundsieve/soundsieve/cmd/soundsieve/internal/config"
	"github.com/soundsieve/soundsieve/pkg/pipeline"
	"github.com/soundsieve/soundsieve/pkg/storage"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	manifestArg string
	featuresArg string
	resultsArg  string

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "soundsieve",
	Short: "Zero-shot audio source separation",
	Long: `soundsieve - extract one sound from a mixture, described by example.

A sound feature is built once from a few short recordings of the target
sound (feature create). Any mixture can then be filtered down to that
sound alone (separate). No per-class training is involved; the class is
whatever the query recordings exemplify.

Sound features are plain text files under the features directory, which
doubles as the catalog: 'soundsieve feature list' simply enumerates it.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/soundsieve/config.yaml
  Linux:   ~/.config/soundsieve/config.yaml
  Windows: %AppData%/soundsieve/config.yaml

Examples:
  # Build a sound feature from three dog-bark recordings
  soundsieve feature create --name dog_bark bark1.wav bark2.wav bark3.wav

  # Pull that sound out of a street recording
  soundsieve separate --feature dog_bark street.wav

  # See what features exist
  soundsieve feature list`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: OS config dir)")
	rootCmd.PersistentFlags().StringVar(&manifestArg, "manifest", "", "model manifest file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&featuresArg, "features-dir", "", "sound-feature directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&resultsArg, "results-dir", "", "separation output directory (overrides config)")
}

// configLoadErr stores the error from config.Load() for deferred
// reporting, so commands that never touch the config (version) still
// work when the file is broken.
var configLoadErr error

func initConfig() {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
	slog.SetDefault(cfg.NewLogger(verbose))
}

// GetConfig returns the global configuration with flag overrides
// applied.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	cfg := *globalConfig
	if manifestArg != "" {
		cfg.Manifest = manifestArg
	}
	if featuresArg != "" {
		cfg.FeaturesDir = featuresArg
	}
	if resultsArg != "" {
		cfg.ResultsDir = resultsArg
	}
	return &cfg, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// newPipeline assembles the processing pipeline from the effective
// configuration.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{
		pipeline.WithFeaturesDir(cfg.FeaturesDir),
		pipeline.WithResultsDir(cfg.ResultsDir),
		pipeline.WithLogger(pipeline.SlogLogger(slog.Default())),
	}

	spillDir := cfg.SpillDir
	if spillDir == "" {
		spillDir = filepath.Join(os.TempDir(), "soundsieve", "temp_chunks")
	}
	spill, err := storage.NewLocal(spillDir)
	if err != nil {
		return nil, fmt.Errorf("open spill directory %s: %w", spillDir, err)
	}
	opts = append(opts, pipeline.WithSpill(spill))
	if cfg.SpillMB > 0 {
		opts = append(opts, pipeline.WithSpillThreshold(int64(cfg.SpillMB)<<20))
	}
	return pipeline.New(opts...), nil
}
