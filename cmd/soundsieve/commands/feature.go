package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundsieve/soundsieve/pkg/feature"
	"github.com/soundsieve/soundsieve/pkg/jobs"
)

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Manage sound features",
	Long: `Manage the sound-feature catalog.

A sound feature is a 2048-value vector describing one sound class. It is
built from a handful of short query recordings and stored as a text file
under the features directory; the directory itself is the catalog.

Examples:
  soundsieve feature create --name dog_bark bark1.wav bark2.wav
  soundsieve feature list
  soundsieve feature rm dog_bark`,
}

var featureName string

var featureCreateCmd = &cobra.Command{
	Use:   "create --name <name> <query.wav> [query.wav…]",
	Short: "Build a sound feature from query recordings",
	Long: `Build one sound feature from the given query recordings.

Each query is normalized to 32 kHz mono and embedded by the extractor
model; the stored feature is the element-wise mean of the embeddings.
Queries that fail to decode or embed are skipped with a warning — the
command fails only when no query survives.

The feature is written to <features-dir>/<name>_<timestamp>.txt and the
final path is printed on stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFeatureCreate,
}

func runFeatureCreate(cmd *cobra.Command, args []string) error {
	if featureName == "" {
		return fmt.Errorf("--name is required")
	}
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	return runJob(cfg, func(r *jobs.Runner) error {
		return r.SubmitFeature(args, featureName)
	})
}

var featureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored sound features",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		entries, err := feature.NewDir(cfg.FeaturesDir).List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("no sound features in %s\n", cfg.FeaturesDir)
			return nil
		}
		printFeatureTable(cmd.OutOrStdout(), entries)
		return nil
	},
}

var featureRmCmd = &cobra.Command{
	Use:   "rm <name> [name…]",
	Short: "Delete stored sound features",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		dir := feature.NewDir(cfg.FeaturesDir)
		for _, name := range args {
			if err := dir.Remove(name); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", name)
		}
		return nil
	},
}

func init() {
	featureCreateCmd.Flags().StringVarP(&featureName, "name", "n", "", "name of the sound feature to create")

	featureCmd.AddCommand(featureCreateCmd)
	featureCmd.AddCommand(featureListCmd)
	featureCmd.AddCommand(featureRmCmd)
	rootCmd.AddCommand(featureCmd)
}
