package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundsieve/soundsieve/pkg/jobs"
)

var separateFeature string

var separateCmd = &cobra.Command{
	Use:   "separate --feature <name> <mixture.wav> [mixture.wav…]",
	Short: "Separate a sound from mixture recordings",
	Long: `Separate the sound described by a stored feature from one or more
mixture recordings.

Each mixture is normalized to 32 kHz with its channel count preserved,
cut into overlapping ten-second clips, run through the separator model,
and stitched back together. The result has exactly as many frames and
channels as the input and is written to
<results-dir>/<mixture-basename>_<feature>.wav.

Mixtures are processed in the order given. A failing mixture is
reported and skipped; the paths of the successful results are printed
on stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSeparate,
}

func runSeparate(cmd *cobra.Command, args []string) error {
	if separateFeature == "" {
		return fmt.Errorf("--feature is required")
	}
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	return runJob(cfg, func(r *jobs.Runner) error {
		return r.SubmitSeparation(args, separateFeature)
	})
}

func init() {
	separateCmd.Flags().StringVarP(&separateFeature, "feature", "f", "", "name of the sound feature to separate out")
	rootCmd.AddCommand(separateCmd)
}
