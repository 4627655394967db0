package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soundsieve/soundsieve/pkg/zeroshot"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the configured model files",
	Long: `Show the model files the manifest points at and whether they exist.

The manifest (models.yaml by default) names the extractor and separator
model files plus optional tensor-name overrides:

  extractor:
    path: htsat.onnx
  separator:
    path: zero_shot_asp.onnx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		manifest, err := zeroshot.LoadManifest(cfg.Manifest)
		if err != nil {
			return err
		}
		fmt.Printf("manifest: %s\n", cfg.Manifest)
		printModel("extractor", manifest.Extractor)
		printModel("separator", manifest.Separator)
		return nil
	},
}

func printModel(role string, ref zeroshot.ModelRef) {
	var status string
	if info, err := os.Stat(ref.Path); err != nil {
		status = "missing"
	} else {
		status = fmt.Sprintf("%d MiB", info.Size()>>20)
	}
	fmt.Printf("%s: %s (%s)\n", role, ref.Path, status)
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
