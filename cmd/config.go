package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/17hemanthkumar/pm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying embedded defaults, FACE_* and
ENCODER_* environment variables and validation.

Examples:
  pm config
  pm config --json`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().Bool("json", false, "Output as JSON")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if mustGetBool(cmd, "json") {
		return outputJSON(cfg)
	}

	fmt.Println("Matching:")
	fmt.Printf("  Recognition tolerance:  %.2f\n", cfg.RecognitionTolerance)
	fmt.Printf("  Learning tolerance:     %.2f\n", cfg.LearningTolerance)
	fmt.Printf("  Adaptive tolerance:     %t\n", cfg.AdaptiveToleranceEnabled)
	fmt.Printf("  Primary strategy:       %s\n", cfg.PrimaryStrategy)
	fmt.Printf("  Fallback enabled:       %t\n", cfg.EnableFallback)

	fmt.Println("\nQuality:")
	fmt.Printf("  Min face size:          %d px\n", cfg.MinFaceSize)
	fmt.Printf("  Min confidence:         %.2f\n", cfg.MinConfidence)

	fmt.Println("\nPreprocessing:")
	fmt.Printf("  Normalize brightness:   %t\n", cfg.NormalizeBrightness)
	fmt.Printf("  Target image size:      %dx%d\n", cfg.TargetImageSize.Width, cfg.TargetImageSize.Height)

	fmt.Println("\nEncoder:")
	url := cfg.Encoder.URL
	if url == "" {
		url = "(not set)"
	}
	fmt.Printf("  URL:                    %s\n", url)
	fmt.Printf("  Dimensions:             %d\n", cfg.Encoder.Dim)
	fmt.Printf("  Timeout:                %ds\n", cfg.Encoder.TimeoutSeconds)

	fmt.Println("\nLogging:")
	fmt.Printf("  Level:                  %s\n", cfg.LogLevel)
	fmt.Printf("  Match details:          %t\n", cfg.LogMatchDetails)

	return nil
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
