package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/encoder"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/preprocess"
	"github.com/17hemanthkumar/pm/internal/quality"
)

var matchCmd = &cobra.Command{
	Use:   "match <probe>",
	Short: "Match a face against a gallery of known people",
	Long: `Match a probe face against a gallery built from local files.

The probe is either an image (sent to the face encoding service; the
highest scoring detected face is used) or a JSON encoding file. The
gallery directory has the layout described under "pm gallery".

This command:
1. Builds the gallery from the --gallery directory
2. Extracts the probe encoding, with quality metrics for images
3. Runs the matching pipeline and prints the decision

Examples:
  # Match a photo against a directory of known people
  pm match ./probe.jpg --gallery ./people

  # Stricter threshold (lower = stricter)
  pm match ./probe.jpg --gallery ./people --threshold 0.4

  # Use the stricter learning tolerance
  pm match ./probe.jpg --gallery ./people --learning

  # Output as JSON
  pm match ./probe.jpg --gallery ./people --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("gallery", "", "Directory with known people (required)")
	matchCmd.Flags().Float64("threshold", 0, "Override the recognition tolerance (0 = configured value)")
	matchCmd.Flags().Bool("learning", false, "Match with the stricter learning tolerance")
	matchCmd.Flags().Bool("json", false, "Output as JSON")
}

// probeFromFile extracts the probe encoding from an image or a JSON
// encoding file. Quality metrics are only available for images.
func probeFromFile(ctx context.Context, cfg *config.Config, pre *preprocess.Preprocessor, enc *encoder.Client, engine *facematch.Engine, path string) (facematch.Encoding, *quality.Metrics, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		encodings, err := readEncodingFile(path)
		if err != nil {
			return nil, nil, err
		}
		return encodings[0], nil, nil
	}

	if cfg.Encoder.URL == "" {
		return nil, nil, errors.New("ENCODER_URL environment variable is required to match images")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	img, err := preprocess.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	processed := pre.Process(img)
	payload, err := preprocess.EncodeJPEG(processed)
	if err != nil {
		return nil, nil, err
	}

	faces, err := enc.Encode(ctx, payload)
	if err != nil {
		return nil, nil, err
	}
	if len(faces) == 0 {
		return nil, nil, errors.New("no face detected")
	}

	best := faces[0]
	for _, f := range faces[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}
	metrics := engine.Assess(processed, best.Box)
	return best.Encoding, &metrics, nil
}

func printMatchResult(result facematch.MatchResult) {
	if result.Matched {
		fmt.Printf("Match: %s\n", result.PersonID)
	} else {
		fmt.Println("No match")
	}
	if !math.IsInf(result.Distance, 1) {
		fmt.Printf("  Distance:   %.4f\n", result.Distance)
	}
	fmt.Printf("  Confidence: %.2f\n", result.Confidence)
	fmt.Printf("  Strategy:   %s\n", result.StrategyUsed)
	fmt.Printf("  Threshold:  %.4f\n", result.ThresholdApplied)

	if len(result.Alternatives) > 0 {
		fmt.Println("\nAlternatives:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, alt := range result.Alternatives {
			fmt.Fprintf(w, "  %s\t%.4f\n", alt.PersonID, alt.Distance)
		}
		w.Flush()
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	probePath := args[0]
	galleryDir := mustGetString(cmd, "gallery")
	threshold := mustGetFloat64(cmd, "threshold")
	learning := mustGetBool(cmd, "learning")
	jsonOutput := mustGetBool(cmd, "json")

	if galleryDir == "" {
		return errors.New("--gallery is required")
	}

	ctx := context.Background()
	cfg := config.Load()
	if threshold > 0 {
		cfg.RecognitionTolerance = threshold
	}

	warnf(jsonOutput, "Building gallery from %s...\n", galleryDir)
	store, issues, err := buildGallery(ctx, cfg, galleryDir)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		warnf(jsonOutput, "Skipping %s: %s\n", issue.File, issue.Reason)
	}
	warnf(jsonOutput, "Gallery ready: %d people, %d encodings\n\n", len(store.People()), store.Len())

	pre := preprocess.NewPreprocessor(cfg)
	enc := encoder.NewClient(cfg)
	engine := facematch.NewEngine(cfg, nil, nil, nil)

	probe, qm, err := probeFromFile(ctx, cfg, pre, enc, engine, probePath)
	if err != nil {
		return fmt.Errorf("failed to extract probe from %s: %w", probePath, err)
	}

	known, ids := store.Snapshot()
	var result facematch.MatchResult
	if learning {
		result, err = engine.MatchForLearning(probe, known, ids, qm)
	} else {
		result, err = engine.Match(probe, known, ids, qm)
	}
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	if jsonOutput {
		return outputJSON(result.Record())
	}
	printMatchResult(result)
	return nil
}
