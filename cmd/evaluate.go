package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/constants"
	"github.com/17hemanthkumar/pm/internal/encoder"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/preprocess"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <directory>",
	Short: "Batch match a directory of probes against a gallery",
	Long: `Match every image or encoding file in a directory against a gallery
of known people and print a summary.

Probes are processed on a bounded worker pool. Per-probe errors are
counted and reported without stopping the run.

Examples:
  # Evaluate a directory of probe photos
  pm evaluate ./probes --gallery ./people

  # Limit concurrency
  pm evaluate ./probes --gallery ./people --concurrency 4

  # JSON output for scripting
  pm evaluate ./probes --gallery ./people --json`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("gallery", "", "Directory with known people (required)")
	evaluateCmd.Flags().Int("concurrency", constants.WorkerPoolSize, "Number of parallel workers")
	evaluateCmd.Flags().Float64("threshold", 0, "Override the recognition tolerance (0 = configured value)")
	evaluateCmd.Flags().Bool("json", false, "Output as JSON")
}

// EvaluateResult is one probe decision in the evaluation output.
type EvaluateResult struct {
	File     string   `json:"file"`
	Matched  bool     `json:"matched"`
	PersonID string   `json:"person_id,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
	Strategy string   `json:"strategy,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// EvaluateOutput is the JSON output of an evaluation run.
type EvaluateOutput struct {
	Probes        int              `json:"probes"`
	Matched       int              `json:"matched"`
	NoMatch       int              `json:"no_match"`
	Errors        int              `json:"errors"`
	People        int              `json:"people"`
	Encodings     int              `json:"encodings"`
	DurationMs    int64            `json:"duration_ms"`
	DurationHuman string           `json:"duration_human,omitempty"`
	Results       []EvaluateResult `json:"results"`
}

func evaluateProbe(ctx context.Context, cfg *config.Config, pre *preprocess.Preprocessor, enc *encoder.Client, engine *facematch.Engine, known []facematch.Encoding, ids []string, path string) EvaluateResult {
	res := EvaluateResult{File: path}

	probe, qm, err := probeFromFile(ctx, cfg, pre, enc, engine, path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	result, err := engine.Match(probe, known, ids, qm)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Matched = result.Matched
	res.Strategy = result.StrategyUsed
	if result.Matched {
		res.PersonID = result.PersonID
	}
	if !math.IsInf(result.Distance, 1) {
		d := result.Distance
		res.Distance = &d
	}
	return res
}

func printEvaluateTable(output EvaluateOutput) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBE\tRESULT\tDISTANCE\tSTRATEGY")
	fmt.Fprintln(w, "-----\t------\t--------\t--------")

	for _, res := range output.Results {
		outcome := "-"
		switch {
		case res.Error != "":
			outcome = "error: " + res.Error
		case res.Matched:
			outcome = res.PersonID
		}
		distance := "-"
		if res.Distance != nil {
			distance = fmt.Sprintf("%.4f", *res.Distance)
		}
		strategy := res.Strategy
		if strategy == "" {
			strategy = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.File, outcome, distance, strategy)
	}

	w.Flush()

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Probes:    %d\n", output.Probes)
	fmt.Printf("  Matched:   %d\n", output.Matched)
	fmt.Printf("  No match:  %d\n", output.NoMatch)
	if output.Errors > 0 {
		fmt.Printf("  Errors:    %d\n", output.Errors)
	}
	fmt.Printf("  Duration:  %s\n", output.DurationHuman)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	probeDir := args[0]
	galleryDir := mustGetString(cmd, "gallery")
	concurrency := mustGetInt(cmd, "concurrency")
	threshold := mustGetFloat64(cmd, "threshold")
	jsonOutput := mustGetBool(cmd, "json")

	if galleryDir == "" {
		return errors.New("--gallery is required")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	ctx := context.Background()
	cfg := config.Load()
	if threshold > 0 {
		cfg.RecognitionTolerance = threshold
	}
	startTime := time.Now()

	warnf(jsonOutput, "Building gallery from %s...\n", galleryDir)
	store, issues, err := buildGallery(ctx, cfg, galleryDir)
	if err != nil {
		return err
	}
	for _, issue := range issues {
		warnf(jsonOutput, "Skipping %s: %s\n", issue.File, issue.Reason)
	}

	probes, err := collectGalleryFiles(probeDir)
	if err != nil {
		return err
	}
	if len(probes) == 0 {
		return fmt.Errorf("no images or encoding files found in %s", probeDir)
	}

	people := store.People()
	warnf(jsonOutput, "Gallery ready: %d people, %d encodings\n", len(people), store.Len())
	warnf(jsonOutput, "Evaluating %d probes\n\n", len(probes))

	// Create progress bar (only for non-JSON output)
	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(probes),
			progressbar.OptionSetDescription("Matching"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("probes"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	pre := preprocess.NewPreprocessor(cfg)
	enc := encoder.NewClient(cfg)
	engine := facematch.NewEngine(cfg, nil, nil, nil)
	known, ids := store.Snapshot()

	// Each worker writes its own slot, so no mutex is needed.
	results := make([]EvaluateResult, len(probes))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, probe := range probes {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = evaluateProbe(ctx, cfg, pre, enc, engine, known, ids, path)

			if bar != nil {
				bar.Add(1)
			}
		}(i, probe.path)
	}

	wg.Wait()

	if bar != nil {
		fmt.Println()
	}

	output := EvaluateOutput{
		Probes:    len(probes),
		People:    len(people),
		Encodings: store.Len(),
		Results:   results,
	}
	for _, res := range results {
		switch {
		case res.Error != "":
			output.Errors++
		case res.Matched:
			output.Matched++
		default:
			output.NoMatch++
		}
	}

	duration := time.Since(startTime)
	output.DurationMs = duration.Milliseconds()
	output.DurationHuman = formatDuration(duration)

	if jsonOutput {
		// Remove human-readable duration for JSON output
		output.DurationHuman = ""
		return outputJSON(output)
	}

	fmt.Println("\nEvaluation complete!")
	printEvaluateTable(output)
	return nil
}

// formatDuration formats a duration as a human-readable string
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
