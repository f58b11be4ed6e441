package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/preprocess"
	"github.com/17hemanthkumar/pm/internal/quality"
)

var qualityCmd = &cobra.Command{
	Use:   "quality <image>",
	Short: "Assess face image quality",
	Long: `Assess the quality of a face region in an image.

Prints brightness and sharpness scores together with the overall
confidence and whether the face is acceptable for matching. Without
--box the whole image is treated as the face region.

Examples:
  # Assess a cropped face photo
  pm quality ./face.jpg

  # Assess a region of a larger photo (top,right,bottom,left in pixels)
  pm quality ./photo.jpg --box 120,400,520,80

  # Output as JSON
  pm quality ./face.jpg --json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuality,
}

func init() {
	rootCmd.AddCommand(qualityCmd)

	qualityCmd.Flags().String("box", "", "Face region as top,right,bottom,left pixel coordinates")
	qualityCmd.Flags().Bool("json", false, "Output as JSON")
}

// parseBox parses a top,right,bottom,left pixel coordinate list.
func parseBox(s string) (quality.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return quality.Box{}, errors.New("box must have exactly four coordinates: top,right,bottom,left")
	}

	vals := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return quality.Box{}, fmt.Errorf("invalid box coordinate %q", part)
		}
		vals[i] = v
	}
	return quality.Box{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
}

func runQuality(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	boxFlag := mustGetString(cmd, "box")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}
	img, err := preprocess.Decode(data)
	if err != nil {
		return err
	}

	box := quality.Box{Top: 0, Right: img.Bounds().Dx(), Bottom: img.Bounds().Dy(), Left: 0}
	if boxFlag != "" {
		box, err = parseBox(boxFlag)
		if err != nil {
			return err
		}
	}

	engine := facematch.NewEngine(cfg, nil, nil, nil)
	metrics := engine.Assess(img, box)

	if jsonOutput {
		return outputJSON(metrics)
	}

	fmt.Printf("Face region:  %dx%d px\n", metrics.FaceWidth, metrics.FaceHeight)
	fmt.Printf("Brightness:   %.2f\n", metrics.BrightnessScore)
	fmt.Printf("Sharpness:    %.2f\n", metrics.BlurScore)
	fmt.Printf("Confidence:   %.2f\n", metrics.Confidence)
	if metrics.Acceptable {
		fmt.Println("Acceptable:   yes")
	} else {
		fmt.Println("Acceptable:   no")
	}

	return nil
}
