package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/17hemanthkumar/pm/internal/config"
	"github.com/17hemanthkumar/pm/internal/encoder"
	"github.com/17hemanthkumar/pm/internal/facematch"
	"github.com/17hemanthkumar/pm/internal/gallery"
	"github.com/17hemanthkumar/pm/internal/preprocess"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Build and inspect face galleries",
	Long: `Commands for building a gallery of known people from local files.

A gallery directory may contain:
  - image files (.jpg, .jpeg, .png), enrolled under the file name
  - JSON encoding files (.json), enrolled under the file name
  - subdirectories, whose files are all enrolled under the directory name

Images are sent to the face encoding service and must contain exactly
one face. JSON files hold a single encoding or an array of encodings
and need no encoding service.`,
}

var galleryEnrollCmd = &cobra.Command{
	Use:   "enroll <directory>",
	Short: "Build a gallery from a directory and report what was enrolled",
	Long: `Build a gallery from a directory and report what was enrolled.

Every file is processed through the same pipeline the web API uses:
decode, preprocess, encode, enroll. Files that cannot be enrolled are
listed with the reason.

Examples:
  pm gallery enroll ./people
  pm gallery enroll ./people --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGalleryEnroll,
}

var galleryListCmd = &cobra.Command{
	Use:   "list <directory>",
	Short: "List the people a gallery directory would enroll",
	Long: `Build a gallery from a directory and print the enrolled people with
their encoding counts.

Examples:
  pm gallery list ./people
  pm gallery list ./people --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGalleryList,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryEnrollCmd)
	galleryCmd.AddCommand(galleryListCmd)

	galleryEnrollCmd.Flags().Bool("json", false, "Output as JSON")
	galleryListCmd.Flags().Bool("json", false, "Output as JSON")
}

// galleryFile is one enrollable file with the person it belongs to.
type galleryFile struct {
	path   string
	person string
}

// galleryIssue records a file that could not be enrolled.
type galleryIssue struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// EnrollOutput is the JSON output of a gallery build.
type EnrollOutput struct {
	People    []gallery.Person `json:"people"`
	Encodings int              `json:"encodings"`
	Issues    []galleryIssue   `json:"issues,omitempty"`
}

// collectGalleryFiles walks one directory level and pairs every
// enrollable file with its person name: the file stem for top-level
// files, the directory name for files inside a subdirectory.
func collectGalleryFiles(dir string) ([]galleryFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []galleryFile
	for _, entry := range entries {
		if entry.IsDir() {
			subDir := filepath.Join(dir, entry.Name())
			sub, err := os.ReadDir(subDir)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", subDir, err)
			}
			for _, s := range sub {
				if s.IsDir() || !isEnrollableFile(s.Name()) {
					continue
				}
				files = append(files, galleryFile{
					path:   filepath.Join(subDir, s.Name()),
					person: entry.Name(),
				})
			}
			continue
		}
		if !isEnrollableFile(entry.Name()) {
			continue
		}
		files = append(files, galleryFile{
			path:   filepath.Join(dir, entry.Name()),
			person: personFromFilename(entry.Name()),
		})
	}
	return files, nil
}

func isEnrollableFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".json":
		return true
	}
	return false
}

func personFromFilename(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// readEncodingFile reads a JSON encoding file holding either a single
// encoding or an array of encodings.
func readEncodingFile(path string) ([]facematch.Encoding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoding file: %w", err)
	}

	var multi []facematch.Encoding
	if err := json.Unmarshal(data, &multi); err == nil && len(multi) > 0 {
		return multi, nil
	}
	var single facematch.Encoding
	if err := json.Unmarshal(data, &single); err == nil && len(single) > 0 {
		return []facematch.Encoding{single}, nil
	}
	return nil, errors.New("expected a JSON encoding or an array of encodings")
}

// enrollFile adds one file to the store, going through the encoding
// service for images.
func enrollFile(ctx context.Context, store *gallery.Store, cfg *config.Config, pre *preprocess.Preprocessor, enc *encoder.Client, f galleryFile) error {
	if strings.EqualFold(filepath.Ext(f.path), ".json") {
		encodings, err := readEncodingFile(f.path)
		if err != nil {
			return err
		}
		_, err = store.EnrollPerson(f.person, encodings)
		return err
	}

	if cfg.Encoder.URL == "" {
		return errors.New("ENCODER_URL environment variable is required to enroll from images")
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	img, err := preprocess.Decode(data)
	if err != nil {
		return err
	}
	payload, err := preprocess.EncodeJPEG(pre.Process(img))
	if err != nil {
		return err
	}

	faces, err := enc.Encode(ctx, payload)
	if err != nil {
		return err
	}
	if len(faces) == 0 {
		return errors.New("no face detected")
	}
	if len(faces) > 1 {
		return fmt.Errorf("found %d faces, enrollment photos must contain exactly one", len(faces))
	}

	_, err = store.Enroll(f.person, faces[0].Encoding)
	return err
}

// buildGallery enrolls every file under dir into a fresh store. Files
// that fail are collected as issues rather than aborting the build.
func buildGallery(ctx context.Context, cfg *config.Config, dir string) (*gallery.Store, []galleryIssue, error) {
	files, err := collectGalleryFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no images or encoding files found in %s", dir)
	}

	pre := preprocess.NewPreprocessor(cfg)
	enc := encoder.NewClient(cfg)
	store := gallery.NewStore()
	var issues []galleryIssue

	for _, f := range files {
		if err := enrollFile(ctx, store, cfg, pre, enc, f); err != nil {
			issues = append(issues, galleryIssue{File: f.path, Reason: err.Error()})
		}
	}
	if store.Len() == 0 {
		return nil, issues, fmt.Errorf("no faces enrolled from %s", dir)
	}
	return store, issues, nil
}

// warnf prints progress messages for human consumption, suppressed in
// JSON output mode.
func warnf(jsonOutput bool, format string, args ...any) {
	if !jsonOutput {
		fmt.Printf(format, args...)
	}
}

func printPeopleTable(people []gallery.Person) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERSON\tENCODINGS")
	fmt.Fprintln(w, "------\t---------")
	for _, p := range people {
		fmt.Fprintf(w, "%s\t%d\n", p.ID, p.Encodings)
	}
	w.Flush()
}

func runGalleryEnroll(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	ctx := context.Background()
	cfg := config.Load()

	store, issues, err := buildGallery(ctx, cfg, args[0])
	if err != nil {
		return err
	}

	people := store.People()
	if jsonOutput {
		return outputJSON(EnrollOutput{
			People:    people,
			Encodings: store.Len(),
			Issues:    issues,
		})
	}

	fmt.Printf("Enrolled %d people (%d encodings) from %s:\n\n", len(people), store.Len(), args[0])
	printPeopleTable(people)

	if len(issues) > 0 {
		fmt.Printf("\nSkipped %d files:\n", len(issues))
		for _, issue := range issues {
			fmt.Printf("  %s: %s\n", issue.File, issue.Reason)
		}
	}
	return nil
}

func runGalleryList(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	ctx := context.Background()
	cfg := config.Load()

	store, issues, err := buildGallery(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	for _, issue := range issues {
		warnf(jsonOutput, "Skipping %s: %s\n", issue.File, issue.Reason)
	}

	people := store.People()
	if jsonOutput {
		return outputJSON(map[string]any{
			"people": people,
			"count":  len(people),
		})
	}

	printPeopleTable(people)
	return nil
}
