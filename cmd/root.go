package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/17hemanthkumar/pm/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pm",
	Short: "A face matching engine with a CLI and web API",
	Long: `pm decides whether an unknown face belongs to a gallery of known
people. It talks to an external face encoding service for detection and
embeddings, assesses face quality, and picks a matching strategy based
on configuration and image quality.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))
}
