package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
)

var configPath string

// rootCmd runs the whole pipeline: discovery, extraction, scoring and
// review, in order, skipping stages whose artifacts are up to date.
var rootCmd = &cobra.Command{
	Use:   "bilianalyzer",
	Short: "Score long-form video transcripts and generate AI review documents",
	Long: `bilianalyzer drives transcripts through a resumable batch pipeline:
an external crawler discovers videos, audio is downloaded and transcribed,
each transcript is scored into a quality tier, and qualifying items get an
AI-generated review or critique document. Interrupted runs pick up where
they left off.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
}

// loadEnvironment builds the config and logger every command starts from.
func loadEnvironment() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Logging.Level)
	return cfg, log, nil
}

func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Data,
		cfg.Paths.Audio,
		cfg.Paths.Subtitles,
		cfg.Paths.Reviews,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
