package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
)

var (
	cleanAudio     bool
	cleanSubtitles bool
	cleanAll       bool
)

// cleanupCmd reclaims disk space by deleting heavy intermediate files.
// The scoreboard and the generated review documents are never touched.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete downloaded audio and/or transcript files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOrBackground(cmd.Context())

		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}

		if cleanAll {
			cleanAudio = true
			cleanSubtitles = true
		}
		if !cleanAudio && !cleanSubtitles {
			return fmt.Errorf("nothing selected: pass --audio, --subtitles or --all")
		}

		if cleanAudio {
			if err := removeFiles(ctx, log, cfg.Paths.Audio, "audio"); err != nil {
				return err
			}
		}
		if cleanSubtitles {
			if err := removeFiles(ctx, log, cfg.Paths.Subtitles, "transcript"); err != nil {
				return err
			}
		}
		return nil
	},
}

func removeFiles(ctx context.Context, log logger.Logger, dir, kind string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info(ctx, "%s directory %s does not exist, skipping", kind, dir)
			return nil
		}
		return fmt.Errorf("read %s directory: %w", kind, err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			log.Warn(ctx, "failed to delete %s: %v", path, err)
			continue
		}
		removed++
	}

	log.Info(ctx, "deleted %d %s files from %s", removed, kind, dir)
	return nil
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanAudio, "audio", false, "Delete downloaded audio files")
	cleanupCmd.Flags().BoolVar(&cleanSubtitles, "subtitles", false, "Delete transcript files")
	cleanupCmd.Flags().BoolVar(&cleanAll, "all", false, "Delete both audio and transcript files")
}
