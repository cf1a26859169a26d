package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/afiuh/BiliVideoAnalyzer/internal/extractor"
	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
	"github.com/afiuh/BiliVideoAnalyzer/internal/store"
	"github.com/afiuh/BiliVideoAnalyzer/internal/watcher"
)

// watchCmd keeps the scoreboard current while transcripts trickle in:
// each new transcript file is scored and upserted as soon as it appears.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the transcript directory and score new transcripts incrementally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		if err := ensureDirectories(cfg); err != nil {
			return err
		}

		engine, err := scoring.New(cfg.Scoring)
		if err != nil {
			return fmt.Errorf("init scoring engine: %w", err)
		}

		st, err := store.OpenOrCreate(cfg.Paths.Scoreboard)
		if err != nil {
			return err
		}
		defer st.Close()

		handler := func(ctx context.Context, path string) error {
			id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if st.HasTier(id) {
				log.Debug(ctx, "already scored, skipping: %s", id)
				return nil
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			_, composite, tier := engine.Score(string(raw))
			item := store.Item{
				ID:           id,
				Information:  composite.Information,
				Rational:     composite.Rational,
				Experiential: composite.Experiential,
				Tier:         tier,
			}
			if title := extractor.Titles(cfg.Paths.Discovery); title != nil {
				item.Title = title[id]
			}
			if err := st.Upsert(item); err != nil {
				return err
			}

			log.Info(ctx, "scored: %s -> %s", id, tier)
			return nil
		}

		w, err := watcher.New(cfg.Paths.Subtitles, handler, log)
		if err != nil {
			return err
		}
		defer w.Stop()

		ctx, cancel := context.WithCancel(contextOrBackground(cmd.Context()))
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			if err := w.Start(ctx); err != nil && err != context.Canceled {
				errChan <- err
			}
		}()

		log.Info(ctx, "watch mode ready, press Ctrl+C to stop")

		select {
		case <-sigChan:
			log.Info(ctx, "shutdown signal received")
		case err := <-errChan:
			return err
		}

		cancel()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
