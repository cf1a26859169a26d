package main

import (
	"context"
	"fmt"
	"os"

	"github.com/afiuh/BiliVideoAnalyzer/internal/llm"
	"github.com/afiuh/BiliVideoAnalyzer/internal/pipeline"
	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
	"github.com/afiuh/BiliVideoAnalyzer/pkg/executor"
)

// runPipeline wires all stages and executes them in order.
func runPipeline(ctx context.Context) error {
	ctx = contextOrBackground(ctx)

	cfg, log, err := loadEnvironment()
	if err != nil {
		return err
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Video Quality Review Pipeline")
	log.Info(ctx, "========================================")

	if err := ensureDirectories(cfg); err != nil {
		return err
	}

	engine, err := scoring.New(cfg.Scoring)
	if err != nil {
		return fmt.Errorf("init scoring engine: %w", err)
	}

	client, err := llm.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	exec := executor.New()
	runner := pipeline.NewRunner(log,
		pipeline.NewDiscoveryStage(cfg, exec, log),
		pipeline.NewExtractStage(cfg, exec, log, self, configPath),
		pipeline.NewScoreStage(cfg, log, engine),
		pipeline.NewReviewStage(cfg, log, client),
	)

	if err := runner.Run(ctx); err != nil {
		return err
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Pipeline finished")
	log.Info(ctx, "  Scoreboard: %s", cfg.Paths.Scoreboard)
	log.Info(ctx, "  Reviews:    %s", cfg.Paths.Reviews)
	log.Info(ctx, "  Transcripts: %s", cfg.Paths.Subtitles)
	log.Info(ctx, "========================================")
	return nil
}
