package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afiuh/BiliVideoAnalyzer/internal/llm"
	"github.com/afiuh/BiliVideoAnalyzer/internal/pipeline"
)

// reviewCmd runs only the review stage over the existing scoreboard.
var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Generate AI review or critique documents for qualifying items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOrBackground(cmd.Context())

		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}

		client, err := llm.New(cfg.LLM)
		if err != nil {
			return fmt.Errorf("init llm client: %w", err)
		}

		stage := pipeline.NewReviewStage(cfg, log, client)
		res, err := stage.Run(ctx)
		if err != nil {
			return err
		}

		log.Info(ctx, "review done: %d generated, %d pending", res.Succeeded, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
