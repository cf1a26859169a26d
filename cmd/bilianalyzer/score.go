package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afiuh/BiliVideoAnalyzer/internal/pipeline"
	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
)

// scoreCmd runs only the scoring stage: every transcript without a
// stored tier gets scored and written to the scoreboard.
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score transcripts into quality tiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOrBackground(cmd.Context())

		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}

		engine, err := scoring.New(cfg.Scoring)
		if err != nil {
			return fmt.Errorf("init scoring engine: %w", err)
		}

		stage := pipeline.NewScoreStage(cfg, log, engine)
		res, err := stage.Run(ctx)
		if err != nil {
			return err
		}

		log.Info(ctx, "scoring done: %d scored, %d failed", res.Succeeded, res.Failed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
