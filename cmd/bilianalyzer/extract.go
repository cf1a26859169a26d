package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/afiuh/BiliVideoAnalyzer/internal/extractor"
	"github.com/afiuh/BiliVideoAnalyzer/pkg/executor"
)

// extractCmd is the extraction worker supervisor. The orchestrator
// re-invokes it as a subprocess and counts the progress markers it
// prints; it can also be run standalone.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Download audio and transcribe discovered videos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOrBackground(cmd.Context())

		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}

		sup := extractor.New(cfg, executor.New(), log, os.Stdout)
		downloaded, transcribed, err := sup.Run(ctx)
		if err != nil {
			// A partial failure still exits non-zero; the orchestrator's
			// tolerance policy decides whether the run continues based on
			// the markers already printed.
			return err
		}

		fmt.Printf("extraction complete: %d downloaded, %d transcribed\n", downloaded, transcribed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
