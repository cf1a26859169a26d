// Package pipeline sequences the fixed stage list over the item
// collection, skipping already-satisfied work and deciding whether a
// stage failure is fatal or tolerable.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
)

// ErrMissingArtifact reports a stage whose required input artifact does
// not exist. Always fatal; the run must not silently skip forward.
var ErrMissingArtifact = errors.New("missing required input artifact")

// Result aggregates per-item outcomes of one stage run.
type Result struct {
	Succeeded int
	Failed    int

	// Partial counts items that fell short of their final artifact but
	// left persisted intermediate output a later run picks up, such as
	// downloaded audio awaiting transcription.
	Partial int
}

// Stage is one phase of the pipeline.
type Stage interface {
	Name() string

	// Satisfied reports whether the stage's declared artifact already
	// exists for all required items, in which case the stage is skipped.
	Satisfied(ctx context.Context) (bool, error)

	// Tolerant reports whether a failing run that still produced partial
	// results lets the pipeline continue.
	Tolerant() bool

	Run(ctx context.Context) (Result, error)
}

// Runner executes stages in their fixed order.
type Runner struct {
	stages []Stage
	log    logger.Logger
}

func NewRunner(log logger.Logger, stages ...Stage) *Runner {
	return &Runner{stages: stages, log: log}
}

// Run walks the stage list. A stage error aborts the run unless the
// stage is tolerant and made progress, either completed items or
// persisted partial output; those failures are reported and the next
// stage proceeds.
func (r *Runner) Run(ctx context.Context) error {
	for _, stage := range r.stages {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		satisfied, err := stage.Satisfied(ctx)
		if err != nil {
			return fmt.Errorf("stage %s: check artifacts: %w", stage.Name(), err)
		}
		if satisfied {
			r.log.Info(ctx, "stage %s: artifacts up to date, skipping", stage.Name())
			continue
		}

		r.log.Info(ctx, "stage %s: starting", stage.Name())
		res, err := stage.Run(ctx)
		if err != nil {
			if errors.Is(err, ErrMissingArtifact) || !stage.Tolerant() || res.Succeeded+res.Partial == 0 {
				return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
			}
			r.log.Warn(ctx, "stage %s exited with error after %d successes, %d partial (%d failures), continuing: %v",
				stage.Name(), res.Succeeded, res.Partial, res.Failed, err)
			continue
		}
		r.log.Info(ctx, "stage %s: completed (%d succeeded, %d failed)", stage.Name(), res.Succeeded, res.Failed)
	}
	return nil
}
