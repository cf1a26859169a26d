// Package review drives the per-item review workflow: a compliance
// pre-check gating into one of two mutually exclusive generation paths
// (standard review or critique), with results persisted item by item.
package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
	"github.com/afiuh/BiliVideoAnalyzer/internal/llm"
	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
	"github.com/afiuh/BiliVideoAnalyzer/internal/store"
)

const unknownTitle = "未知标题"

type Workflow struct {
	store       *store.Store
	client      llm.Client
	log         logger.Logger
	subtitleDir string
	reviewDir   string
	dataDir     string
	maxAttempts int
	backoff     time.Duration
	pause       time.Duration
	sleep       func(time.Duration)
}

// New wires a Workflow over an opened item store.
func New(st *store.Store, client llm.Client, log logger.Logger, cfg *config.Config) *Workflow {
	return &Workflow{
		store:       st,
		client:      client,
		log:         log,
		subtitleDir: cfg.Paths.Subtitles,
		reviewDir:   cfg.Paths.Reviews,
		dataDir:     cfg.Paths.Data,
		maxAttempts: cfg.Review.MaxAttempts,
		backoff:     time.Duration(cfg.Review.BackoffSeconds) * time.Second,
		pause:       time.Duration(cfg.Review.PauseSeconds) * time.Second,
		sleep:       time.Sleep,
	}
}

// Run walks the store and processes every qualifying item that has no
// artifact yet. Items whose remote calls fail after retries are left
// unresolved for the next run; they count as skipped, not failed.
// The returned error is reserved for fatal conditions (persistence).
func (w *Workflow) Run(ctx context.Context) (succeeded, skipped int, err error) {
	if err := os.MkdirAll(w.reviewDir, 0755); err != nil {
		return 0, 0, fmt.Errorf("create review dir: %w", err)
	}

	for _, item := range w.store.Items() {
		if ctx.Err() != nil {
			return succeeded, skipped, ctx.Err()
		}

		if !item.Tier.QualifiesForReview() {
			continue
		}
		if item.Artifact != "" {
			w.log.Debug(ctx, "artifact exists, skipping: %s", item.ID)
			continue
		}

		done, err := w.reviewItem(ctx, item)
		if err != nil {
			return succeeded, skipped, err
		}
		if !done {
			skipped++
			continue
		}
		succeeded++

		w.sleep(w.pause)
	}

	w.log.Info(ctx, "review complete: %d generated, %d left for next run", succeeded, skipped)
	return succeeded, skipped, nil
}

// reviewItem runs the two-step branch for one item. done=false means the
// item was left unresolved (retryable next run); a non-nil error is
// fatal for the whole stage.
func (w *Workflow) reviewItem(ctx context.Context, item store.Item) (done bool, err error) {
	title := item.Title
	if title == "" {
		title = unknownTitle
	}

	raw, err := os.ReadFile(filepath.Join(w.subtitleDir, item.ID+".txt"))
	if err != nil {
		w.log.Warn(ctx, "transcript missing for %s, skipping: %v", item.ID, err)
		return false, nil
	}
	transcript := string(raw)

	w.log.Info(ctx, "reviewing %s (%s): %s", item.ID, item.Tier, title)

	reply, err := w.callWithRetry(ctx, buildStancePrompt(title, transcript))
	if err != nil {
		w.log.Warn(ctx, "compliance pre-check failed for %s, will retry next run: %v", item.ID, err)
		return false, nil
	}

	verdict := parseStanceVerdict(reply)
	if verdict == stanceUnknown {
		w.log.Warn(ctx, "ambiguous compliance verdict for %s, treating as pass: %.80s", item.ID, reply)
	}

	if verdict == stanceFlagged {
		return w.critique(ctx, item, title, transcript)
	}
	return w.standardReview(ctx, item, title, transcript)
}

func (w *Workflow) standardReview(ctx context.Context, item store.Item, title, transcript string) (bool, error) {
	var prompt string
	if strings.HasPrefix(string(item.Tier), "S") {
		prompt = buildSPrompt(title, transcript)
	} else {
		prompt = buildAPrompt(title, transcript)
	}

	reply, err := w.callWithRetry(ctx, prompt)
	if err != nil {
		w.log.Warn(ctx, "review generation failed for %s, will retry next run: %v", item.ID, err)
		return false, nil
	}

	if sub := parseSubTier(reply); sub != "" {
		w.log.Info(ctx, "model declared sub-tier %s for %s", sub, item.ID)
	}

	ref, err := w.writeArtifact(item.ID, reply)
	if err != nil {
		return false, err
	}
	if err := w.store.SetArtifact(item.ID, ref, ""); err != nil {
		return false, err
	}

	w.log.Info(ctx, "review written: %s", ref)
	return true, nil
}

// critique generates the critique document and overrides the tier to X in
// the same persisted write as the artifact pointer.
func (w *Workflow) critique(ctx context.Context, item store.Item, title, transcript string) (bool, error) {
	w.log.Info(ctx, "compliance check flagged %s, generating critique", item.ID)

	reply, err := w.callWithRetry(ctx, buildCritiquePrompt(title, transcript))
	if err != nil {
		w.log.Warn(ctx, "critique generation failed for %s, will retry next run: %v", item.ID, err)
		return false, nil
	}

	ref, err := w.writeArtifact(item.ID, reply)
	if err != nil {
		return false, err
	}
	if err := w.store.SetArtifact(item.ID, ref, scoring.TierX); err != nil {
		return false, err
	}

	w.log.Info(ctx, "critique written, tier set to %s: %s", scoring.TierX, ref)
	return true, nil
}

// writeArtifact renders the docx file and returns its reference relative
// to the data directory.
func (w *Workflow) writeArtifact(id, body string) (string, error) {
	path := filepath.Join(w.reviewDir, id+".docx")
	if err := writeReviewDoc(body, path); err != nil {
		return "", fmt.Errorf("write review document for %s: %w", id, err)
	}

	ref, err := filepath.Rel(w.dataDir, path)
	if err != nil {
		ref = path
	}
	return filepath.ToSlash(ref), nil
}

// callWithRetry calls the remote model with bounded retries and a fixed
// backoff between attempts.
func (w *Workflow) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		reply, err := w.client.Complete(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		w.log.Warn(ctx, "model call failed (attempt %d/%d): %v", attempt, w.maxAttempts, err)
		if attempt < w.maxAttempts {
			w.sleep(w.backoff)
		}
	}
	return "", lastErr
}
