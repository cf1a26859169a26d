package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
	"github.com/afiuh/BiliVideoAnalyzer/internal/extractor"
	"github.com/afiuh/BiliVideoAnalyzer/internal/llm"
	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
	"github.com/afiuh/BiliVideoAnalyzer/internal/review"
	"github.com/afiuh/BiliVideoAnalyzer/internal/scoring"
	"github.com/afiuh/BiliVideoAnalyzer/internal/store"
	"github.com/afiuh/BiliVideoAnalyzer/pkg/executor"
)

// DiscoveryStage invokes the external crawler that produces the discovery
// artifact. When no command is configured the stage only warns; a later
// stage fails fatally if the artifact is really required and absent.
type DiscoveryStage struct {
	cfg  *config.Config
	exec executor.Executor
	log  logger.Logger
}

func NewDiscoveryStage(cfg *config.Config, exec executor.Executor, log logger.Logger) *DiscoveryStage {
	return &DiscoveryStage{cfg: cfg, exec: exec, log: log}
}

func (s *DiscoveryStage) Name() string   { return "discovery" }
func (s *DiscoveryStage) Tolerant() bool { return false }

func (s *DiscoveryStage) Satisfied(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.cfg.Paths.Discovery)
	return err == nil, nil
}

func (s *DiscoveryStage) Run(ctx context.Context) (Result, error) {
	cmd := s.cfg.Discovery.Command
	if len(cmd) == 0 {
		s.log.Warn(ctx, "no discovery command configured, skipping crawl")
		return Result{}, nil
	}

	err := s.exec.Stream(ctx, func(line string) {
		fmt.Println(line)
	}, cmd[0], cmd[1:]...)
	if err != nil {
		return Result{}, fmt.Errorf("discovery command: %w", err)
	}
	return Result{Succeeded: 1}, nil
}

// ExtractStage re-invokes this binary's extract subcommand as a separate
// process and counts the progress markers from its streamed output, so
// partial progress is visible even when the aggregate exit is non-zero.
type ExtractStage struct {
	cfg        *config.Config
	exec       executor.Executor
	log        logger.Logger
	selfPath   string
	configPath string
}

func NewExtractStage(cfg *config.Config, exec executor.Executor, log logger.Logger, selfPath, configPath string) *ExtractStage {
	return &ExtractStage{cfg: cfg, exec: exec, log: log, selfPath: selfPath, configPath: configPath}
}

func (s *ExtractStage) Name() string   { return "extraction" }
func (s *ExtractStage) Tolerant() bool { return true }

func (s *ExtractStage) Satisfied(ctx context.Context) (bool, error) {
	videos, err := extractor.LoadDiscovery(s.cfg.Paths.Discovery)
	if err != nil {
		// Run reports the missing artifact as fatal.
		return false, nil
	}
	for _, v := range videos {
		if _, err := os.Stat(filepath.Join(s.cfg.Paths.Subtitles, v.ID+".txt")); err != nil {
			return false, nil
		}
	}
	return len(videos) > 0, nil
}

func (s *ExtractStage) Run(ctx context.Context) (Result, error) {
	if _, err := os.Stat(s.cfg.Paths.Discovery); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingArtifact, s.cfg.Paths.Discovery)
	}

	downloaded := 0
	transcribed := 0

	err := s.exec.Stream(ctx, func(line string) {
		fmt.Println(line)
		if strings.Contains(line, extractor.MarkerAudioDownloaded) {
			downloaded++
		}
		if strings.Contains(line, extractor.MarkerTranscriptSaved) {
			transcribed++
		}
	}, s.selfPath, "extract", "--config", s.configPath)

	s.log.Info(ctx, "extraction counters: %d audio downloads, %d transcripts", downloaded, transcribed)

	// Items with downloaded audio but no transcript are partial
	// progress: the audio is on disk and the next run resumes from it,
	// so they keep the pipeline alive even when no transcript landed.
	failed := downloaded - transcribed
	if failed < 0 {
		failed = 0
	}
	return Result{Succeeded: transcribed, Failed: failed, Partial: failed}, err
}

// ScoreStage runs the scoring engine over every transcript that has no
// stored tier yet, preserving existing rows and their artifact pointers.
type ScoreStage struct {
	cfg    *config.Config
	log    logger.Logger
	engine *scoring.Engine
}

func NewScoreStage(cfg *config.Config, log logger.Logger, engine *scoring.Engine) *ScoreStage {
	return &ScoreStage{cfg: cfg, log: log, engine: engine}
}

func (s *ScoreStage) Name() string   { return "scoring" }
func (s *ScoreStage) Tolerant() bool { return false }

func (s *ScoreStage) Satisfied(ctx context.Context) (bool, error) {
	if _, err := os.Stat(s.cfg.Paths.Scoreboard); err != nil {
		return false, nil
	}
	st, err := store.Open(s.cfg.Paths.Scoreboard)
	if err != nil {
		return false, err
	}
	defer st.Close()

	ids, err := listTranscripts(s.cfg.Paths.Subtitles)
	if err != nil {
		return false, nil
	}
	for _, id := range ids {
		if !st.HasTier(id) {
			return false, nil
		}
	}
	return len(ids) > 0, nil
}

func (s *ScoreStage) Run(ctx context.Context) (Result, error) {
	ids, err := listTranscripts(s.cfg.Paths.Subtitles)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingArtifact, s.cfg.Paths.Subtitles)
	}
	if len(ids) == 0 {
		return Result{}, fmt.Errorf("%w: no transcripts in %s", ErrMissingArtifact, s.cfg.Paths.Subtitles)
	}

	st, err := store.OpenOrCreate(s.cfg.Paths.Scoreboard)
	if err != nil {
		return Result{}, err
	}
	defer st.Close()

	titles := extractor.Titles(s.cfg.Paths.Discovery)

	var res Result
	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if st.HasTier(id) {
			s.log.Debug(ctx, "already scored, skipping: %s", id)
			continue
		}

		raw, err := os.ReadFile(filepath.Join(s.cfg.Paths.Subtitles, id+".txt"))
		if err != nil {
			s.log.Warn(ctx, "cannot read transcript %s: %v", id, err)
			res.Failed++
			continue
		}

		_, composite, tier := s.engine.Score(string(raw))
		item := store.Item{
			ID:           id,
			Title:        titles[id],
			Information:  composite.Information,
			Rational:     composite.Rational,
			Experiential: composite.Experiential,
			Tier:         tier,
		}
		if err := st.Upsert(item); err != nil {
			// Persistence failure: abort before the in-memory view
			// diverges from disk.
			return res, err
		}
		res.Succeeded++
		s.log.Info(ctx, "scored (%d/%d): %s -> %s", res.Succeeded+res.Failed, len(ids), id, tier)
	}

	return res, nil
}

// ReviewStage runs the review workflow over the item store.
type ReviewStage struct {
	cfg    *config.Config
	log    logger.Logger
	client llm.Client
}

func NewReviewStage(cfg *config.Config, log logger.Logger, client llm.Client) *ReviewStage {
	return &ReviewStage{cfg: cfg, log: log, client: client}
}

func (s *ReviewStage) Name() string   { return "review" }
func (s *ReviewStage) Tolerant() bool { return false }

func (s *ReviewStage) Satisfied(ctx context.Context) (bool, error) {
	st, err := store.Open(s.cfg.Paths.Scoreboard)
	if err != nil {
		return false, nil
	}
	defer st.Close()

	qualifying := 0
	for _, item := range st.Items() {
		if !item.Tier.QualifiesForReview() {
			continue
		}
		qualifying++
		if item.Artifact == "" {
			return false, nil
		}
	}
	return qualifying > 0, nil
}

func (s *ReviewStage) Run(ctx context.Context) (Result, error) {
	if _, err := os.Stat(s.cfg.Paths.Scoreboard); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrMissingArtifact, s.cfg.Paths.Scoreboard)
	}

	st, err := store.Open(s.cfg.Paths.Scoreboard)
	if err != nil {
		return Result{}, err
	}
	defer st.Close()

	wf := review.New(st, s.client, s.log, s.cfg)
	succeeded, skipped, err := wf.Run(ctx)
	if err != nil {
		return Result{Succeeded: succeeded, Failed: skipped}, err
	}

	if succeeded > 0 {
		if backup, err := st.Backup(s.cfg.Paths.Backups); err != nil {
			s.log.Warn(ctx, "store backup failed: %v", err)
		} else {
			s.log.Info(ctx, "store backed up to %s", backup)
		}
	}

	return Result{Succeeded: succeeded, Failed: skipped}, nil
}

// listTranscripts returns the sorted item ids that have a transcript
// file.
func listTranscripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			ids = append(ids, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		}
	}
	sort.Strings(ids)
	return ids, nil
}
