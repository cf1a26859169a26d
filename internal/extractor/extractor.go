// Package extractor downloads audio and transcribes it to text, one
// isolated external process per item, so a crash or hang inside one
// item's workload cannot take down the rest of the batch.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
	"github.com/afiuh/BiliVideoAnalyzer/pkg/executor"
)

// Progress markers emitted on stdout, one line per completed unit. The
// orchestrator counts these while the extraction subprocess is still
// running.
const (
	MarkerAudioDownloaded = "audio downloaded:"
	MarkerTranscriptSaved = "transcript saved:"
)

// ErrPartialFailure reports a run where some items failed but at least
// one transcript was produced. The orchestrator treats it as tolerable.
var ErrPartialFailure = errors.New("some items failed")

// Supervisor runs the extraction batch sequentially, spawning the
// download and transcription workers per item.
type Supervisor struct {
	cfg   *config.Config
	exec  executor.Executor
	log   logger.Logger
	out   io.Writer
	sleep func(time.Duration)
}

// New creates a Supervisor writing progress markers to out.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger, out io.Writer) *Supervisor {
	return &Supervisor{
		cfg:   cfg,
		exec:  exec,
		log:   log,
		out:   out,
		sleep: time.Sleep,
	}
}

// Run processes every discovered item that has no transcript yet.
// It returns the downloaded/transcribed counts; the error is
// ErrPartialFailure when some items failed but work was done, or a plain
// error when nothing succeeded at all.
func (s *Supervisor) Run(ctx context.Context) (downloaded, transcribed int, err error) {
	// Whisper is required here and nowhere else; scoring and review
	// over existing transcripts run without it.
	if s.cfg.Whisper.BinaryPath == "" {
		return 0, 0, fmt.Errorf("whisper.binary_path is required for extraction")
	}
	if s.cfg.Whisper.ModelPath == "" {
		return 0, 0, fmt.Errorf("whisper.model_path is required for extraction")
	}

	videos, err := LoadDiscovery(s.cfg.Paths.Discovery)
	if err != nil {
		return 0, 0, err
	}

	for _, dir := range []string{s.cfg.Paths.Audio, s.cfg.Paths.Subtitles} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, 0, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	attempted := 0
	failures := 0

	for _, v := range videos {
		if ctx.Err() != nil {
			return downloaded, transcribed, ctx.Err()
		}

		subtitlePath := filepath.Join(s.cfg.Paths.Subtitles, v.ID+".txt")
		if _, err := os.Stat(subtitlePath); err == nil {
			s.log.Debug(ctx, "transcript exists, skipping: %s", v.ID)
			continue
		}

		attempted++
		s.log.Info(ctx, "processing item %s", v.ID)

		audioPath, fresh, err := s.downloadAudio(ctx, v)
		if err != nil {
			s.log.Warn(ctx, "download failed for %s: %v", v.ID, err)
			failures++
			continue
		}
		if fresh {
			fmt.Fprintf(s.out, "%s %s\n", MarkerAudioDownloaded, v.ID)
		}
		downloaded++

		if err := s.transcribe(ctx, audioPath, v.ID); err != nil {
			s.log.Warn(ctx, "transcription failed for %s: %v", v.ID, err)
			failures++
			continue
		}
		fmt.Fprintf(s.out, "%s %s\n", MarkerTranscriptSaved, v.ID)
		transcribed++

		// Let the recognizer's resources settle before the next item.
		s.sleep(time.Duration(s.cfg.Download.PauseSeconds) * time.Second)
	}

	s.log.Info(ctx, "extraction finished: %d downloaded, %d transcribed, %d failed", downloaded, transcribed, failures)

	if failures > 0 {
		if transcribed == 0 {
			return downloaded, transcribed, fmt.Errorf("no transcripts produced (%d of %d items failed)", failures, attempted)
		}
		return downloaded, transcribed, fmt.Errorf("%w: %d of %d items", ErrPartialFailure, failures, attempted)
	}
	return downloaded, transcribed, nil
}

// downloadAudio fetches the item's audio track as mp3 inside its own
// process with a hard wall-clock ceiling. Existing audio is reused.
func (s *Supervisor) downloadAudio(ctx context.Context, v Video) (path string, fresh bool, err error) {
	audioPath := filepath.Join(s.cfg.Paths.Audio, v.ID+".mp3")
	if _, err := os.Stat(audioPath); err == nil {
		s.log.Debug(ctx, "audio exists, reusing: %s", audioPath)
		return audioPath, false, nil
	}

	url := v.URL
	if url == "" {
		url = "https://www.bilibili.com/video/" + v.ID
	}

	args := []string{
		"-x", "--audio-format", "mp3",
		"-o", audioPath,
	}
	if s.cfg.Download.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", s.cfg.Download.FFmpegLocation)
	}
	args = append(args, url)

	dlCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Download.TimeoutSeconds)*time.Second)
	defer cancel()

	if _, err := s.exec.Execute(dlCtx, s.cfg.Download.Binary, args...); err != nil {
		if dlCtx.Err() == context.DeadlineExceeded {
			return "", false, fmt.Errorf("download timed out after %ds", s.cfg.Download.TimeoutSeconds)
		}
		return "", false, fmt.Errorf("download audio: %w", err)
	}

	return audioPath, true, nil
}

// transcribe runs the speech recognizer on the audio file. Each call is a
// fresh process that loads its own model and exits, keeping items
// isolated from each other's crashes.
func (s *Supervisor) transcribe(ctx context.Context, audioPath, id string) error {
	outputPrefix := filepath.Join(s.cfg.Paths.Subtitles, id)

	args := []string{
		"-m", s.cfg.Whisper.ModelPath,
		"-f", audioPath,
		"-l", s.cfg.Whisper.Language,
		"-t", fmt.Sprintf("%d", s.cfg.Whisper.Threads),
		"-otxt",
		"--output-file", outputPrefix,
	}

	trCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Whisper.TimeoutSeconds)*time.Second)
	defer cancel()

	if _, err := s.exec.Execute(trCtx, s.cfg.Whisper.BinaryPath, args...); err != nil {
		if trCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("transcription timed out after %ds", s.cfg.Whisper.TimeoutSeconds)
		}
		return fmt.Errorf("whisper transcribe: %w", err)
	}

	return nil
}
