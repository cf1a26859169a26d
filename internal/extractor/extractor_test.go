package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afiuh/BiliVideoAnalyzer/internal/config"
	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
)

// fakeExecutor simulates the downloader and the recognizer by creating
// the output files their real counterparts would.
type fakeExecutor struct {
	downloadErr   error
	transcribeErr func(id string) error

	calls []string
}

func (e *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	e.calls = append(e.calls, name)

	switch name {
	case "yt-dlp":
		if e.downloadErr != nil {
			return "", e.downloadErr
		}
		out := argAfter(args, "-o")
		if out != "" {
			if err := os.WriteFile(out, []byte("mp3"), 0644); err != nil {
				return "", err
			}
		}
		return "", nil
	default: // the whisper binary
		prefix := argAfter(args, "--output-file")
		id := filepath.Base(prefix)
		if e.transcribeErr != nil {
			if err := e.transcribeErr(id); err != nil {
				return "", err
			}
		}
		return "", os.WriteFile(prefix+".txt", []byte("转写内容"), 0644)
	}
}

func (e *fakeExecutor) Stream(ctx context.Context, onLine func(string), name string, args ...string) error {
	_, err := e.Execute(ctx, name, args...)
	return err
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func testConfig(t *testing.T, ids ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	var entries []string
	for _, id := range ids {
		entries = append(entries, fmt.Sprintf(`{"id":%q,"title":"t","url":"https://example.com/%s"}`, id, id))
	}
	discovery := filepath.Join(dir, "video_urls.json")
	require.NoError(t, os.WriteFile(discovery, []byte("["+strings.Join(entries, ",")+"]"), 0644))

	return &config.Config{
		Paths: config.PathsConfig{
			Audio:     filepath.Join(dir, "audio"),
			Subtitles: filepath.Join(dir, "subtitles"),
			Discovery: discovery,
		},
		Download: config.DownloadConfig{Binary: "yt-dlp", TimeoutSeconds: 60},
		Whisper:  config.WhisperConfig{BinaryPath: "whisper-cli", ModelPath: "model.bin", Language: "zh", Threads: 4, TimeoutSeconds: 60},
	}
}

func newTestSupervisor(cfg *config.Config, exec *fakeExecutor, out *bytes.Buffer) *Supervisor {
	s := New(cfg, exec, logger.New("error"), out)
	s.sleep = func(time.Duration) {}
	return s
}

func TestRunProcessesAllItems(t *testing.T) {
	cfg := testConfig(t, "BV1aa", "BV1bb")
	exec := &fakeExecutor{}
	var out bytes.Buffer

	downloaded, transcribed, err := newTestSupervisor(cfg, exec, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, downloaded)
	assert.Equal(t, 2, transcribed)

	assert.FileExists(t, filepath.Join(cfg.Paths.Subtitles, "BV1aa.txt"))
	assert.FileExists(t, filepath.Join(cfg.Paths.Subtitles, "BV1bb.txt"))

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, MarkerAudioDownloaded))
	assert.Equal(t, 2, strings.Count(text, MarkerTranscriptSaved))
	assert.Contains(t, text, MarkerTranscriptSaved+" BV1aa")
}

func TestRunSkipsExistingTranscripts(t *testing.T) {
	cfg := testConfig(t, "BV1aa", "BV1bb")
	require.NoError(t, os.MkdirAll(cfg.Paths.Subtitles, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.Subtitles, "BV1aa.txt"), []byte("已有"), 0644))

	exec := &fakeExecutor{}
	var out bytes.Buffer

	downloaded, transcribed, err := newTestSupervisor(cfg, exec, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, downloaded)
	assert.Equal(t, 1, transcribed)
	assert.NotContains(t, out.String(), "BV1aa")
}

func TestRunReusesExistingAudio(t *testing.T) {
	cfg := testConfig(t, "BV1aa")
	require.NoError(t, os.MkdirAll(cfg.Paths.Audio, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Paths.Audio, "BV1aa.mp3"), []byte("mp3"), 0644))

	exec := &fakeExecutor{}
	var out bytes.Buffer

	downloaded, transcribed, err := newTestSupervisor(cfg, exec, &out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, downloaded)
	assert.Equal(t, 1, transcribed)

	// Only the recognizer ran; no fresh-download marker.
	assert.NotContains(t, exec.calls, "yt-dlp")
	assert.NotContains(t, out.String(), MarkerAudioDownloaded)
	assert.Contains(t, out.String(), MarkerTranscriptSaved)
}

func TestRunPartialFailure(t *testing.T) {
	cfg := testConfig(t, "BV1aa", "BV1bb")
	exec := &fakeExecutor{
		transcribeErr: func(id string) error {
			if id == "BV1bb" {
				return errors.New("model crashed")
			}
			return nil
		},
	}
	var out bytes.Buffer

	downloaded, transcribed, err := newTestSupervisor(cfg, exec, &out).Run(context.Background())
	assert.ErrorIs(t, err, ErrPartialFailure)
	assert.Equal(t, 2, downloaded)
	assert.Equal(t, 1, transcribed)
}

func TestRunTotalFailure(t *testing.T) {
	cfg := testConfig(t, "BV1aa", "BV1bb")
	exec := &fakeExecutor{downloadErr: errors.New("network down")}
	var out bytes.Buffer

	downloaded, transcribed, err := newTestSupervisor(cfg, exec, &out).Run(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPartialFailure)
	assert.Equal(t, 0, downloaded)
	assert.Equal(t, 0, transcribed)
}

func TestRunRequiresWhisper(t *testing.T) {
	cfg := testConfig(t, "BV1aa")
	cfg.Whisper.BinaryPath = ""

	exec := &fakeExecutor{}
	_, _, err := newTestSupervisor(cfg, exec, &bytes.Buffer{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whisper.binary_path")
	assert.Empty(t, exec.calls, "nothing runs without a recognizer configured")

	cfg = testConfig(t, "BV1aa")
	cfg.Whisper.ModelPath = ""
	_, _, err = newTestSupervisor(cfg, exec, &bytes.Buffer{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whisper.model_path")
}

func TestRunMissingDiscovery(t *testing.T) {
	cfg := testConfig(t, "BV1aa")
	cfg.Paths.Discovery = filepath.Join(t.TempDir(), "nope.json")

	_, _, err := newTestSupervisor(cfg, &fakeExecutor{}, &bytes.Buffer{}).Run(context.Background())
	assert.Error(t, err)
}
