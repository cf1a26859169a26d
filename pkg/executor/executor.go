package executor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

// Execute runs an external command and returns its captured stdout.
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Include stderr in error message for debugging
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// Stream runs an external command and delivers each stdout line to onLine
// as it is produced, without waiting for the command to finish. The
// returned error is the command's termination status; lines already
// delivered remain valid even when the command ultimately fails.
func (e *implExecutor) Stream(ctx context.Context, onLine func(string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("command '%s' stdout pipe: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("command '%s' start: %w", name, err)
	}

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return fmt.Errorf("command '%s' failed: %w", name, err)
	}
	if scanErr != nil {
		return fmt.Errorf("command '%s' read output: %w", name, scanErr)
	}

	return nil
}
