package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecute(t *testing.T) {
	exec := New()

	out, err := exec.Execute(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("Execute() output = %q, want to contain %q", out, "hello")
	}
}

func TestExecuteCommandNotFound(t *testing.T) {
	exec := New()

	if _, err := exec.Execute(context.Background(), "definitely-not-a-command-xyz"); err == nil {
		t.Error("Execute() expected error for missing command")
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	exec := New()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := exec.Execute(ctx, "sleep", "5"); err == nil {
		t.Error("Execute() expected error for cancelled context")
	}
}

func TestStream(t *testing.T) {
	exec := New()

	var lines []string
	err := exec.Stream(context.Background(), func(line string) {
		lines = append(lines, line)
	}, "sh", "-c", "echo one; echo two")
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("Stream() lines = %v, want [one two]", lines)
	}
}

func TestStreamFailingCommand(t *testing.T) {
	exec := New()

	var lines []string
	err := exec.Stream(context.Background(), func(line string) {
		lines = append(lines, line)
	}, "sh", "-c", "echo partial; exit 3")
	if err == nil {
		t.Fatal("Stream() expected error for non-zero exit")
	}
	if len(lines) != 1 || lines[0] != "partial" {
		t.Errorf("Stream() lines = %v, want [partial]", lines)
	}
}
