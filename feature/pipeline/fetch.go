package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Fetcher refreshes the raw batches before a run.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// CommandFetcher runs a shell command, such as a download script.
type CommandFetcher struct {
	Command string
	Dir     string
	Log     *zap.Logger
}

// maxOutputTail limits how much command output ends up in errors.
const maxOutputTail = 2048

// Fetch implements Fetcher.
func (f *CommandFetcher) Fetch(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", f.Command)
	cmd.Dir = f.Dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("fetch command failed: %w: %s", err, tail(string(out)))
	}
	if f.Log != nil {
		f.Log.Info("Schedules downloaded", zap.String("command", f.Command))
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutputTail {
		return "..." + s[len(s)-maxOutputTail:]
	}
	return s
}
