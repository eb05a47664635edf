package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/MangalamGSinha/DockSuiteX/internal/model"
)

// Failure kinds for external tool invocations. They map one-to-one onto the
// job error kinds recorded in batch results.
const (
	ErrKindStart         = model.ErrKindEngineStart
	ErrKindTimeout       = model.ErrKindEngineTimeout
	ErrKindExit          = model.ErrKindEngineExit
	ErrKindOutputMissing = model.ErrKindOutputMissing
)

// Error is a tagged failure from one external tool invocation.
type Error struct {
	Kind string
	Tool string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tool, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tool, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// RunOutput captures what an external tool produced.
type RunOutput struct {
	Stdout string
	Stderr string
}

// RunTool executes one external binary to completion with captured output.
// dir, when set, becomes the working directory (autogrid/autodock resolve map
// files relative to it). timeout zero means no supervisory bound.
func RunTool(ctx context.Context, tool, bin string, args []string, dir string, timeout time.Duration) (RunOutput, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return RunOutput{}, &Error{Kind: ErrKindStart, Tool: tool, Msg: "failed to start", Err: err}
	}
	err := cmd.Wait()
	out := RunOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return out, &Error{Kind: ErrKindTimeout, Tool: tool, Msg: fmt.Sprintf("timed out after %s", timeout)}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, &Error{
			Kind: ErrKindExit,
			Tool: tool,
			Msg:  fmt.Sprintf("exit code %d: %s", exitErr.ExitCode(), tailOf(out.Stderr, out.Stdout)),
		}
	}
	return out, &Error{Kind: ErrKindStart, Tool: tool, Msg: "failed to run", Err: err}
}

// tailOf keeps error messages readable: the last few lines of whichever
// stream the tool actually complained on.
func tailOf(streams ...string) string {
	for _, s := range streams {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		lines := strings.Split(s, "\n")
		if len(lines) > 6 {
			lines = lines[len(lines)-6:]
		}
		return truncate(strings.TrimSpace(strings.Join(lines, "\n")), 1200)
	}
	return "no output"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
