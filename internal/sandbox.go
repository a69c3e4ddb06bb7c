package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds a sandboxed run unless the caller says otherwise.
	DefaultTimeout = 30 * time.Second
	// DefaultOutputCap bounds captured stdout/stderr, each.
	DefaultOutputCap = 64 * 1024
)

// interpreters maps file extensions to the command that runs them.
var interpreters = map[string][]string{
	".py":  {"python3"},
	".sh":  {"sh"},
	".js":  {"node"},
	".go":  {"go", "run"},
	".rb":  {"ruby"},
	".pl":  {"perl"},
	".lua": {"lua"},
}

// InterpreterFor infers the command for a file from its language tag or,
// failing that, its extension.
func InterpreterFor(path, language string) ([]string, error) {
	if ext, ok := languageExtensions[language]; ok {
		if argv, ok := interpreters[ext]; ok {
			return argv, nil
		}
	}
	if argv, ok := interpreters[filepath.Ext(path)]; ok {
		return argv, nil
	}
	return nil, fmt.Errorf("no interpreter known for %s", filepath.Base(path))
}

// Result is the outcome of one sandboxed execution. It is always appended
// to the log as a tool message, never silently discarded.
type Result struct {
	RunID      string   `json:"run_id"`
	Command    []string `json:"command"`
	ExitCode   int      `json:"exit_code"`
	Stdout     string   `json:"stdout"`
	Stderr     string   `json:"stderr"`
	DurationMS int64    `json:"duration_ms"`
	TimedOut   bool     `json:"timed_out"`
	Verified   *bool    `json:"verified,omitempty"`
}

// Message renders the result as a tool-role log message.
func (r *Result) Message() Message {
	content, err := json.Marshal(r)
	if err != nil {
		content = []byte(fmt.Sprintf(`{"run_id":%q,"exit_code":%d}`, r.RunID, r.ExitCode))
	}
	return NewMessage(RoleTool, string(content))
}

// Ok reports whether the run completed in time with a zero exit.
func (r *Result) Ok() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Runner executes workspace files as bounded subprocesses. The working
// directory is pinned to the workspace root, the lifetime is bounded by
// Timeout (on expiry the whole process group is killed, since the target
// cannot be trusted to self-terminate), and captured output is capped at
// OutputCap bytes per stream.
type Runner struct {
	ws        *Workspace
	Timeout   time.Duration
	OutputCap int
}

// NewRunner creates a runner over a workspace with default bounds.
func NewRunner(ws *Workspace) *Runner {
	return &Runner{ws: ws, Timeout: DefaultTimeout, OutputCap: DefaultOutputCap}
}

// Run executes the file at path inside the workspace. command overrides the
// inferred interpreter when non-empty; verify, when non-empty, is run as a
// second check command whose pass/fail is recorded without ever replacing
// the primary result.
func (r *Runner) Run(ctx context.Context, path, language string, command, verify []string) (*Result, error) {
	resolved, err := r.ws.Resolve(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(resolved); err != nil {
		return nil, fmt.Errorf("cannot execute %s: %w", path, err)
	}

	argv := command
	if len(argv) == 0 {
		argv, err = InterpreterFor(resolved, language)
		if err != nil {
			return nil, err
		}
	}
	argv = append(append([]string{}, argv...), resolved)

	result, err := r.runArgv(ctx, argv)
	if err != nil {
		return nil, err
	}

	if len(verify) > 0 {
		check, err := r.runArgv(ctx, verify)
		if err != nil {
			LogWarn("verify command failed to start: %v", err)
		} else {
			pass := check.Ok()
			result.Verified = &pass
		}
	}

	return result, nil
}

// runArgv spawns one bounded subprocess rooted at the workspace.
func (r *Runner) runArgv(ctx context.Context, argv []string) (*Result, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = r.ws.Root()
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = 2 * time.Second

	stdout := newCappedBuffer(r.OutputCap)
	stderr := newCappedBuffer(r.OutputCap)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	result := &Result{
		RunID:      uuid.NewString(),
		Command:    argv,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: duration.Milliseconds(),
		TimedOut:   runCtx.Err() == context.DeadlineExceeded,
	}

	switch {
	case result.TimedOut:
		result.ExitCode = -1
		LogWarn("run %s timed out after %s: %v", result.RunID, timeout, argv)
	case runErr == nil:
		result.ExitCode = 0
	default:
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("failed to run %v: %w", argv, runErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	LogDebug("run %s finished: exit=%d timedout=%v duration=%s", result.RunID, result.ExitCode, result.TimedOut, duration)
	return result, nil
}

// cappedBuffer keeps at most cap bytes and swallows the rest, so a noisy
// child cannot grow memory without bound.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	if limit <= 0 {
		limit = DefaultOutputCap
	}
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n...[truncated]"
	}
	return b.buf.String()
}
