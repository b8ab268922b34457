// Package git runs the native git toolchain as a subprocess. Object
// validation and packing is delegated to git itself, this package is the
// orchestration layer around it.
package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/act3-ai/go-common/pkg/logger"
)

// DefaultTimeout bounds a git invocation whose context carries no deadline.
const DefaultTimeout = 5 * time.Minute

// Runner invokes git subcommands with bounded execution time.
type Runner struct {
	// GitPath is the git executable, resolved from PATH when empty.
	GitPath string

	// Timeout applies when the caller's context has no deadline.
	Timeout time.Duration
}

// NewRunner returns a [Runner] with default settings.
func NewRunner() *Runner {
	return &Runner{}
}

// ExecSpec describes one streaming git invocation.
type ExecSpec struct {
	// Dir is the working directory, typically the bare repository path.
	Dir string

	// Args are the git arguments, excluding the leading "git".
	Args []string

	// Stdin, Stdout are connected directly to the subprocess so that
	// backpressure is the natural pipe backpressure. Either may be nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run executes a git subcommand and returns its whitespace-trimmed stdout.
func (r *Runner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	var stdout bytes.Buffer
	err := r.Exec(ctx, ExecSpec{Dir: dir, Args: args, Stdout: &stdout})
	return strings.TrimSpace(stdout.String()), err
}

// RunWithInput executes a git subcommand with input on stdin and returns its
// whitespace-trimmed stdout.
func (r *Runner) RunWithInput(ctx context.Context, dir, input string, args ...string) (string, error) {
	var stdout bytes.Buffer
	err := r.Exec(ctx, ExecSpec{Dir: dir, Args: args, Stdin: strings.NewReader(input), Stdout: &stdout})
	return strings.TrimSpace(stdout.String()), err
}

// Exec executes one git invocation per spec, streaming stdin and stdout
// without buffering. Stderr is always captured for error reporting. The
// subprocess is killed when the context expires; a non-zero exit yields an
// [*ExitError].
func (r *Runner) Exec(ctx context.Context, spec ExecSpec) error {
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	gitPath := r.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	cmd := exec.CommandContext(ctx, gitPath, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log := logger.FromContext(ctx)
	log.DebugContext(ctx, "executing git", slog.Any("args", spec.Args), slog.String("dir", spec.Dir))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &ExitError{Args: spec.Args, Stderr: stderr.String(), Err: ctxErr}
		}
		return &ExitError{Args: spec.Args, Stderr: stderr.String(), Err: err}
	}

	return nil
}

// PackDir returns the object-pack directory of a bare repository.
func PackDir(repoPath string) string {
	return filepath.Join(repoPath, "objects", "pack")
}

// ExitError reports a git subcommand that exited non-zero or was killed.
type ExitError struct {
	Args   []string
	Stderr string
	Err    error
}

// Error implements error.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Unwrap exposes the underlying exec or context error.
func (e *ExitError) Unwrap() error {
	return e.Err
}
