// Package rewrite rebuilds a branch from an ordered list of typed operations
// by replaying commits onto a disposable branch and force-publishing the
// result. Nothing is visible on the real head until every operation succeeds.
package rewrite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/act3-ai/go-common/pkg/logger"

	"github.com/act3-ai/forge/internal/git"
)

// ErrConflict indicates a cherry-pick could not apply cleanly. The error
// names the offending commit; the head ref is left untouched.
var ErrConflict = errors.New("rewrite conflict")

// ErrBadPlan indicates the operation list itself is unusable.
var ErrBadPlan = errors.New("invalid rewrite plan")

// Kind classifies one rewrite operation.
type Kind int

const (
	// Pick replays the commit as-is.
	Pick Kind = iota
	// Reword replays the commit and replaces its message.
	Reword
	// Squash folds the commit's changes into the previous replayed commit.
	Squash
	// Drop omits the commit.
	Drop
)

// Op is one step of a rewrite plan.
type Op struct {
	Kind    Kind
	Commit  string
	Message string // Reword only
}

// committer is the identity recorded on commits this package creates.
// Authorship of the replayed commits is preserved by cherry-pick.
var committer = []string{"-c", "user.name=forge", "-c", "user.email=forge@localhost"}

// Rewrite replays ops onto a disposable branch created from base inside a
// scratch worktree, then force-sets headRef to the result and deletes the
// branch. Returns the new tip. A conflict aborts the cherry-pick, removes the
// scratch state, and returns [ErrConflict] naming the commit; headRef keeps
// its old value.
func Rewrite(ctx context.Context, runner *git.Runner, repoPath, headRef, base string, ops []Op) (string, error) {
	if err := validate(ops); err != nil {
		return "", err
	}
	log := logger.FromContext(ctx)

	branch := "rewrite-" + nonce()
	wtDir := filepath.Join(os.TempDir(), branch)

	if _, err := runner.Run(ctx, repoPath, "worktree", "add", "-b", branch, wtDir, base); err != nil {
		return "", fmt.Errorf("creating scratch worktree: %w", err)
	}
	defer func() {
		// scratch state only, removal failures are not fatal
		ctx := context.WithoutCancel(ctx)
		if _, err := runner.Run(ctx, repoPath, "worktree", "remove", "--force", wtDir); err != nil {
			log.ErrorContext(ctx, "removing scratch worktree", slog.String("dir", wtDir), slog.String("error", err.Error()))
			_ = os.RemoveAll(wtDir)
		}
		if _, err := runner.Run(ctx, repoPath, "branch", "-D", branch); err != nil {
			log.ErrorContext(ctx, "deleting scratch branch", slog.String("branch", branch), slog.String("error", err.Error()))
		}
	}()

	for _, op := range ops {
		if err := apply(ctx, runner, wtDir, op); err != nil {
			return "", err
		}
	}

	tip, err := runner.Run(ctx, wtDir, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolving rewritten tip: %w", err)
	}

	// force-publish, the rewrite intentionally discards the old history
	if _, err := runner.Run(ctx, repoPath, "update-ref", headRef, tip); err != nil {
		return "", fmt.Errorf("publishing %s: %w", headRef, err)
	}

	log.InfoContext(ctx, "rewrote branch", slog.String("ref", headRef), slog.String("tip", tip))
	return tip, nil
}

// apply performs one operation in the scratch worktree.
func apply(ctx context.Context, runner *git.Runner, wtDir string, op Op) error {
	run := func(args ...string) error {
		_, err := runner.Run(ctx, wtDir, append(committer, args...)...)
		return err
	}

	switch op.Kind {
	case Drop:
		return nil

	case Pick:
		if err := run("cherry-pick", "--allow-empty", op.Commit); err != nil {
			return conflict(ctx, runner, wtDir, op.Commit, err)
		}
		return nil

	case Reword:
		if err := run("cherry-pick", "--allow-empty", op.Commit); err != nil {
			return conflict(ctx, runner, wtDir, op.Commit, err)
		}
		if err := run("commit", "--amend", "--allow-empty", "-m", op.Message); err != nil {
			return fmt.Errorf("rewording %s: %w", op.Commit, err)
		}
		return nil

	case Squash:
		if err := run("cherry-pick", "-n", op.Commit); err != nil {
			return conflict(ctx, runner, wtDir, op.Commit, err)
		}
		if err := run("commit", "--amend", "--no-edit", "--allow-empty"); err != nil {
			return fmt.Errorf("squashing %s: %w", op.Commit, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown operation %d", ErrBadPlan, op.Kind)
	}
}

// conflict cleans the sequencer state and wraps the failure with the commit
// that caused it.
func conflict(ctx context.Context, runner *git.Runner, wtDir, commit string, err error) error {
	if _, abortErr := runner.Run(context.WithoutCancel(ctx), wtDir, "cherry-pick", "--abort"); abortErr != nil {
		logger.FromContext(ctx).DebugContext(ctx, "aborting cherry-pick", slog.String("error", abortErr.Error()))
	}
	return fmt.Errorf("%w: applying %s: %w", ErrConflict, commit, err)
}

// validate rejects plans no sequence of operations could satisfy.
func validate(ops []Op) error {
	if len(ops) == 0 {
		return fmt.Errorf("%w: empty plan", ErrBadPlan)
	}
	havePrev := false
	for _, op := range ops {
		switch op.Kind {
		case Drop:
		case Squash:
			if !havePrev {
				return fmt.Errorf("%w: squash of %s has no preceding commit", ErrBadPlan, op.Commit)
			}
		case Pick, Reword:
			havePrev = true
		default:
			return fmt.Errorf("%w: unknown operation %d", ErrBadPlan, op.Kind)
		}
	}
	return nil
}

func nonce() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
