// Package sshgate dispatches authenticated SSH exec requests to the smart
// protocol handlers. The SSH server itself (key exchange, key lookup) is an
// external collaborator; it hands this package the already-authenticated user
// and the exec line the client requested.
package sshgate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/act3-ai/go-common/pkg/logger"

	"github.com/act3-ai/forge/internal/git"
	"github.com/act3-ai/forge/internal/repocache"
	"github.com/act3-ai/forge/internal/transport"
)

// ErrBadExecLine indicates an exec request this gate does not serve.
var ErrBadExecLine = errors.New("unsupported exec line")

// ErrAccessDenied indicates the authorizer rejected the request.
var ErrAccessDenied = errors.New("access denied")

// Authorizer answers whether userID may read (write=false) or push
// (write=true) a repository. Only the verdict is consumed.
type Authorizer func(ctx context.Context, userID, owner, name string, write bool) (bool, error)

// PushObserver reacts to a completed push, e.g. triggering downstream
// analysis, workflow execution, or storage resynchronization. refLines holds
// one "<old> <new> <ref>" triple per ref that was updated.
type PushObserver interface {
	OnPush(ctx context.Context, userID, repoPath string, refLines []string) error
}

// ExecRequest is a parsed SSH exec line.
type ExecRequest struct {
	Service string
	Owner   string
	Name    string
}

// ParseExecLine splits an exec request like
//
//	git-receive-pack 'alice/widgets.git'
//
// into its service and repository parts.
func ParseExecLine(line string) (ExecRequest, error) {
	service, rest, ok := strings.Cut(strings.TrimSpace(line), " ")
	if !ok {
		return ExecRequest{}, fmt.Errorf("%w: %q", ErrBadExecLine, line)
	}
	if service != transport.UploadPackService && service != transport.ReceivePackService {
		return ExecRequest{}, fmt.Errorf("%w: service %q", ErrBadExecLine, service)
	}

	repo := strings.TrimSpace(rest)
	repo = strings.Trim(repo, "'\"")
	repo = strings.TrimPrefix(repo, "/")
	repo = strings.TrimSuffix(repo, ".git")

	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return ExecRequest{}, fmt.Errorf("%w: repository %q", ErrBadExecLine, rest)
	}
	if strings.Contains(repo, "..") {
		return ExecRequest{}, fmt.Errorf("%w: repository %q", ErrBadExecLine, rest)
	}

	return ExecRequest{Service: service, Owner: owner, Name: name}, nil
}

// Gate serves parsed exec requests against cached repositories.
type Gate struct {
	Runner    *git.Runner
	Cache     repocache.Cache
	Receiver  *transport.Receiver
	Authorize Authorizer

	// Observers run in order after every push that updated at least one
	// ref. An observer error stops the chain and is returned, never
	// swallowed.
	Observers []PushObserver
}

// Exec runs one SSH session's service: it authorizes, writes the ref
// advertisement, and bridges the session's streams to the protocol handler.
func (g *Gate) Exec(ctx context.Context, userID, line string, stdin io.Reader, stdout io.Writer) error {
	req, err := ParseExecLine(line)
	if err != nil {
		return err
	}

	write := req.Service == transport.ReceivePackService
	ok, err := g.Authorize(ctx, userID, req.Owner, req.Name, write)
	if err != nil {
		return fmt.Errorf("authorizing %s for %s/%s: %w", userID, req.Owner, req.Name, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrAccessDenied, req.Owner, req.Name)
	}

	repoPath, err := g.Cache.Acquire(ctx, req.Owner, req.Name)
	if err != nil {
		return fmt.Errorf("acquiring repository %s/%s: %w", req.Owner, req.Name, err)
	}

	modified := false
	defer func() {
		if err := g.Cache.Release(context.WithoutCancel(ctx), req.Owner, req.Name, modified); err != nil {
			logger.FromContext(ctx).ErrorContext(ctx, "releasing repository",
				slog.String("owner", req.Owner), slog.String("name", req.Name), slog.String("error", err.Error()))
		}
	}()

	if !write {
		// over SSH the native subprocess speaks the whole stateful fetch
		// protocol itself, advertisement included
		return g.Runner.Exec(ctx, git.ExecSpec{
			Args:   []string{"upload-pack", repoPath},
			Stdin:  stdin,
			Stdout: stdout,
		})
	}

	if err := transport.Advertisement(ctx, g.Runner, repoPath, req.Service, stdout); err != nil {
		return err
	}

	statuses, err := g.Receiver.Serve(ctx, repoPath, repocache.StoragePath(req.Owner, req.Name), stdin, stdout)
	if err != nil {
		return err
	}

	var refLines []string
	for _, st := range statuses {
		if st.OK() {
			refLines = append(refLines, st.Command.String())
		}
	}
	modified = len(refLines) > 0
	if !modified {
		return nil
	}

	return g.notify(ctx, userID, repoPath, refLines)
}

// notify invokes every registered observer in order.
func (g *Gate) notify(ctx context.Context, userID, repoPath string, refLines []string) error {
	log := logger.FromContext(ctx)
	for _, obs := range g.Observers {
		if err := obs.OnPush(ctx, userID, repoPath, refLines); err != nil {
			log.ErrorContext(ctx, "push observer failed",
				slog.String("user", userID), slog.String("repo", repoPath), slog.String("error", err.Error()))
			return fmt.Errorf("push observer: %w", err)
		}
	}
	return nil
}
