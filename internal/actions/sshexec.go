package actions

import (
	"context"
	"fmt"
	"io"

	"github.com/act3-ai/forge/internal/git"
	"github.com/act3-ai/forge/internal/sshgate"
	"github.com/act3-ai/forge/internal/transport"
)

// SSHExec bridges one SSH session to the transport core, the way a forced
// command or an sshd front end invokes the binary per connection.
type SSHExec struct {
	*Forge

	// UserID is the authenticated user, supplied by the SSH front end.
	UserID string

	// ExecLine is the client's exec request, e.g. from SSH_ORIGINAL_COMMAND.
	ExecLine string
}

// NewSSHExec creates a new ssh-exec action.
func NewSSHExec(forge *Forge) *SSHExec {
	return &SSHExec{Forge: forge}
}

// Run serves the session on the given streams.
func (action *SSHExec) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	cfg, err := action.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("getting configuration: %w", err)
	}

	store, cache, err := buildStorage(cfg)
	if err != nil {
		return fmt.Errorf("initializing storage backend: %w", err)
	}

	runner := git.NewRunner()
	gate := &sshgate.Gate{
		Runner:   runner,
		Cache:    cache,
		Receiver: transport.NewReceiver(runner, store),
		Authorize: func(context.Context, string, string, string, bool) (bool, error) {
			// the front end already authenticated and authorized the session
			return true, nil
		},
	}

	return gate.Exec(ctx, action.UserID, action.ExecLine, stdin, stdout)
}
