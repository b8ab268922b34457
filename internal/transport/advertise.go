package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/act3-ai/forge/internal/git"
	"github.com/act3-ai/forge/pkg/protocol/wire"
)

// AdvertiseRefs answers the smart-HTTP discovery request: one pkt-line
// announcing the service, a flush, then the native advertisement byte-exact.
// Clients parse capability lines out of the native output, so it must not be
// reframed or filtered.
//
// The advertisement is buffered before anything is written, a failing
// subprocess produces no partial response.
func AdvertiseRefs(ctx context.Context, runner *git.Runner, repoPath, service string, w io.Writer) error {
	var adv bytes.Buffer
	if err := Advertisement(ctx, runner, repoPath, service, &adv); err != nil {
		return err
	}

	pw := wire.NewWriter(w)
	if err := pw.WriteLineString("# service=" + service + "\n"); err != nil {
		return err
	}
	if err := pw.WriteFlush(); err != nil {
		return err
	}
	if _, err := w.Write(adv.Bytes()); err != nil {
		return fmt.Errorf("writing advertisement: %w", err)
	}
	return nil
}

// Advertisement writes the bare native ref advertisement for service, without
// the smart-HTTP header. The SSH transport sends it as the opening of the
// connection.
func Advertisement(ctx context.Context, runner *git.Runner, repoPath, service string, w io.Writer) error {
	subcmd, err := serviceCommand(service)
	if err != nil {
		return err
	}

	err = runner.Exec(ctx, git.ExecSpec{
		Args:   []string{subcmd, "--stateless-rpc", "--advertise-refs", repoPath},
		Stdout: w,
	})
	if err != nil {
		return fmt.Errorf("advertising refs for %s: %w", service, err)
	}
	return nil
}
