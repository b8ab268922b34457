package transport

import (
	"context"
	"fmt"
	"io"

	"github.com/act3-ai/forge/internal/git"
)

// UploadPack proxies one stateless fetch round trip: the client's framed
// request body streams into the native upload-pack subprocess and its output
// streams back out. Nothing is buffered, packs may exceed available memory,
// so backpressure between the client and the subprocess is the pipes' own.
func UploadPack(ctx context.Context, runner *git.Runner, repoPath string, body io.Reader, w io.Writer) error {
	err := runner.Exec(ctx, git.ExecSpec{
		Args:   []string{"upload-pack", "--stateless-rpc", repoPath},
		Stdin:  body,
		Stdout: w,
	})
	if err != nil {
		return fmt.Errorf("serving upload-pack: %w", err)
	}
	return nil
}
