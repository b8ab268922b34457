// Package transport implements the server side of Git's smart protocol: ref
// advertisement, the upload-pack (fetch) proxy, and the receive-pack (push)
// pipeline. Object validation and packing is delegated to the native Git
// toolchain, this package is the framing and streaming layer around it.
package transport

import (
	"errors"
	"fmt"
)

// Smart protocol service names as they appear on the wire.
const (
	UploadPackService  = "git-upload-pack"
	ReceivePackService = "git-receive-pack"
)

// ErrUnknownService indicates a request for a service this server does not
// speak.
var ErrUnknownService = errors.New("unknown service")

// serviceCommand maps a wire service name to its git subcommand.
func serviceCommand(service string) (string, error) {
	switch service {
	case UploadPackService:
		return "upload-pack", nil
	case ReceivePackService:
		return "receive-pack", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
}
