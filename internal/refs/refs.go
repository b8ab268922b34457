// Package refs models the ref-update commands of a receive-pack request and
// applies them through git's atomic compare-and-set primitive.
package refs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/act3-ai/forge/internal/git"
)

// ZeroID is the all-zero object id, the sentinel for "ref absent".
var ZeroID = plumbing.ZeroHash.String()

var (
	// ErrBadCommand indicates a ref-update command line that does not parse.
	ErrBadCommand = errors.New("invalid ref-update command")

	// ErrStaleRef indicates the ref's current value did not match the
	// expected old object id, another push won the compare-and-set.
	ErrStaleRef = errors.New("ref update rejected")
)

// Kind classifies a ref-update command.
type Kind int

const (
	// Create expects the ref to be absent.
	Create Kind = iota
	// Update expects the ref at the old object id.
	Update
	// Delete expects the ref at the old object id and removes it.
	Delete
)

// Command is one ref-update triple from a push: (old, new, name), optionally
// suffixed with a NUL-separated capability list on the first command of a
// request.
type Command struct {
	OldID string
	NewID string
	Name  plumbing.ReferenceName
	Caps  []string
}

// ParseCommand decodes one pkt-line payload of the receive-pack command list.
func ParseCommand(line []byte) (Command, error) {
	text := strings.TrimSuffix(string(line), "\n")

	head, capList, _ := strings.Cut(text, "\x00")
	caps := strings.Fields(capList)

	fields := strings.Fields(head)
	if len(fields) != 3 {
		return Command{}, fmt.Errorf("%w: want \"<old> <new> <ref>\", got %q", ErrBadCommand, text)
	}

	old, newID, name := fields[0], fields[1], fields[2]
	if !validObjectID(old) || !validObjectID(newID) {
		return Command{}, fmt.Errorf("%w: malformed object id in %q", ErrBadCommand, text)
	}
	if old == ZeroID && newID == ZeroID {
		return Command{}, fmt.Errorf("%w: both object ids are the absent sentinel", ErrBadCommand)
	}

	ref := plumbing.ReferenceName(name)
	if err := ref.Validate(); err != nil {
		return Command{}, fmt.Errorf("%w: %q: %w", ErrBadCommand, name, err)
	}

	return Command{OldID: old, NewID: newID, Name: ref, Caps: caps}, nil
}

// Kind returns the command's classification from its zero-id sentinels.
func (c Command) Kind() Kind {
	switch {
	case c.OldID == ZeroID:
		return Create
	case c.NewID == ZeroID:
		return Delete
	default:
		return Update
	}
}

// String renders the command the way it appeared on the wire, without
// capabilities.
func (c Command) String() string {
	return fmt.Sprintf("%s %s %s", c.OldID, c.NewID, c.Name)
}

// Apply performs one command against repoPath via git update-ref. Each call
// is independently atomic: the native ref store compares the current value
// against the expected old id and swaps only on match. A mismatch returns an
// error wrapping [ErrStaleRef] scoped to this ref alone.
func Apply(ctx context.Context, runner *git.Runner, repoPath string, cmd Command) error {
	var args []string
	switch cmd.Kind() {
	case Create:
		// old id of all zeros demands the ref not exist yet
		args = []string{"update-ref", cmd.Name.String(), cmd.NewID, ZeroID}
	case Delete:
		args = []string{"update-ref", "-d", cmd.Name.String(), cmd.OldID}
	case Update:
		args = []string{"update-ref", cmd.Name.String(), cmd.NewID, cmd.OldID}
	}

	if _, err := runner.Run(ctx, repoPath, args...); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStaleRef, cmd.Name, err)
	}
	return nil
}

// Reason condenses an Apply error into the short explanation reported on the
// push status line.
func Reason(err error) string {
	var exitErr *git.ExitError
	if errors.As(err, &exitErr) {
		if s := strings.TrimSpace(exitErr.Stderr); s != "" {
			// first stderr line, git prefixes it with "error: " or "fatal: "
			line, _, _ := strings.Cut(s, "\n")
			line = strings.TrimPrefix(line, "error: ")
			line = strings.TrimPrefix(line, "fatal: ")
			return line
		}
	}
	if errors.Is(err, ErrStaleRef) {
		return "failed to update ref"
	}
	return err.Error()
}

func validObjectID(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
