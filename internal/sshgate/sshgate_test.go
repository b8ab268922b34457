package sshgate

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/act3-ai/forge/internal/git"
	"github.com/act3-ai/forge/internal/refs"
	"github.com/act3-ai/forge/internal/repocache"
	"github.com/act3-ai/forge/internal/storage"
	"github.com/act3-ai/forge/internal/testutils"
	"github.com/act3-ai/forge/internal/transport"
	"github.com/act3-ai/forge/pkg/protocol/wire"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

func TestParseExecLine(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
		want ExecRequest
	}{
		{
			name: "ReceivePack",
			line: "git-receive-pack 'alice/widgets.git'",
			want: ExecRequest{Service: transport.ReceivePackService, Owner: "alice", Name: "widgets"},
		},
		{
			name: "UploadPack",
			line: "git-upload-pack 'alice/widgets.git'",
			want: ExecRequest{Service: transport.UploadPackService, Owner: "alice", Name: "widgets"},
		},
		{
			name: "NoQuotesNoSuffix",
			line: "git-upload-pack alice/widgets",
			want: ExecRequest{Service: transport.UploadPackService, Owner: "alice", Name: "widgets"},
		},
		{
			name: "LeadingSlash",
			line: "git-receive-pack '/alice/widgets.git'",
			want: ExecRequest{Service: transport.ReceivePackService, Owner: "alice", Name: "widgets"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseExecLine(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	for _, tc := range []struct {
		name string
		line string
	}{
		{name: "UnknownService", line: "git-backdoor 'alice/widgets.git'"},
		{name: "ShellCommand", line: "rm -rf /"},
		{name: "MissingRepo", line: "git-upload-pack"},
		{name: "MissingOwner", line: "git-upload-pack 'widgets.git'"},
		{name: "Traversal", line: "git-upload-pack '../../etc/secrets'"},
		{name: "NestedPath", line: "git-upload-pack 'a/b/c.git'"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseExecLine(tc.line)
			require.ErrorIs(t, err, ErrBadExecLine)
		})
	}
}

// pushCall records one observer invocation.
type pushCall struct {
	userID   string
	repoPath string
	refLines []string
}

type recordObserver struct {
	calls []pushCall
	err   error
}

func (o *recordObserver) OnPush(_ context.Context, userID, repoPath string, refLines []string) error {
	o.calls = append(o.calls, pushCall{userID: userID, repoPath: repoPath, refLines: refLines})
	return o.err
}

func allowAll(context.Context, string, string, string, bool) (bool, error) { return true, nil }

func newTestGate(t *testing.T, root string) (*Gate, *recordObserver) {
	t.Helper()
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	runner := git.NewRunner()
	obs := &recordObserver{}
	return &Gate{
		Runner:    runner,
		Cache:     repocache.NewLocal(root),
		Receiver:  transport.NewReceiver(runner, store),
		Authorize: allowAll,
		Observers: []PushObserver{obs},
	}, obs
}

func initHosted(t *testing.T, runner *git.Runner, root string) string {
	t.Helper()
	path := filepath.Join(root, "alice", "widgets.git")
	require.NoError(t, runner.Exec(t.Context(), git.ExecSpec{
		Args: []string{"init", "--bare", "--initial-branch=main", path},
	}))
	return path
}

// pushStdin frames a receive-pack session body.
func pushStdin(t *testing.T, pack []byte, cmds ...string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	for _, c := range cmds {
		require.NoError(t, w.WriteLineString(c+"\n"))
	}
	require.NoError(t, w.WriteFlush())
	buf.Write(pack)
	return bytes.NewReader(buf.Bytes())
}

// splitAdvertisement consumes the leading advertisement block of an SSH
// receive-pack response and returns the report lines that follow.
func splitAdvertisement(t *testing.T, resp []byte) []string {
	t.Helper()
	adv := wire.NewReader(bytes.NewReader(resp))
	for {
		_, err := adv.ReadLine()
		if errors.Is(err, wire.ErrFlush) {
			break
		}
		require.NoError(t, err, "advertisement not terminated")
	}

	// the report is a fresh pkt-line stream after the advertisement's flush
	r := wire.NewReader(adv.Remainder())
	var lines []string
	for {
		p, err := r.ReadLine()
		if errors.Is(err, wire.ErrFlush) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, strings.TrimSuffix(string(p), "\n"))
	}
}

func TestGate_Exec_Push(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	root := t.TempDir()
	repoPath := initHosted(t, runner, root)

	rb, err := testutils.NewRepoBuilder(t.TempDir())
	require.NoError(t, err)
	commit, err := rb.CreateRandomCommit(64)
	require.NoError(t, err)
	pack, err := rb.PackCommit(commit)
	require.NoError(t, err)

	gate, obs := newTestGate(t, root)

	stdin := pushStdin(t, pack,
		refs.ZeroID+" "+commit.String()+" refs/heads/feature\x00report-status")
	var stdout bytes.Buffer
	err = gate.Exec(t.Context(), "user-1", "git-receive-pack 'alice/widgets.git'", stdin, &stdout)
	require.NoError(t, err)

	lines := splitAdvertisement(t, stdout.Bytes())
	assert.Equal(t, []string{"unpack ok", "ok refs/heads/feature"}, lines)

	got, err := runner.Run(t.Context(), repoPath, "rev-parse", "refs/heads/feature")
	require.NoError(t, err)
	assert.Equal(t, commit.String(), got)

	require.Len(t, obs.calls, 1)
	call := obs.calls[0]
	assert.Equal(t, "user-1", call.userID)
	assert.Equal(t, repoPath, call.repoPath)
	assert.Equal(t, []string{refs.ZeroID + " " + commit.String() + " refs/heads/feature"}, call.refLines)
}

func TestGate_Exec_Upload(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	root := t.TempDir()
	initHosted(t, runner, root)

	gate, obs := newTestGate(t, root)

	// client disconnecting right after the advertisement
	var stdout bytes.Buffer
	err := gate.Exec(t.Context(), "user-1", "git-upload-pack 'alice/widgets.git'", strings.NewReader(wire.Flush), &stdout)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "capabilities")
	assert.Empty(t, obs.calls, "fetch never notifies push observers")
}

func TestGate_Exec_Denied(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	root := t.TempDir()
	initHosted(t, runner, root)

	gate, obs := newTestGate(t, root)
	gate.Authorize = func(context.Context, string, string, string, bool) (bool, error) {
		return false, nil
	}

	var stdout bytes.Buffer
	err := gate.Exec(t.Context(), "user-1", "git-receive-pack 'alice/widgets.git'", strings.NewReader(""), &stdout)
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Zero(t, stdout.Len())
	assert.Empty(t, obs.calls)
}

func TestGate_Exec_ObserverError(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	root := t.TempDir()
	initHosted(t, runner, root)

	rb, err := testutils.NewRepoBuilder(t.TempDir())
	require.NoError(t, err)
	commit, err := rb.CreateRandomCommit(64)
	require.NoError(t, err)
	pack, err := rb.PackCommit(commit)
	require.NoError(t, err)

	gate, obs := newTestGate(t, root)
	obs.err = errors.New("webhook down")

	stdin := pushStdin(t, pack,
		refs.ZeroID+" "+commit.String()+" refs/heads/feature\x00report-status")
	var stdout bytes.Buffer
	err = gate.Exec(t.Context(), "user-1", "git-receive-pack 'alice/widgets.git'", stdin, &stdout)
	require.ErrorContains(t, err, "webhook down", "observer failures are never swallowed")
	require.Len(t, obs.calls, 1)
}

func TestGate_Exec_NoObserverOnFailedPush(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	root := t.TempDir()
	initHosted(t, runner, root)

	gate, obs := newTestGate(t, root)

	// stale delete of a ref that does not exist
	bogus := strings.Repeat("ab", 20)
	stdin := pushStdin(t, nil, bogus+" "+refs.ZeroID+" refs/heads/ghost\x00report-status")
	var stdout bytes.Buffer
	err := gate.Exec(t.Context(), "user-1", "git-receive-pack 'alice/widgets.git'", stdin, &stdout)
	require.NoError(t, err)

	lines := splitAdvertisement(t, stdout.Bytes())
	require.Len(t, lines, 2)
	assert.Equal(t, "unpack ok", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "ng refs/heads/ghost "))
	assert.Empty(t, obs.calls, "nothing was updated, observers stay quiet")
}
