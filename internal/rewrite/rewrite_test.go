package rewrite

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/act3-ai/forge/internal/git"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// testRepo builds a linear history on main: base, then one commit per file
// name given. Returns the repo dir and the commit hash per label.
func testRepo(t *testing.T, runner *git.Runner, files ...map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	_, err := runner.Run(t.Context(), dir, "init", "--initial-branch=main", ".")
	require.NoError(t, err)

	var commits []string
	for i, changes := range files {
		for name, content := range changes {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		}
		_, err := runner.Run(t.Context(), dir, "add", ".")
		require.NoError(t, err)
		_, err = runner.Run(t.Context(), dir,
			"-c", "user.name=Test", "-c", "user.email=test@example.com",
			"commit", "-m", "commit "+strconv.Itoa(i))
		require.NoError(t, err)

		hash, err := runner.Run(t.Context(), dir, "rev-parse", "HEAD")
		require.NoError(t, err)
		commits = append(commits, hash)
	}
	return dir, commits
}

func logCount(t *testing.T, runner *git.Runner, dir, ref string) int {
	t.Helper()
	out, err := runner.Run(t.Context(), dir, "rev-list", "--count", ref)
	require.NoError(t, err)
	n, err := strconv.Atoi(out)
	require.NoError(t, err)
	return n
}

func TestRewrite_Drop(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	dir, commits := testRepo(t, runner,
		map[string]string{"base.txt": "base"},
		map[string]string{"b.txt": "b"},
		map[string]string{"c.txt": "c"},
	)
	base, b, c := commits[0], commits[1], commits[2]

	tip, err := Rewrite(t.Context(), runner, dir, "refs/heads/main", base, []Op{
		{Kind: Pick, Commit: b},
		{Kind: Drop, Commit: c},
	})
	require.NoError(t, err)

	got, err := runner.Run(t.Context(), dir, "rev-parse", "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, tip, got)

	assert.Equal(t, 2, logCount(t, runner, dir, "refs/heads/main"))
	_, err = runner.Run(t.Context(), dir, "cat-file", "-e", tip+":b.txt")
	assert.NoError(t, err)
	_, err = runner.Run(t.Context(), dir, "cat-file", "-e", tip+":c.txt")
	assert.Error(t, err, "dropped commit's file is gone")

	// scratch state cleaned up
	branches, err := runner.Run(t.Context(), dir, "branch", "--list", "rewrite-*")
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestRewrite_Reword(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	dir, commits := testRepo(t, runner,
		map[string]string{"base.txt": "base"},
		map[string]string{"b.txt": "b"},
	)
	base, b := commits[0], commits[1]

	tip, err := Rewrite(t.Context(), runner, dir, "refs/heads/main", base, []Op{
		{Kind: Reword, Commit: b, Message: "a better message"},
	})
	require.NoError(t, err)

	msg, err := runner.Run(t.Context(), dir, "log", "-1", "--format=%s", tip)
	require.NoError(t, err)
	assert.Equal(t, "a better message", msg)
}

func TestRewrite_Squash(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	dir, commits := testRepo(t, runner,
		map[string]string{"base.txt": "base"},
		map[string]string{"b.txt": "b"},
		map[string]string{"c.txt": "c"},
	)
	base, b, c := commits[0], commits[1], commits[2]

	tip, err := Rewrite(t.Context(), runner, dir, "refs/heads/main", base, []Op{
		{Kind: Pick, Commit: b},
		{Kind: Squash, Commit: c},
	})
	require.NoError(t, err)

	// both changes, one commit
	assert.Equal(t, 2, logCount(t, runner, dir, "refs/heads/main"))
	_, err = runner.Run(t.Context(), dir, "cat-file", "-e", tip+":b.txt")
	assert.NoError(t, err)
	_, err = runner.Run(t.Context(), dir, "cat-file", "-e", tip+":c.txt")
	assert.NoError(t, err)
}

func TestRewrite_ConflictLeavesHeadUntouched(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	// b and c both rewrite shared.txt, replaying c without b conflicts
	dir, commits := testRepo(t, runner,
		map[string]string{"shared.txt": "base"},
		map[string]string{"shared.txt": "from b"},
		map[string]string{"shared.txt": "from c"},
	)
	base, b, c := commits[0], commits[1], commits[2]

	before, err := runner.Run(t.Context(), dir, "rev-parse", "refs/heads/main")
	require.NoError(t, err)

	_, err = Rewrite(t.Context(), runner, dir, "refs/heads/main", base, []Op{
		{Kind: Drop, Commit: b},
		{Kind: Pick, Commit: c},
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), c, "error names the offending commit")

	after, err := runner.Run(t.Context(), dir, "rev-parse", "refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	branches, err := runner.Run(t.Context(), dir, "branch", "--list", "rewrite-*")
	require.NoError(t, err)
	assert.Empty(t, branches, "no partial branch published")
}

func TestRewrite_BadPlan(t *testing.T) {
	requireGit(t)
	runner := git.NewRunner()

	_, err := Rewrite(t.Context(), runner, t.TempDir(), "refs/heads/main", "HEAD", nil)
	require.ErrorIs(t, err, ErrBadPlan)

	_, err = Rewrite(t.Context(), runner, t.TempDir(), "refs/heads/main", "HEAD", []Op{
		{Kind: Squash, Commit: strings.Repeat("a", 40)},
	})
	require.ErrorIs(t, err, ErrBadPlan)
}
