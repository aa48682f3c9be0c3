package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CageChen/pathquery/internal/config"
	"github.com/CageChen/pathquery/internal/logging"
)

type env struct {
	dir     string
	cfgPath string
}

// newEnv creates a tree with a/b/foo.txt, a/bar.txt and x/foo.log plus an
// empty config file.
func newEnv(t *testing.T) *env {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	for _, rel := range []string{"tree/a/b/foo.txt", "tree/a/bar.txt", "tree/x/foo.log"} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: error\n"), 0o644))
	return &env{dir: dir, cfgPath: cfgPath}
}

func (e *env) path(rel string) string {
	return filepath.Join(e.dir, "tree", filepath.FromSlash(rel))
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *env) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := e.run(t, append([]string{"--json"}, args...)...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestFind(t *testing.T) {
	e := newEnv(t)

	var files []string
	e.runJSON(t, &files, "find", e.path(""), ".txt")
	assert.ElementsMatch(t, []string{e.path("a/b/foo.txt"), e.path("a/bar.txt")}, files)

	e.runJSON(t, &files, "find", e.path(""), ".txt", "--ancestor", "b")
	assert.Equal(t, []string{e.path("a/b/foo.txt")}, files)

	e.runJSON(t, &files, "find", e.path(""), ".none")
	assert.Equal(t, []string{}, files)

	out, err := e.run(t, "find", e.path(""), "r.txt")
	require.NoError(t, err)
	assert.Equal(t, e.path("a/bar.txt")+"\n", out)
}

func TestFind_Errors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "find", e.path("missing"), ".txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, -1, exitCode(err))

	_, err = e.run(t, "find", e.path("a/bar.txt"), ".txt")
	require.Error(t, err)

	_, err = e.run(t, "find", e.path(""))
	require.Error(t, err)
}

func TestAncestor(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "ancestor", "/srv/a/b/c/file.txt", "b")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/srv/a/b")+"\n", out)

	out, err = e.run(t, "ancestor", "/srv/a/b/c/file.txt", "zzz")
	assert.Equal(t, 2, exitCode(err))
	assert.Empty(t, out)

	var res struct {
		Found bool   `json:"found"`
		Path  string `json:"path"`
	}
	out, err = e.run(t, "--json", "ancestor", "/srv/a/b/c/file.txt", "zzz")
	assert.Equal(t, 2, exitCode(err))
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Found)

	out, err = e.run(t, "ancestor", "--check", "/srv/a/b/c/file.txt", "a")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = e.run(t, "ancestor", "--check", "/srv/a/b/c/file.txt", "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestChildAndChildren(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "child", e.path("a"), "b")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = e.run(t, "child", e.path("a"), "nope")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	var children []string
	e.runJSON(t, &children, "children", e.path("a"))
	assert.ElementsMatch(t, []string{e.path("a/b"), e.path("a/bar.txt")}, children)

	e.runJSON(t, &children, "children", e.path("missing"))
	assert.Equal(t, []string{}, children)
}

func TestParent(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "parent", e.path("a/bar.txt"))
	require.NoError(t, err)
	assert.Equal(t, e.path("a")+"\n", out)

	// The entry itself need not exist.
	out, err = e.run(t, "parent", e.path("a/ghost.txt"))
	require.NoError(t, err)
	assert.Equal(t, e.path("a")+"\n", out)

	_, err = e.run(t, "parent", e.path("missing/ghost.txt"))
	assert.Equal(t, 2, exitCode(err))
}

func TestReport(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "report", e.path(""), ".txt")
	require.NoError(t, err)
	assert.Contains(t, out, "bar.txt")
	assert.Contains(t, out, "foo.txt")
	assert.NotContains(t, out, "foo.log")

	out, err = e.run(t, "report", "--html", e.path(""), ".txt", "--ancestor", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "foo.txt")
	assert.NotContains(t, out, "bar.txt")
}

func TestRoots(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "roots", "add", e.path("a"), "--alias", "docs")
	require.NoError(t, err)
	_, err = e.run(t, "roots", "add", e.path("x"))
	require.NoError(t, err)

	cfg, err := config.Load(e.cfgPath)
	require.NoError(t, err)
	require.Len(t, cfg.Roots, 2)
	assert.Equal(t, "docs", cfg.Roots[0].Alias)
	assert.Equal(t, e.path("a"), cfg.Roots[0].Path)
	assert.Equal(t, "x", cfg.Roots[1].Alias)

	out, err := e.run(t, "roots", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "[0] docs -> "+e.path("a"))

	var roots []config.Root
	e.runJSON(t, &roots, "roots", "list")
	assert.Len(t, roots, 2)

	_, err = e.run(t, "roots", "add", e.path("a/b"), "--alias", "docs")
	assert.Error(t, err, "duplicate alias")
	_, err = e.run(t, "roots", "add", e.path("a/bar.txt"))
	assert.Error(t, err, "not a directory")

	_, err = e.run(t, "roots", "remove", "0")
	require.NoError(t, err)
	_, err = e.run(t, "roots", "remove", "5")
	assert.Error(t, err)
	_, err = e.run(t, "roots", "remove", "first")
	assert.Error(t, err)

	cfg, err = config.Load(e.cfgPath)
	require.NoError(t, err)
	require.Len(t, cfg.Roots, 1)
	assert.Equal(t, "x", cfg.Roots[0].Alias)
}

func TestGitRef(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	e := newEnv(t)
	repo := e.path("")

	gitCmd := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = repo
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	gitCmd("init", "-q")
	gitCmd("add", ".")
	gitCmd("commit", "-q", "-m", "init")

	require.NoError(t, os.WriteFile(e.path("a/later.txt"), []byte("x"), 0o644))

	var files []string
	e.runJSON(t, &files, "--git-ref", "HEAD", "find", e.path("a"), ".txt")
	assert.ElementsMatch(t, []string{e.path("a/b/foo.txt"), e.path("a/bar.txt")}, files)

	e.runJSON(t, &files, "find", e.path("a"), ".txt")
	assert.Len(t, files, 3)

	out, err := e.run(t, "--git-ref", "HEAD", "child", e.path("a"), "later.txt")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)
}

func TestServe(t *testing.T) {
	e := newEnv(t)

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.AddRoot(e.path("a"), "docs", ""))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, cfg, logging.NewWithWriter(io.Discard, "server", "error"))
	}()

	url := fmt.Sprintf("http://%s/api/find?root=docs&suffix=.txt", ln.Addr())
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "docs/b/foo.txt"), string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
