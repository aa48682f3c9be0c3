package fs

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"
)

// ErrNotDir is returned when a directory listing is requested for a non-directory.
var ErrNotDir = errors.New("not a directory")

// GitFS implements FileSystem over the tree of a git ref (branch, tag, or commit).
// Paths are slash-separated and relative to the repository top level.
type GitFS struct {
	repoPath string
	ref      string
}

// NewGitFS creates a GitFS that lists entries of ref in the repository at repoPath.
func NewGitFS(repoPath, ref string) *GitFS {
	return &GitFS{repoPath: repoPath, ref: ref}
}

// RepoRoot returns the top-level directory of the git work tree containing dir.
func RepoRoot(dir string) (string, error) {
	out, err := runGit(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// treePath normalizes a query path into a tree path; "" is the root tree.
func treePath(p string) (string, error) {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	if p == "." {
		return "", nil
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", os.ErrNotExist
	}
	return p, nil
}

type treeEntry struct {
	name string
	kind string
	size int64
}

// parseTreeRecord parses one NUL-terminated record of `git ls-tree -l -z`:
// "<mode> <type> <hash> <size>\t<path>".
func parseTreeRecord(rec string) (treeEntry, bool) {
	tab := strings.IndexByte(rec, '\t')
	if tab < 0 {
		return treeEntry{}, false
	}
	fields := strings.Fields(rec[:tab])
	if len(fields) < 4 {
		return treeEntry{}, false
	}
	size, _ := strconv.ParseInt(fields[3], 10, 64) // "-" for trees
	return treeEntry{
		name: path.Base(rec[tab+1:]),
		kind: fields[1],
		size: size,
	}, true
}

func (g *GitFS) lsTree(args ...string) ([]treeEntry, error) {
	out, err := runGit(g.repoPath, append([]string{"ls-tree", "-l", "-z", g.ref}, args...)...)
	if err != nil {
		return nil, err
	}
	var entries []treeEntry
	for _, rec := range strings.Split(out, "\x00") {
		if e, ok := parseTreeRecord(rec); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Stat returns metadata for the entry at p in the ref's tree.
func (g *GitFS) Stat(p string) (FileInfo, error) {
	tp, err := treePath(p)
	if err != nil {
		return FileInfo{}, err
	}
	if tp == "" {
		if _, err := runGit(g.repoPath, "rev-parse", "--verify", "--quiet", g.ref+"^{tree}"); err != nil {
			return FileInfo{}, os.ErrNotExist
		}
		return FileInfo{Name: g.ref, IsDir: true}, nil
	}

	entries, err := g.lsTree(tp)
	if err != nil || len(entries) != 1 {
		return FileInfo{}, os.ErrNotExist
	}
	e := entries[0]
	return FileInfo{
		Name:  e.name,
		IsDir: e.kind == "tree",
		Size:  e.size,
	}, nil
}

// ReadDir lists the immediate children of the tree at p.
func (g *GitFS) ReadDir(p string) ([]DirEntry, error) {
	info, err := g.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir {
		return nil, fmt.Errorf("%s: %w", p, ErrNotDir)
	}

	tp, _ := treePath(p)
	var entries []treeEntry
	if tp == "" {
		entries, err = g.lsTree()
	} else {
		entries, err = g.lsTree(tp + "/")
	}
	if err != nil {
		return nil, err
	}

	result := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, DirEntry{Name: e.name, IsDir: e.kind == "tree"})
	}
	return result, nil
}
