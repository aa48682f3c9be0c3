package fs

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MountFS exposes a FileSystem below a path prefix: mounted at "docs",
// "docs/a/b" reaches "a/b" on the inner filesystem; mounted at "/srv/repo",
// "/srv/repo/a" reaches "a". Paths outside the prefix do not exist.
type MountFS struct {
	at    string
	inner FileSystem
}

// Mount returns inner mounted at the prefix at.
func Mount(at string, inner FileSystem) *MountFS {
	return &MountFS{at: path.Clean(filepath.ToSlash(at)), inner: inner}
}

// strip maps p to a path on the inner filesystem. A ".." segment only steps
// back over a directory that exists, as the kernel resolves it.
func (m *MountFS) strip(p string) (string, bool) {
	p = filepath.ToSlash(p)
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		if seg != ".." {
			continue
		}
		prefix := strings.Join(segments[:i], "/")
		if prefix == "" && strings.HasPrefix(p, "/") {
			prefix = "/"
		}
		rel, ok := m.strip(prefix)
		if !ok {
			return "", false
		}
		if info, err := m.inner.Stat(rel); err != nil || !info.IsDir {
			return "", false
		}
	}
	return m.cut(path.Clean(p))
}

func (m *MountFS) cut(p string) (string, bool) {
	if p == m.at {
		return "", true
	}
	prefix := m.at + "/"
	if m.at == "/" {
		prefix = "/"
	}
	if rest, ok := strings.CutPrefix(p, prefix); ok {
		return rest, true
	}
	return "", false
}

// Stat returns metadata for p on the inner filesystem.
func (m *MountFS) Stat(p string) (FileInfo, error) {
	rel, ok := m.strip(p)
	if !ok {
		return FileInfo{}, &os.PathError{Op: "stat", Path: p, Err: os.ErrNotExist}
	}
	return m.inner.Stat(rel)
}

// ReadDir lists p on the inner filesystem.
func (m *MountFS) ReadDir(p string) ([]DirEntry, error) {
	rel, ok := m.strip(p)
	if !ok {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: os.ErrNotExist}
	}
	return m.inner.ReadDir(rel)
}
