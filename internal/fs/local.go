package fs

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalFS implements FileSystem on top of an afero filesystem, normally the OS.
type LocalFS struct {
	afs  afero.Fs
	root string
}

// NewLocalFS creates a LocalFS over the OS filesystem. Paths are resolved
// against root; an empty root means paths are used as given.
func NewLocalFS(root string) *LocalFS {
	return NewLocalFSFrom(afero.NewOsFs(), root)
}

// NewLocalFSFrom creates a LocalFS over an arbitrary afero filesystem.
func NewLocalFSFrom(afs afero.Fs, root string) *LocalFS {
	return &LocalFS{afs: afs, root: root}
}

// Root returns the directory paths are resolved against.
func (l *LocalFS) Root() string {
	return l.root
}

func (l *LocalFS) abs(path string) string {
	if l.root == "" {
		if path == "" {
			return "."
		}
		return path
	}
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, path)
}

// Stat returns metadata for the entry at path, following symlinks.
func (l *LocalFS) Stat(path string) (FileInfo, error) {
	info, err := l.afs.Stat(l.abs(path))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// ReadDir lists the immediate children of the directory at path, sorted by
// name. A symlink to a directory is reported as a non-directory entry.
func (l *LocalFS) ReadDir(path string) ([]DirEntry, error) {
	infos, err := afero.ReadDir(l.afs, l.abs(path))
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, len(infos))
	for i, info := range infos {
		result[i] = DirEntry{
			Name:  info.Name(),
			IsDir: info.IsDir(),
		}
	}
	return result, nil
}
