// Package fs provides the filesystem backends path queries run against:
// the local disk (through afero) or the tree of a git ref.
package fs

import "time"

// FileInfo holds entry metadata.
type FileInfo struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileSystem is the read-only metadata surface a query needs. Implementations
// never read file contents.
type FileSystem interface {
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
}

// Exists reports whether path can be stat'ed on fsys.
func Exists(fsys FileSystem, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// IsDir reports whether path exists on fsys and is a directory.
func IsDir(fsys FileSystem, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.IsDir
}
