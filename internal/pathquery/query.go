// Package pathquery answers read-only questions about a directory tree:
// recursive suffix search, ancestor lookup, child probing and listing, and
// parent resolution. Queries only look at entry metadata, never file contents.
package pathquery

import (
	"errors"
	"fmt"
	"strings"

	mfs "github.com/CageChen/pathquery/internal/fs"
)

// ErrNotDirectory is returned by the find operations when the root exists but
// is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Querier runs queries against a FileSystem. It holds no mutable state and is
// safe for concurrent use if the FileSystem is.
type Querier struct {
	fs mfs.FileSystem
}

// New creates a Querier over fsys.
func New(fsys mfs.FileSystem) *Querier {
	return &Querier{fs: fsys}
}

var local = New(mfs.NewLocalFS(""))

// FindFilesWithSuffix recursively lists the entries below root whose name ends
// with suffix. The match is a literal string suffix, not an extension check.
func (q *Querier) FindFilesWithSuffix(root, suffix string) ([]string, error) {
	if err := q.checkRoot(root); err != nil {
		return nil, err
	}

	files := []string{}
	q.walk(root, func(p string, entry mfs.DirEntry) {
		if strings.HasSuffix(entry.Name, suffix) {
			files = append(files, p)
		}
	})
	return files, nil
}

// FindFilesWithAncestorAndSuffix is FindFilesWithSuffix restricted to entries
// having a directory named ancestorName above them.
func (q *Querier) FindFilesWithAncestorAndSuffix(root, ancestorName, suffix string) ([]string, error) {
	found, err := q.FindFilesWithSuffix(root, suffix)
	if err != nil {
		return nil, err
	}

	files := found[:0]
	for _, f := range found {
		if HasAncestor(f, ancestorName) {
			files = append(files, f)
		}
	}
	return files, nil
}

// HasChild reports whether dir contains an entry named child.
func (q *Querier) HasChild(dir, child string) bool {
	return mfs.Exists(q.fs, joinChild(dir, child))
}

// GetChildren lists the immediate children of dir. A missing or non-directory
// dir yields an empty slice.
func (q *Querier) GetChildren(dir string) []string {
	entries, err := q.fs.ReadDir(dir)
	if err != nil {
		return []string{}
	}

	children := make([]string, len(entries))
	for i, entry := range entries {
		children[i] = joinChild(dir, entry.Name)
	}
	return children
}

// GetParent returns the parent directory of p if it currently exists. The
// parent is taken from the path string as written: for "a/ghost/../f" it is
// "a/ghost/..", which only exists if a/ghost does.
func (q *Querier) GetParent(p string) (string, bool) {
	parent := parentOf(p)
	if !mfs.Exists(q.fs, parent) {
		return "", false
	}
	return parent, true
}

func (q *Querier) checkRoot(root string) error {
	info, err := q.fs.Stat(root)
	if err != nil {
		return fmt.Errorf("search root %q: %w", root, err)
	}
	if !info.IsDir {
		return fmt.Errorf("search root %q: %w", root, ErrNotDirectory)
	}
	return nil
}

// walk visits every entry below dir depth-first in listing order. Directories
// that cannot be listed are skipped.
func (q *Querier) walk(dir string, visit func(p string, entry mfs.DirEntry)) {
	entries, err := q.fs.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		p := joinChild(dir, entry.Name)
		visit(p, entry)
		if entry.IsDir {
			q.walk(p, visit)
		}
	}
}

// FindFilesWithSuffix runs Querier.FindFilesWithSuffix on the local filesystem.
func FindFilesWithSuffix(root, suffix string) ([]string, error) {
	return local.FindFilesWithSuffix(root, suffix)
}

// FindFilesWithAncestorAndSuffix runs Querier.FindFilesWithAncestorAndSuffix
// on the local filesystem.
func FindFilesWithAncestorAndSuffix(root, ancestorName, suffix string) ([]string, error) {
	return local.FindFilesWithAncestorAndSuffix(root, ancestorName, suffix)
}

// HasChild runs Querier.HasChild on the local filesystem.
func HasChild(dir, child string) bool {
	return local.HasChild(dir, child)
}

// GetChildren runs Querier.GetChildren on the local filesystem.
func GetChildren(dir string) []string {
	return local.GetChildren(dir)
}

// GetParent runs Querier.GetParent on the local filesystem.
func GetParent(p string) (string, bool) {
	return local.GetParent(p)
}
