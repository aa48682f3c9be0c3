package pathquery

import (
	"path/filepath"
	"strings"
)

// splitPath separates p into its anchor (volume name and leading separator)
// and its segments. Empty and "." segments are dropped; ".." is kept as a
// segment like any other name, since it cannot be resolved without looking at
// the filesystem.
func splitPath(p string) (anchor string, segments []string) {
	anchor = filepath.VolumeName(p)
	rest := p[len(anchor):]
	if rest != "" && isSeparator(rune(rest[0])) {
		anchor += string(filepath.Separator)
	}
	for _, seg := range strings.FieldsFunc(rest, isSeparator) {
		if seg != "." {
			segments = append(segments, seg)
		}
	}
	return anchor, segments
}

func isSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}

func joinPath(anchor string, segments []string) string {
	if len(segments) == 0 {
		if anchor == "" {
			return "."
		}
		return anchor
	}
	return anchor + strings.Join(segments, string(filepath.Separator))
}

// normalize drops redundant separators and "." segments from p.
func normalize(p string) string {
	return joinPath(splitPath(p))
}

// Ancestors returns the parent chain of p, nearest first. The chain ends with
// the filesystem root for absolute paths and with "." for relative ones.
// It only inspects the path string; nothing needs to exist on disk.
func Ancestors(p string) []string {
	anchor, segments := splitPath(p)

	var chain []string
	for i := len(segments) - 1; i >= 0; i-- {
		chain = append(chain, joinPath(anchor, segments[:i]))
	}
	return chain
}

// HasAncestor reports whether any directory above p is named name.
func HasAncestor(p, name string) bool {
	_, ok := GetAncestor(p, name)
	return ok
}

// GetAncestor returns the nearest directory above p named name. The root and
// "." have no name, so an empty name never matches.
func GetAncestor(p, name string) (string, bool) {
	anchor, segments := splitPath(p)
	for i := len(segments) - 1; i >= 1; i-- {
		if segments[i-1] == name {
			return joinPath(anchor, segments[:i]), true
		}
	}
	return "", false
}

// parentOf is the syntactic parent of p. The root and "." are their own parent.
func parentOf(p string) string {
	anchor, segments := splitPath(p)
	if len(segments) == 0 {
		return joinPath(anchor, nil)
	}
	return joinPath(anchor, segments[:len(segments)-1])
}

// joinChild appends name to dir without resolving "..".
func joinChild(dir, name string) string {
	dir = normalize(dir)
	switch {
	case name == "":
		return dir
	case dir == ".":
		return name
	case strings.HasSuffix(dir, string(filepath.Separator)), dir == filepath.VolumeName(dir):
		return dir + name
	default:
		return dir + string(filepath.Separator) + name
	}
}
