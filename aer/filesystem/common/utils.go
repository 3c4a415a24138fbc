package common

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// PathUtils provides path manipulation utilities relative to a catalog root
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath returns the cleaned absolute form of path.
func (pu *PathUtils) NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// RelativeTo strips root from path. Both are cleaned first but not resolved against the
// working directory, so they must share the same form (both absolute or both relative).
// The result uses forward slashes. A path equal to root or outside it fails with
// *PathNotUnderRootError.
func (pu *PathUtils) RelativeTo(path, root string) (string, error) {
	cleanPath := filepath.Clean(path)
	cleanRoot := filepath.Clean(root)

	rel, err := filepath.Rel(cleanRoot, cleanPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &PathNotUnderRootError{Path: path, Root: root}
	}
	return filepath.ToSlash(rel), nil
}

// ValidatePath validates that a path is usable as a catalog root or entry.
func (pu *PathUtils) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrPathEmpty
	}
	if strings.Contains(path, "\x00") {
		return ErrPathInvalid
	}
	if len(path) > 4096 {
		return ErrPathTooLong
	}
	return nil
}

// URLJoin appends a root-relative slash path to base, escaping every path segment.
func (pu *PathUtils) URLJoin(base, rel string) string {
	segments := strings.Split(strings.TrimLeft(rel, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	escaped := strings.Join(segments, "/")
	if base == "" {
		return escaped
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), escaped)
}
