// Package catalog lists the files under a catalog root, optionally narrowed to a category,
// and attaches a content fingerprint to each of them.
package catalog

import (
	"slices"
	"strings"
)

// Entry is one listed file.
type Entry struct {
	URL              string `json:"url"`
	Path             string `json:"path"`
	FullPath         string `json:"full_path"`
	Name             string `json:"name"`
	Extension        string `json:"extension"`
	Type             string `json:"type"`
	Size             int64  `json:"size"`
	MD5              string `json:"md5"`
	FingerprintError string `json:"fingerprint_error,omitempty"`
}

// SortByPath orders entries by their root-relative path. Listings come back in walk order,
// callers that need a stable order sort explicitly.
func SortByPath(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Path, b.Path)
	})
}

// Paths returns the root-relative paths of entries.
func Paths(entries []Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
