// Package walker enumerates a directory tree while honoring per-directory ignore files.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	internal "github.com/Nachtalb/aer/aer"

	"github.com/rs/zerolog"
	ignore "github.com/sabhiram/go-gitignore"
)

// Candidate is one entry produced by Enumerate. Err is set when the entry could not be read;
// for directories this means their contents were not enumerated.
type Candidate struct {
	Path  string
	IsDir bool
	Depth int
	Err   error
}

// Options configures a Walker.
type Options struct {
	IgnoreFiles    []string
	IncludeHidden  bool
	FollowSymlinks bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{IgnoreFiles: internal.DefaultIgnoreFiles}
}

// IgnoreChecker interface for file ignore patterns
type IgnoreChecker interface {
	MatchesPath(path string) bool
}

type ignoreLayer struct {
	dir     string
	checker IgnoreChecker
}

// Walker is a lazy, depth-first, ignore-aware directory enumerator.
type Walker struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a Walker.
func New(opts Options, logger zerolog.Logger) *Walker {
	return &Walker{opts: opts, logger: logger.With().Str("component", "walker").Logger()}
}

// Enumerate yields every non-ignored entry beneath root, directories before their contents
// and siblings in lexical order. The root itself is not yielded unless it cannot be read,
// in which case a single Candidate with Depth 0 and Err set is produced. Enumeration stops
// between directories once ctx is done.
func (w *Walker) Enumerate(ctx context.Context, root string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		info, err := os.Stat(root)
		if err != nil {
			yield(Candidate{Path: root, IsDir: true, Err: err})
			return
		}
		if !info.IsDir() {
			yield(Candidate{Path: root, Err: fmt.Errorf("catalog root %s is not a directory", root)})
			return
		}

		visited := make(map[string]bool)
		if real, err := filepath.EvalSymlinks(root); err == nil {
			visited[real] = true
		}
		w.walkDir(ctx, root, 0, nil, visited, yield)
	}
}

// walkDir returns false once the consumer stopped or ctx is done.
func (w *Walker) walkDir(ctx context.Context, dir string, depth int, layers []ignoreLayer, visited map[string]bool, yield func(Candidate) bool) bool {
	if ctx.Err() != nil {
		return false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return yield(Candidate{Path: dir, IsDir: true, Depth: depth, Err: fmt.Errorf("failed to read directory %s: %w", dir, err)})
	}

	if layer, ok := w.loadIgnores(dir); ok {
		layers = append(layers[:len(layers):len(layers)], layer)
	}

	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)

		if strings.HasPrefix(name, ".") && (!w.opts.IncludeHidden || (name == ".git" && entry.IsDir())) {
			continue
		}

		isDir := entry.IsDir()
		descend := isDir
		if entry.Type()&fs.ModeSymlink != 0 && w.opts.FollowSymlinks {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				isDir = true
				descend = w.markVisited(path, visited)
			}
		}

		if isIgnored(path, isDir, layers) {
			w.logger.Debug().Str("path", path).Msg("Ignoring entry")
			continue
		}

		if !yield(Candidate{Path: path, IsDir: isDir, Depth: depth + 1}) {
			return false
		}

		if descend {
			if !w.walkDir(ctx, path, depth+1, layers, visited, yield) {
				return false
			}
		}
	}
	return true
}

// markVisited records the resolved target of a symlinked directory and reports whether it
// was new, which stops symlink loops.
func (w *Walker) markVisited(path string, visited map[string]bool) bool {
	real, err := filepath.EvalSymlinks(path)
	if err != nil || visited[real] {
		return false
	}
	visited[real] = true
	return true
}

// loadIgnores compiles every configured ignore file found in dir into one checker.
func (w *Walker) loadIgnores(dir string) (ignoreLayer, bool) {
	var lines []string
	for _, name := range w.opts.IgnoreFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if !os.IsNotExist(err) {
				w.logger.Warn().Err(err).Str("dir", dir).Str("file", name).Msg("Failed to read ignore file")
			}
			continue
		}
		lines = append(lines, strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")...)
	}
	if len(lines) == 0 {
		return ignoreLayer{}, false
	}
	return ignoreLayer{dir: dir, checker: ignore.CompileIgnoreLines(lines...)}, true
}

// isIgnored tests path against every layer from the root down, each relative to the
// directory that holds the ignore file.
func isIgnored(path string, isDir bool, layers []ignoreLayer) bool {
	for _, layer := range layers {
		rel, err := filepath.Rel(layer.dir, path)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if layer.checker.MatchesPath(rel) {
			return true
		}
		if isDir && layer.checker.MatchesPath(rel+"/") {
			return true
		}
	}
	return false
}
