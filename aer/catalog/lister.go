package catalog

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/Nachtalb/aer/aer/filesystem/common"
	"github.com/Nachtalb/aer/aer/filesystem/walker"
	"github.com/Nachtalb/aer/aer/filetypes"

	"github.com/rs/zerolog"
)

// Enumerator produces the candidate entries beneath a root, already filtered by ignore rules.
type Enumerator interface {
	Enumerate(ctx context.Context, root string) iter.Seq[walker.Candidate]
}

// Lister turns enumerator candidates into entries for regular files accepted by a matcher.
type Lister struct {
	enumerator Enumerator
	registry   *filetypes.Registry
	paths      *common.PathUtils
	metrics    *common.CatalogMetrics
	logger     zerolog.Logger
}

// NewLister creates a Lister. The registry is only used to classify entries.
func NewLister(enumerator Enumerator, registry *filetypes.Registry, metrics *common.CatalogMetrics, logger zerolog.Logger) *Lister {
	if metrics == nil {
		metrics = common.NewCatalogMetrics()
	}
	return &Lister{
		enumerator: enumerator,
		registry:   registry,
		paths:      common.NewPathUtils(),
		metrics:    metrics,
		logger:     logger.With().Str("component", "lister").Logger(),
	}
}

// List returns the regular files under root whose extension m accepts, in enumerator order.
// Unreadable entries are skipped. An unreadable root, a cancelled context or a candidate
// outside root fail the whole listing.
func (l *Lister) List(ctx context.Context, root string, m *filetypes.Matcher) ([]Entry, error) {
	var entries []Entry

	for c := range l.enumerator.Enumerate(ctx, root) {
		if c.Err != nil {
			if c.Depth == 0 {
				return nil, fmt.Errorf("failed to enumerate %s: %w", root, c.Err)
			}
			l.skip(c.Path, c.Err)
			continue
		}
		if c.IsDir {
			continue
		}

		ext := filetypes.ExtensionOf(c.Path)
		if !m.Accepts(ext) {
			continue
		}

		// Stat follows symlinks: links to regular files are kept, dangling links and links
		// to directories are not.
		info, err := os.Stat(c.Path)
		if err != nil {
			l.skip(c.Path, err)
			continue
		}
		if !info.Mode().IsRegular() {
			l.skip(c.Path, common.ErrNotRegularFile)
			continue
		}

		rel, err := l.paths.RelativeTo(c.Path, root)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{
			Path:      rel,
			FullPath:  c.Path,
			Name:      filepath.Base(c.Path),
			Extension: string(ext),
			Type:      l.registry.Classify(ext),
			Size:      info.Size(),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *Lister) skip(path string, err error) {
	l.metrics.EntriesSkipped.Add(1)
	l.logger.Debug().Err(&common.EntryError{Path: path, Err: err}).Msg("Skipping entry")
}
