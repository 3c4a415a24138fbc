package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nachtalb/aer/aer/filesystem/common"
	"github.com/Nachtalb/aer/aer/filetypes"
	"github.com/Nachtalb/aer/aer/fingerprint"

	"github.com/rs/zerolog"
	conciter "github.com/sourcegraph/conc/iter"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Workers bounds concurrent fingerprint computations per listing.
	Workers int
	// PublicURL is the base each entry URL is built from. Empty leaves URL unset.
	PublicURL string
}

// Service is the catalog query surface. It is safe for concurrent use; the registry,
// fingerprint cache and metrics are shared read-only or atomically updated.
type Service struct {
	registry     *filetypes.Registry
	lister       *Lister
	fingerprints *fingerprint.Cache
	metrics      *common.CatalogMetrics
	paths        *common.PathUtils
	opts         ServiceOptions
	logger       zerolog.Logger
}

// NewService wires a Service. The registry must be finalized.
func NewService(registry *filetypes.Registry, lister *Lister, fingerprints *fingerprint.Cache, metrics *common.CatalogMetrics, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if metrics == nil {
		metrics = common.NewCatalogMetrics()
	}
	return &Service{
		registry:     registry,
		lister:       lister,
		fingerprints: fingerprints,
		metrics:      metrics,
		paths:        common.NewPathUtils(),
		opts:         opts,
		logger:       logger.With().Str("component", "catalog").Logger(),
	}
}

// ListAll lists every regular file under root.
func (s *Service) ListAll(ctx context.Context, root string) ([]Entry, error) {
	return s.list(ctx, root, filetypes.MatchAll())
}

// ListByCategory lists the files under root belonging to category name. An unknown or empty
// name fails with *filetypes.UnknownCategoryError before anything is read from disk.
func (s *Service) ListByCategory(ctx context.Context, root, name string) ([]Entry, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &filetypes.UnknownCategoryError{Name: name}
	}
	m, err := filetypes.Compile(s.registry, name)
	if err != nil {
		if errors.Is(err, filetypes.ErrUnknownCategory) {
			s.logger.Debug().Str("category", name).Msg("Unknown category requested")
		}
		return nil, err
	}
	return s.list(ctx, root, m)
}

func (s *Service) list(ctx context.Context, root string, m *filetypes.Matcher) (entries []Entry, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordListing(start, len(entries), err)
	}()

	if err := s.paths.ValidatePath(root); err != nil {
		return nil, fmt.Errorf("invalid catalog root: %w", err)
	}
	absRoot := s.paths.NormalizePath(root)

	entries, err = s.lister.List(ctx, absRoot, m)
	if err != nil {
		s.logger.Error().Err(err).Str("root", absRoot).Str("category", m.Category()).Msg("Listing failed")
		return nil, err
	}

	s.attach(ctx, absRoot, entries)

	s.logger.Debug().
		Str("root", absRoot).
		Str("category", m.Category()).
		Int("entries", len(entries)).
		Dur("duration", time.Since(start)).
		Msg("Listing completed")
	return entries, nil
}

// attach fills URL and fingerprint fields in place. A file that cannot be hashed keeps an
// empty MD5 and records the reason instead of failing the listing.
func (s *Service) attach(ctx context.Context, root string, entries []Entry) {
	it := conciter.Iterator[Entry]{MaxGoroutines: s.opts.Workers}
	it.ForEach(entries, func(e *Entry) {
		if s.opts.PublicURL != "" {
			e.URL = s.paths.URLJoin(s.opts.PublicURL, e.Path)
		}
		if s.fingerprints == nil || ctx.Err() != nil {
			return
		}

		res, err := s.fingerprints.Lookup(ctx, e.FullPath, root)
		if err != nil {
			s.metrics.FingerprintErrors.Add(1)
			e.FingerprintError = err.Error()
			s.logger.Warn().Err(err).Str("path", e.FullPath).Msg("Failed to fingerprint entry")
			return
		}
		if res.Hit {
			s.metrics.FingerprintHits.Add(1)
		} else {
			s.metrics.FingerprintMisses.Add(1)
		}
		e.MD5 = res.Value
	})
}

// CategoryInfo describes one registry entry with its resolved extensions.
type CategoryInfo struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Includes   []string `json:"includes,omitempty"`
	Extensions []string `json:"extensions"`
}

// Categories returns every category sorted by name.
func (s *Service) Categories() ([]CategoryInfo, error) {
	names := s.registry.Names()
	infos := make([]CategoryInfo, 0, len(names))
	for _, name := range names {
		def, _ := s.registry.Lookup(name)
		m, err := filetypes.Compile(s.registry, name)
		if err != nil {
			return nil, err
		}

		info := CategoryInfo{Name: name, Kind: string(def.Kind())}
		if c, ok := def.(filetypes.Composite); ok {
			info.Includes = c.Includes
		}
		for _, ext := range m.Extensions() {
			info.Extensions = append(info.Extensions, string(ext))
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Metrics returns the shared metrics instance.
func (s *Service) Metrics() *common.CatalogMetrics {
	return s.metrics
}
