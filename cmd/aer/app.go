package main

import (
	"context"
	"fmt"
	"time"

	internal "github.com/Nachtalb/aer/aer"
	"github.com/Nachtalb/aer/aer/catalog"
	"github.com/Nachtalb/aer/aer/config"
	"github.com/Nachtalb/aer/aer/filesystem/common"
	"github.com/Nachtalb/aer/aer/filesystem/walker"
	"github.com/Nachtalb/aer/aer/filetypes"
	"github.com/Nachtalb/aer/aer/fingerprint"
	"github.com/Nachtalb/aer/aer/store"

	"github.com/rs/zerolog"
)

// app holds the process-wide components handed to every request.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   store.Store
	metrics *common.CatalogMetrics
	service *catalog.Service
}

// newApp builds the registry, store and catalog service from cfg. A broken category table
// is returned as an error and must abort startup.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := internal.NewLogger(cfg.Log.Level, cfg.Log.Pretty)

	table := filetypes.TableWith(filetypes.DefaultTable, cfg.Categories.Primitives, cfg.Categories.Composites)
	registry, err := filetypes.BuildRegistry(table)
	if err != nil {
		return nil, fmt.Errorf("failed to build category registry: %w", err)
	}

	kv, err := store.Open(ctx, store.Options{
		Driver: cfg.Store.Driver,
		DSN:    cfg.Store.DSN,
		TTL:    time.Duration(cfg.Store.TTLSeconds) * time.Second,
		Size:   cfg.Store.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open fingerprint store: %w", err)
	}

	metrics := common.NewCatalogMetrics()
	enumerator := walker.New(walker.Options{
		IgnoreFiles:    cfg.Catalog.IgnoreFiles,
		IncludeHidden:  cfg.Catalog.IncludeHidden,
		FollowSymlinks: cfg.Catalog.FollowSymlinks,
	}, logger)
	lister := catalog.NewLister(enumerator, registry, metrics, logger)
	cache := fingerprint.NewCache(kv, logger, fingerprint.WithKeyPrefix(cfg.Store.KeyPrefix))

	service := catalog.NewService(registry, lister, cache, metrics, catalog.ServiceOptions{
		Workers:   cfg.Catalog.Workers,
		PublicURL: cfg.Server.PublicURL,
	}, logger)

	logger.Debug().
		Int("categories", len(registry.Names())).
		Str("store", cfg.Store.Driver).
		Str("root", cfg.Catalog.Root).
		Msg("Application initialized")

	return &app{cfg: cfg, logger: logger, store: kv, metrics: metrics, service: service}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
