// Package di provides dependency injection wiring and initialization.
package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/lcdash/internal/config"
	"github.com/aristath/lcdash/internal/modules/catalog"
	"github.com/aristath/lcdash/internal/modules/dashboard"
	"github.com/aristath/lcdash/internal/modules/presentation"
	"github.com/aristath/lcdash/internal/warehouse"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Load the reference catalog
// 2. Select the warehouse connector
// 3. Build the dashboard service
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	cat, err := catalog.Resolve(ctx, CatalogSource(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	connector, err := warehouse.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize warehouse: %w", err)
	}

	svc := dashboard.NewService(cat, connector, DashboardOptions(cfg), log)

	log.Info().
		Str("backend", connector.Backend()).
		Str("dialect", connector.Dialect().Name).
		Msg("Dependency injection wiring completed successfully")

	return &Container{
		Catalog:   cat,
		Connector: connector,
		Dashboard: svc,
	}, nil
}

// CatalogSource maps the catalog settings onto a catalog source.
func CatalogSource(cfg *config.Config) catalog.SourceConfig {
	return catalog.SourceConfig{
		Path: cfg.Catalog.Path,
		S3: catalog.S3Config{
			URI:             cfg.Catalog.S3URI,
			Endpoint:        cfg.Catalog.S3Endpoint,
			Region:          cfg.Catalog.S3Region,
			AccessKeyID:     cfg.Catalog.S3AccessKeyID,
			SecretAccessKey: cfg.Catalog.S3SecretAccessKey,
		},
	}
}

// DashboardOptions derives render options from configuration. Dev mode
// includes the generated SQL in every view.
func DashboardOptions(cfg *config.Config) dashboard.Options {
	theme := presentation.DefaultTheme()
	if cfg.ChartTextColor != "" {
		theme.TextColor = cfg.ChartTextColor
	}
	return dashboard.Options{
		Theme:    theme,
		RowLimit: cfg.RowLimit,
		Debug:    cfg.DevMode,
	}
}
