// Package infra selects the configured storage backend.
package infra

import (
	"context"
	"fmt"

	"github.com/ovoda/invoice-tracker/internal/config"
	"github.com/ovoda/invoice-tracker/internal/infra/bigquery"
	"github.com/ovoda/invoice-tracker/internal/infra/postgres"
	"github.com/ovoda/invoice-tracker/internal/store"
)

var (
	_ store.Repository = (*bigquery.BigQueryRepository)(nil)
	_ store.Repository = (*postgres.Repository)(nil)
)

// OpenRepository connects to the backend named by cfg.StoreBackend.
func OpenRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		repo, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		return repo, nil
	case config.StoreBigQuery, "":
		repo, err := bigquery.NewBigQueryRepository(ctx, bigquery.Dataset{
			ProjectID: cfg.ProjectID,
			DatasetID: cfg.Dataset,
		})
		if err != nil {
			return nil, fmt.Errorf("OpenRepository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("OpenRepository: unknown store backend %q", cfg.StoreBackend)
	}
}
