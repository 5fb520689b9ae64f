package repository

import (
	"context"
	"database/sql"
	"fmt"

	"timber-platform/internal/catalog"
	"timber-platform/internal/models"
	"timber-platform/pkg/database"
	"timber-platform/pkg/logging"
	"timber-platform/pkg/metrics"
)

// CatalogRepository loads the versioned equation catalog tables. It is read
// at startup only; the in-memory catalog serves every call afterward.
type CatalogRepository interface {
	LoadEntries(ctx context.Context) ([]catalog.Entry, error)
	LoadSpeciesTraits(ctx context.Context) ([]models.SpeciesTraits, error)
	TableVersion(ctx context.Context) (string, error)
	HealthCheck(ctx context.Context) error
}

// catalogRepository implements CatalogRepository over Postgres.
type catalogRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) CatalogRepository {
	return &catalogRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// LoadEntries reads the full equation table.
func (r *catalogRepository) LoadEntries(ctx context.Context) ([]catalog.Entry, error) {
	query := `
		SELECT region, forest, district, species, product, equation_id
		FROM volume_equations
		ORDER BY region, forest, district, species, product
	`

	var entries []catalog.Entry
	if err := r.db.SelectContext(ctx, "load_equations", &entries, query); err != nil {
		return nil, fmt.Errorf("failed to load volume equations: %w", err)
	}

	r.logger.Info(ctx, "[CATALOG_LOAD] Equation table loaded", logging.Fields{
		"entries": len(entries),
	})
	r.metrics.CatalogEntriesLoaded.Set(float64(len(entries)))

	return entries, nil
}

// LoadSpeciesTraits reads the species attribute table.
func (r *catalogRepository) LoadSpeciesTraits(ctx context.Context) ([]models.SpeciesTraits, error) {
	query := `
		SELECT code, name, bark_ratio, default_form_class, green_density_lb, dry_density_lb
		FROM species_attributes
		ORDER BY code
	`

	var traits []models.SpeciesTraits
	if err := r.db.SelectContext(ctx, "load_species", &traits, query); err != nil {
		return nil, fmt.Errorf("failed to load species attributes: %w", err)
	}

	return traits, nil
}

// TableVersion returns the catalog table revision tag, defaulting to
// "unversioned" when the metadata row is absent.
func (r *catalogRepository) TableVersion(ctx context.Context) (string, error) {
	query := `SELECT version FROM catalog_metadata ORDER BY loaded_at DESC LIMIT 1`

	var version string
	err := r.db.GetContext(ctx, "catalog_version", &version, query)
	if err == sql.ErrNoRows {
		return "unversioned", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read catalog version: %w", err)
	}
	return version, nil
}

// HealthCheck performs a repository health check
func (r *catalogRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
