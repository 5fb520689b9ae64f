package services

import (
	"context"

	"timber-platform/internal/catalog"
	"timber-platform/internal/models"
	"timber-platform/pkg/logging"
	"timber-platform/pkg/metrics"
)

// CatalogService exposes equation resolution to the API layer.
type CatalogService struct {
	catalog *catalog.Catalog
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCatalogService creates a new catalog service
func NewCatalogService(cat *catalog.Catalog, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CatalogService {
	return &CatalogService{
		catalog: cat,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Resolution is the API payload for one catalog lookup.
type Resolution struct {
	EquationID     string               `json:"equation_id"`
	Fallback       bool                 `json:"fallback"`
	CatalogVersion string               `json:"catalog_version"`
	Traits         models.SpeciesTraits `json:"species_traits"`
}

// Resolve looks up the equation for a jurisdiction, species and product.
func (s *CatalogService) Resolve(ctx context.Context, key models.JurisdictionKey, species int, product string) (Resolution, error) {
	id, fallback, err := s.catalog.Resolve(key, species, product)
	if err != nil {
		s.metrics.RecordCatalogLookup("miss")
		s.logger.Debug(ctx, "[CATALOG_MISS] Equation lookup failed", logging.Fields{
			"region":  key.Region,
			"species": species,
			"product": product,
		})
		return Resolution{}, err
	}

	outcome := "exact"
	if fallback {
		outcome = "fallback"
	}
	s.metrics.RecordCatalogLookup(outcome)

	return Resolution{
		EquationID:     string(id),
		Fallback:       fallback,
		CatalogVersion: s.catalog.Version(),
		Traits:         s.catalog.Traits(species),
	}, nil
}
