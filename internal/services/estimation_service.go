package services

import (
	"context"
	"time"

	"timber-platform/internal/catalog"
	"timber-platform/internal/engine"
	"timber-platform/internal/models"
	"timber-platform/internal/profile"
	"timber-platform/pkg/logging"
	"timber-platform/pkg/metrics"
)

// EstimationService fronts the volume engine with logging and metrics. The
// engine itself is pure; everything observable happens here.
type EstimationService struct {
	catalog *catalog.Catalog
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewEstimationService creates a new estimation service
func NewEstimationService(cat *catalog.Catalog, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *EstimationService {
	return &EstimationService{
		catalog: cat,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Estimate runs one tree through the engine.
func (s *EstimationService) Estimate(ctx context.Context, req engine.Request) models.EstimationResult {
	start := time.Now()
	res := engine.Estimate(s.catalog, req)
	duration := time.Since(start)

	s.metrics.EstimateDuration.Observe(duration.Seconds())
	s.metrics.RecordEstimate(res.Status.String())
	s.metrics.LogsPerEstimate.Observe(float64(res.NumLogs))
	recordAdvisories(s.metrics, res.Advisories)

	if res.Status != models.StatusOK {
		s.logger.Warn(ctx, "[ESTIMATE_REJECTED] Estimation failed", logging.Fields{
			"status":   res.Status.String(),
			"message":  res.StatusMessage,
			"species":  req.Species,
			"region":   req.Key.Region,
			"equation": res.EquationID,
		})
		return res
	}

	s.logger.Debug(ctx, "[ESTIMATE_OK] Estimation completed", logging.Fields{
		"equation":    res.EquationID,
		"num_logs":    res.NumLogs,
		"cuft_total":  res.CubicTotal,
		"duration_us": duration.Microseconds(),
	})
	return res
}

// DiameterAt evaluates the stem profile at a height, resolving the equation
// the same way a full estimate would.
func (s *EstimationService) DiameterAt(ctx context.Context, req engine.Request, height float64) (dob, dib float64, err error) {
	p, err := s.buildProfile(req)
	if err != nil {
		return 0, 0, err
	}
	dob, dib = p.DiameterAt(height)
	return dob, dib, nil
}

// HeightAtDiameter inverts the stem profile for a target inside-bark
// diameter.
func (s *EstimationService) HeightAtDiameter(ctx context.Context, req engine.Request, target float64) (float64, error) {
	p, err := s.buildProfile(req)
	if err != nil {
		return 0, err
	}
	return p.HeightAtDiameter(target, profile.SearchFromTop)
}

// EngineVersion returns the engine version integer.
func (s *EstimationService) EngineVersion() int { return engine.Version() }

func (s *EstimationService) buildProfile(req engine.Request) (*profile.Model, error) {
	eqID := profile.EquationID(req.EquationOverride)
	if eqID == "" {
		id, _, err := s.catalog.Resolve(req.Key, req.Species, req.Product)
		if err != nil {
			return nil, err
		}
		eqID = id
	}
	traits := s.catalog.Traits(req.Species)
	m := req.Measurement
	if eq, err := eqID.Parse(); err == nil &&
		eq.Family == profile.FamilyFormClass && m.FormClass <= 0 && traits.DefaultFormClass > 0 {
		m.FormClass = traits.DefaultFormClass
	}
	return profile.New(eqID, m, traits)
}

func recordAdvisories(c *metrics.Collector, a models.Advisory) {
	if a.Has(models.AdvisoryBarkEstimated) {
		c.AdvisoriesTotal.WithLabelValues("bark_estimated").Inc()
	}
	if a.Has(models.AdvisoryDefaultEquation) {
		c.AdvisoriesTotal.WithLabelValues("default_equation").Inc()
	}
	if a.Has(models.AdvisoryFormClassDefault) {
		c.AdvisoriesTotal.WithLabelValues("form_class_default").Inc()
	}
}
