// Package engine is the single entry point of the volume estimator: it
// resolves an equation, builds the stem profile, bucks the stem and
// aggregates volumes, short-circuiting on the first failure.
package engine

import (
	"timber-platform/internal/bucking"
	"timber-platform/internal/catalog"
	"timber-platform/internal/models"
	"timber-platform/internal/profile"
	"timber-platform/internal/volume"
)

// versionNumber is the engine version integer, date-coded. Callers gate
// feature availability on it.
const versionNumber = 20250901

// Version returns the engine version integer.
func Version() int { return versionNumber }

// Request bundles everything a single estimation needs. The equation
// override, when set, bypasses catalog resolution entirely; it is the only
// way a caller supplies an EquationID directly.
type Request struct {
	Key              models.JurisdictionKey `json:"jurisdiction"`
	Species          int                    `json:"species"`
	Product          string                 `json:"product"`
	EquationOverride string                 `json:"equation_override,omitempty"`
	Measurement      models.TreeMeasurement `json:"measurement"`
	Rules            models.MerchRules      `json:"rules"`
	Units            models.UnitFlags       `json:"units"`
}

// Estimate runs the full pipeline against an immutable catalog. It never
// returns a partially filled result: on failure every volume field is zero
// and Status carries the first failure's code.
func Estimate(cat *catalog.Catalog, req Request) models.EstimationResult {
	if err := req.Rules.Validate(); err != nil {
		return failed(err, "")
	}

	var (
		eqID       profile.EquationID
		advisories models.Advisory
	)
	if req.EquationOverride != "" {
		eqID = profile.EquationID(req.EquationOverride)
	} else {
		id, fallback, err := cat.Resolve(req.Key, req.Species, req.Product)
		if err != nil {
			return failed(err, "")
		}
		eqID = id
		if fallback {
			advisories |= models.AdvisoryDefaultEquation
		}
	}

	traits := cat.Traits(req.Species)
	m := req.Measurement
	if eq, err := eqID.Parse(); err != nil {
		return failed(err, string(eqID))
	} else if eq.Family == profile.FamilyFormClass && m.FormClass <= 0 && traits.DefaultFormClass > 0 {
		// Substitute the species-table form class; approximate input,
		// flagged, not an error.
		m.FormClass = traits.DefaultFormClass
		advisories |= models.AdvisoryFormClassDefault
	}
	applyBarkOverrides(&m, req.Rules)

	prof, err := profile.New(eqID, m, traits)
	if err != nil {
		return failed(err, string(eqID))
	}
	advisories |= prof.Advisories()

	buck, err := bucking.Segment(prof, m, req.Rules)
	if err != nil {
		return failed(err, string(eqID))
	}

	res := volume.Aggregate(prof, buck, m, req.Rules, req.Units, traits)
	res.EquationID = string(eqID)
	res.Status = models.StatusOK
	res.Advisories = advisories
	return res
}

// applyBarkOverrides lets the merchandising rules pin bark figures for the
// whole call, taking precedence over the field measurement.
func applyBarkOverrides(m *models.TreeMeasurement, rules models.MerchRules) {
	if rules.BarkThickOverride > 0 {
		m.DoubleBarkThick = rules.BarkThickOverride
	}
	if rules.BarkRatioOverride > 0 {
		m.BarkRatio = rules.BarkRatioOverride
		if rules.BarkThickOverride <= 0 {
			m.DoubleBarkThick = 0
		}
	}
}

// failed maps the first stage failure to a zero-valued result with exactly
// one status code.
func failed(err error, eqID string) models.EstimationResult {
	code, ok := models.CodeOf(err)
	if !ok || code == models.StatusOK {
		code = models.StatusInsufficientMeasurement
	}
	return models.EstimationResult{
		EquationID:    eqID,
		Status:        code,
		StatusMessage: err.Error(),
	}
}
