// Package volume converts stem geometry and bucked logs into the requested
// volume units, applying cull and bark deductions.
package volume

import (
	"math"

	"timber-platform/internal/bucking"
	"timber-platform/internal/models"
	"timber-platform/internal/profile"
)

const (
	// squareFeetPerSquareInchDisk converts a diameter in inches to a
	// circular cross-section area in square feet: pi / (4 * 144).
	areaCoefficient = math.Pi / 576

	// integrationStep is the sub-segment length for integrated-taper
	// cubic volume, feet. Per-log and whole-stem volumes use the same
	// step so the stump-to-tip total always bounds the sum of log
	// volumes from above.
	integrationStep = 0.5

	// solidCubicFeetPerCord is the solid-wood content of a standard
	// 128 cubic foot stacked cord.
	solidCubicFeetPerCord = 79.0
)

// decayDeduction maps decay codes 1-4 to volume deduction fractions.
var decayDeduction = [...]float64{0, 0.05, 0.15, 0.40, 0.75}

// Aggregate computes per-log and whole-stem volumes for a bucked tree.
// Gross cubic volume per log is an integrated-taper figure over the log's
// scaled length; total cubic is integrated stump to tip independent of
// bucking, so trim and sub-minimum residuals make it exceed the log sum.
// Unit flags gate reporting only, not computation of the log table.
func Aggregate(p *profile.Model, buck bucking.Result, m models.TreeMeasurement,
	rules models.MerchRules, units models.UnitFlags, traits models.SpeciesTraits) models.EstimationResult {

	stump := rules.StumpHeight
	if stump <= 0 {
		stump = m.StumpHeight
	}

	res := models.EstimationResult{
		MerchHeightPrimary:   buck.MerchHeightPrimary,
		MerchHeightSecondary: buck.MerchHeightSecondary,
	}

	cull := cullFraction(m)
	logs := make([]models.Log, len(buck.Logs))
	copy(logs, buck.Logs)

	for i := range logs {
		logs[i].CubicVolume = round2(cubicBetween(p, logs[i].BottomHeight, logs[i].TopHeight))
		logs[i].BoardFeet = boardFeet(logs[i], rules)

		perLog := 1.0
		if rules.Defect == models.DefectPerLog {
			perLog = 1 - cull
		}
		logs[i].CubicNet = round2(logs[i].CubicVolume * perLog)
		logs[i].BoardFeetNet = round2(logs[i].BoardFeet * perLog)

		switch logs[i].Product {
		case models.ProductSecondary:
			res.CubicSecondary += logs[i].CubicVolume
			res.BoardFeetSecondary += logs[i].BoardFeet
		default:
			res.CubicPrimary += logs[i].CubicVolume
			res.BoardFeetPrimary += logs[i].BoardFeet
		}
	}
	res.Logs = logs
	res.NumLogs = len(logs)

	// Whole-stem figures, independent of the log table.
	res.CubicTotal = round2(cubicBetween(p, stump, p.TotalHeight()))
	res.CubicStump = round2(cubicBetween(p, 0, stump))
	if n := len(logs); n > 0 {
		res.CubicTip = round2(cubicBetween(p, logs[n-1].TopHeight, p.TotalHeight()))
	}

	net := 1 - cull
	res.CubicPrimaryNet = round2(res.CubicPrimary * net)
	res.CubicSecondaryNet = round2(res.CubicSecondary * net)
	res.BoardFeetPrimaryNet = round2(res.BoardFeetPrimary * net)
	res.CubicPrimary = round2(res.CubicPrimary)
	res.CubicSecondary = round2(res.CubicSecondary)
	res.CordsPrimary = round2(res.CubicPrimary / solidCubicFeetPerCord)

	if units.Biomass {
		// Biomass derives from gross stem volume via species density,
		// independent of the cull adjustment.
		res.GreenBiomassLb = round2(res.CubicTotal * traits.GreenDensityLb)
		res.DryBiomassLb = round2(res.CubicTotal * traits.DryDensityLb)
	}

	applyUnitFlags(&res, units)
	return res
}

// cullFraction resolves the whole-stem defect deduction from the cull
// percent and decay code, taking the more severe of the two.
func cullFraction(m models.TreeMeasurement) float64 {
	frac := m.CullPercent / 100
	if m.DecayCode > 0 && m.DecayCode < len(decayDeduction) {
		frac = math.Max(frac, decayDeduction[m.DecayCode])
	}
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// cubicBetween integrates the inside-bark cross-section between two stem
// heights with Smalian's formula on short sub-segments.
func cubicBetween(p *profile.Model, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	var vol float64
	_, d1 := p.DiameterAt(lo)
	for h := lo; h < hi; {
		next := math.Min(h+integrationStep, hi)
		_, d2 := p.DiameterAt(next)
		vol += (areaCoefficient*d1*d1 + areaCoefficient*d2*d2) / 2 * (next - h)
		d1 = d2
		h = next
	}
	return vol
}

// applyUnitFlags zeroes figures the caller did not request.
func applyUnitFlags(res *models.EstimationResult, units models.UnitFlags) {
	if !units.CubicTotal {
		res.CubicTotal, res.CubicStump, res.CubicTip = 0, 0, 0
	}
	if !units.CubicPrim {
		res.CubicPrimary, res.CubicPrimaryNet = 0, 0
	}
	if !units.BoardFootPrim {
		res.BoardFeetPrimary, res.BoardFeetPrimaryNet = 0, 0
	}
	if !units.CordPrim {
		res.CordsPrimary = 0
	}
	if !units.SecondaryVol {
		res.CubicSecondary, res.CubicSecondaryNet, res.BoardFeetSecondary = 0, 0, 0
	}
}

// round2 rounds a reported figure to two decimals; all internal math stays
// in double precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
