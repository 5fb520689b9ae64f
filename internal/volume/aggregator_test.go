package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timber-platform/internal/bucking"
	"timber-platform/internal/models"
	"timber-platform/internal/profile"
)

func referenceStem(t *testing.T) (*profile.Model, models.TreeMeasurement) {
	t.Helper()
	m := models.TreeMeasurement{
		DBHOutsideBark: 20.0,
		TotalHeight:    100.0,
		FormClass:      80,
		BarkRatio:      0.90,
		Live:           true,
	}
	p, err := profile.New("F01PNWW202", m, models.SpeciesTraits{})
	require.NoError(t, err)
	return p, m
}

func sawtimberRules() models.MerchRules {
	r := models.DefaultMerchRules()
	r.MaxLogLength = 32
	r.MinLogLength = 8
	r.MinMerchLength = 8
	r.MinTopPrimary = 6
	r.MinTopSecondary = 0
	r.TrimLength = 1
	r.StumpHeight = 1
	return r
}

func aggregate(t *testing.T, rules models.MerchRules, units models.UnitFlags,
	traits models.SpeciesTraits, mutate func(*models.TreeMeasurement)) models.EstimationResult {
	t.Helper()
	p, m := referenceStem(t)
	if mutate != nil {
		mutate(&m)
	}
	buck, err := bucking.Segment(p, m, rules)
	require.NoError(t, err)
	return Aggregate(p, buck, m, rules, units, traits)
}

func TestAggregateReferenceStem(t *testing.T) {
	res := aggregate(t, sawtimberRules(), models.AllUnits(), models.SpeciesTraits{}, nil)

	require.Equal(t, 3, res.NumLogs)

	// Stump-to-tip cubic, checked against the closed-form integral of the
	// same taper (about 87.37 cuft).
	assert.InDelta(t, 87.37, res.CubicTotal, 0.2)
	assert.InDelta(t, 2.45, res.CubicStump, 0.1)
	assert.Greater(t, res.CubicTip, 0.0)

	// Scribner decimal C: 250 + 110 + 0 (third log is under the 8 in
	// board-foot minimum).
	assert.InDelta(t, 360.0, res.BoardFeetPrimary, 1e-9)
	assert.InDelta(t, 250.0, res.Logs[0].BoardFeet, 1e-9)
	assert.InDelta(t, 110.0, res.Logs[1].BoardFeet, 1e-9)
	assert.Zero(t, res.Logs[2].BoardFeet)

	// Cords derive from primary cubic.
	assert.InDelta(t, res.CubicPrimary/79.0, res.CordsPrimary, 0.01)

	// No defect inputs: nets equal gross.
	assert.Equal(t, res.CubicPrimary, res.CubicPrimaryNet)
	assert.Equal(t, res.BoardFeetPrimary, res.BoardFeetPrimaryNet)
}

// Total cubic is a property of the stem, not of the bucking pattern.
func TestCubicTotalIndependentOfLogLength(t *testing.T) {
	long := sawtimberRules()
	long.MaxLogLength = 40
	long.MinLogLength = 12

	short := sawtimberRules()
	short.MaxLogLength = 16
	short.MinLogLength = 12

	resLong := aggregate(t, long, models.AllUnits(), models.SpeciesTraits{}, nil)
	resShort := aggregate(t, short, models.AllUnits(), models.SpeciesTraits{}, nil)

	assert.Equal(t, resLong.CubicTotal, resShort.CubicTotal)

	// Scribner favors short logs: fewer inches lost to taper per scaling
	// cylinder, so the 16 ft pattern out-scales the 40 ft pattern.
	assert.Greater(t, resShort.BoardFeetPrimary, resLong.BoardFeetPrimary)
	assert.Greater(t, resShort.NumLogs, resLong.NumLogs)
}

// The stump-to-tip integral bounds the sum of log volumes: trim and the
// sub-minimum top are inside the total but outside every log.
func TestCubicTotalBoundsLogSum(t *testing.T) {
	for _, maxLen := range []float64{16, 24, 32, 40} {
		rules := sawtimberRules()
		rules.MaxLogLength = maxLen
		res := aggregate(t, rules, models.AllUnits(), models.SpeciesTraits{}, nil)

		var sum float64
		for _, log := range res.Logs {
			sum += log.CubicVolume
		}
		assert.GreaterOrEqual(t, res.CubicTotal+1e-9, sum, "max length %.0f", maxLen)
		assert.InDelta(t, sum, res.CubicPrimary+res.CubicSecondary, 0.05, "max length %.0f", maxLen)
	}
}

func TestBoardFootRules(t *testing.T) {
	log := models.Log{SmallEndDIB: 14.4, Length: 32}

	rules := models.DefaultMerchRules()
	rules.Rule = models.RuleScribner
	rules.ScaleCorrection = true
	assert.InDelta(t, 250.0, boardFeet(log, rules), 1e-9)

	rules.ScaleCorrection = false
	assert.InDelta(t, 245.68, boardFeet(log, rules), 1e-9)

	rules.Rule = models.RuleDoyle
	assert.InDelta(t, 200.0, boardFeet(log, rules), 1e-9)

	rules.Rule = models.RuleInternational
	intl := boardFeet(models.Log{SmallEndDIB: 10.0, Length: 16}, rules)
	assert.InDelta(t, 64.63, intl, 0.01)
}

func TestBoardFootMinimumDiameter(t *testing.T) {
	rules := models.DefaultMerchRules()
	rules.MinBoardFootDiam = 8

	assert.Zero(t, boardFeet(models.Log{SmallEndDIB: 7.9, Length: 16}, rules))
	assert.NotZero(t, boardFeet(models.Log{SmallEndDIB: 8.0, Length: 16}, rules))
	assert.Zero(t, boardFeet(models.Log{SmallEndDIB: 10, Length: 0}, rules))
}

func TestCullDeduction(t *testing.T) {
	res := aggregate(t, sawtimberRules(), models.AllUnits(), models.SpeciesTraits{},
		func(m *models.TreeMeasurement) { m.CullPercent = 10 })

	assert.InDelta(t, res.CubicPrimary*0.9, res.CubicPrimaryNet, 0.01)
	assert.InDelta(t, res.BoardFeetPrimary*0.9, res.BoardFeetPrimaryNet, 0.01)
	// Whole-tree defect model leaves per-log figures gross.
	assert.Equal(t, res.Logs[0].CubicVolume, res.Logs[0].CubicNet)
}

func TestDecayCodeTakesPrecedenceWhenMoreSevere(t *testing.T) {
	res := aggregate(t, sawtimberRules(), models.AllUnits(), models.SpeciesTraits{},
		func(m *models.TreeMeasurement) {
			m.CullPercent = 5
			m.DecayCode = 2 // 15 percent deduction
		})

	assert.InDelta(t, res.CubicPrimary*0.85, res.CubicPrimaryNet, 0.01)
}

func TestPerLogDefectModel(t *testing.T) {
	rules := sawtimberRules()
	rules.Defect = models.DefectPerLog
	res := aggregate(t, rules, models.AllUnits(), models.SpeciesTraits{},
		func(m *models.TreeMeasurement) { m.CullPercent = 20 })

	for _, log := range res.Logs {
		assert.InDelta(t, log.CubicVolume*0.8, log.CubicNet, 0.011, "log %d", log.Index)
		assert.InDelta(t, log.BoardFeet*0.8, log.BoardFeetNet, 0.011, "log %d", log.Index)
	}
}

func TestUnitFlagsGateReporting(t *testing.T) {
	units := models.UnitFlags{CubicTotal: true} // nothing else
	res := aggregate(t, sawtimberRules(), units, models.SpeciesTraits{}, nil)

	assert.NotZero(t, res.CubicTotal)
	assert.Zero(t, res.CubicPrimary)
	assert.Zero(t, res.BoardFeetPrimary)
	assert.Zero(t, res.CordsPrimary)
	assert.Zero(t, res.GreenBiomassLb)

	// The log table itself is always reported.
	assert.Equal(t, 3, res.NumLogs)
	assert.NotZero(t, res.Logs[0].CubicVolume)
}

func TestBiomassFromSpeciesDensity(t *testing.T) {
	traits := models.SpeciesTraits{GreenDensityLb: 39.0, DryDensityLb: 28.1}
	res := aggregate(t, sawtimberRules(), models.AllUnits(), traits, nil)

	assert.InDelta(t, res.CubicTotal*39.0, res.GreenBiomassLb, 0.5)
	assert.InDelta(t, res.CubicTotal*28.1, res.DryBiomassLb, 0.5)
	assert.Greater(t, res.GreenBiomassLb, res.DryBiomassLb)
}
