package profile

import (
	"math"

	"timber-platform/internal/models"
)

const (
	breastHeight = 4.5  // feet
	formHeight   = 17.3 // feet; top of the first 16-ft log plus 1.3 ft stump

	// behreA is the Behre hyperbola shape constant shared by both
	// families when extending the profile to the tip. Smaller values give
	// a fuller stem near the base and a sharper tip.
	behreA = 0.35

	// buttFlare is the fractional diameter increase at ground line
	// relative to breast height.
	buttFlare = 0.2

	// inversion tolerance and iteration bound for HeightAtDiameter.
	heightTolerance = 1e-6
	maxIterations   = 100
)

// SearchDirection selects which end of the stem HeightAtDiameter scans from.
// The default profile contract is monotone taper, so both directions locate
// the same crossing; the parameter is preserved for callers that supply it.
type SearchDirection int

const (
	SearchFromButt SearchDirection = iota
	SearchFromTop
)

// Model is an evaluated stem profile: a continuous map from height above
// ground to inside- and outside-bark diameter, valid on [0, TotalHeight].
// Diameter is non-increasing with height; butt swell below breast height is
// the only widening, and it widens downward.
type Model struct {
	eq         ParsedEquation
	totalHt    float64
	dbhOB      float64
	dbhIB      float64
	barkRatio  float64
	advisories models.Advisory

	// form-class family
	d17 float64

	// upper-stem family: knots strictly above breast height, ascending.
	knotHt   []float64
	knotDIB  []float64
	knotZ    []float64
}

// New builds the profile model for an equation and measurement set. Required
// inputs are validated here, before any geometry is computed; the returned
// error carries StatusInsufficientMeasurement when a field the selected
// family needs is absent or unusable.
func New(id EquationID, m models.TreeMeasurement, traits models.SpeciesTraits) (*Model, error) {
	eq, err := id.Parse()
	if err != nil {
		return nil, err
	}
	if m.DBHOutsideBark <= 0 {
		return nil, models.NewError(models.StatusInsufficientMeasurement,
			"equation %s requires breast-height diameter", id)
	}
	if m.TotalHeight <= breastHeight {
		return nil, models.NewError(models.StatusInsufficientMeasurement,
			"equation %s requires total height above breast height, got %.1f ft", id, m.TotalHeight)
	}

	p := &Model{
		eq:      eq,
		totalHt: m.TotalHeight,
		dbhOB:   m.DBHOutsideBark,
	}

	p.barkRatio, p.advisories = barkRatio(m, traits)
	p.dbhIB = p.dbhOB * p.barkRatio

	switch eq.Family {
	case FamilyFormClass:
		if m.FormClass <= 0 {
			return nil, models.NewError(models.StatusInsufficientMeasurement,
				"equation %s requires Girard form class", id)
		}
		p.d17 = p.dbhOB * float64(m.FormClass) / 100.0
		// Form class above the bark ratio would put the 17.3 ft
		// diameter above breast height diameter; pin it back.
		if p.d17 > p.dbhIB {
			p.d17 = p.dbhIB
		}

	case FamilyUpperStem:
		if m.UpperDiam1 <= 0 || m.UpperHeight1 <= breastHeight {
			return nil, models.NewError(models.StatusInsufficientMeasurement,
				"equation %s requires an upper-stem diameter above breast height", id)
		}
		if m.UpperHeight1 >= m.TotalHeight || m.UpperDiam1 >= p.dbhIB {
			return nil, models.NewError(models.StatusInsufficientMeasurement,
				"equation %s: upper-stem point (%.1f ft, %.1f in) is outside the taper envelope",
				id, m.UpperHeight1, m.UpperDiam1)
		}
		p.knotHt = append(p.knotHt, m.UpperHeight1)
		p.knotDIB = append(p.knotDIB, m.UpperDiam1)
		p.knotZ = append(p.knotZ, blendWeight(m.AvgZ1))

		if m.UpperDiam2 > 0 && m.UpperHeight2 > m.UpperHeight1 {
			if m.UpperHeight2 >= m.TotalHeight || m.UpperDiam2 >= m.UpperDiam1 {
				return nil, models.NewError(models.StatusInsufficientMeasurement,
					"equation %s: second upper-stem point (%.1f ft, %.1f in) is outside the taper envelope",
					id, m.UpperHeight2, m.UpperDiam2)
			}
			p.knotHt = append(p.knotHt, m.UpperHeight2)
			p.knotDIB = append(p.knotDIB, m.UpperDiam2)
			p.knotZ = append(p.knotZ, blendWeight(m.AvgZ2))
		}
	}

	return p, nil
}

// blendWeight clamps an avgz parameter into [0,1], defaulting to an equal
// blend when unset.
func blendWeight(z float64) float64 {
	if z <= 0 {
		return 0.5
	}
	if z > 1 {
		return 1
	}
	return z
}

// barkRatio resolves the inside/outside bark ratio at breast height.
// Precedence: measured double bark thickness, measured ratio, species table.
// The species-table substitution is an approximation and is flagged.
func barkRatio(m models.TreeMeasurement, traits models.SpeciesTraits) (float64, models.Advisory) {
	if m.DoubleBarkThick > 0 && m.DoubleBarkThick < m.DBHOutsideBark {
		return (m.DBHOutsideBark - m.DoubleBarkThick) / m.DBHOutsideBark, 0
	}
	if m.BarkRatio > 0 && m.BarkRatio <= 1 {
		return m.BarkRatio, 0
	}
	if traits.BarkRatio > 0 && traits.BarkRatio <= 1 {
		return traits.BarkRatio, models.AdvisoryBarkEstimated
	}
	// No bark information anywhere: treat the stem as measured inside
	// bark. Flagged, because reported outside-bark figures collapse onto
	// the inside-bark profile.
	return 1.0, models.AdvisoryBarkEstimated
}

// Advisories reports approximate-input substitutions made at construction.
func (p *Model) Advisories() models.Advisory { return p.advisories }

// BarkRatio returns the resolved dib/dob ratio.
func (p *Model) BarkRatio() float64 { return p.barkRatio }

// TotalHeight returns the stem's total height in feet.
func (p *Model) TotalHeight() float64 { return p.totalHt }

// Equation returns the parsed equation the model evaluates.
func (p *Model) Equation() ParsedEquation { return p.eq }

// DiameterAt evaluates the profile at a height above ground, returning the
// outside-bark and inside-bark diameters in inches. Heights outside
// [0, TotalHeight] are clamped to the profile's domain.
func (p *Model) DiameterAt(height float64) (dob, dib float64) {
	h := math.Max(0, math.Min(height, p.totalHt))
	dib = p.dibAt(h)
	return dib / p.barkRatio, dib
}

func (p *Model) dibAt(h float64) float64 {
	if h < breastHeight {
		return p.dbhIB * (1 + buttFlare*(breastHeight-h)/breastHeight)
	}
	switch p.eq.Family {
	case FamilyFormClass:
		return p.formClassDIB(h)
	default:
		return p.upperStemDIB(h)
	}
}

// formClassDIB evaluates the form-class family above breast height: linear
// between the breast-height and 17.3 ft pins, Behre hyperbola from 17.3 ft
// to the tip. Trees shorter than the form reference height degrade to a
// cone from breast height.
func (p *Model) formClassDIB(h float64) float64 {
	if p.totalHt <= formHeight {
		return p.dbhIB * (p.totalHt - h) / (p.totalHt - breastHeight)
	}
	if h <= formHeight {
		t := (h - breastHeight) / (formHeight - breastHeight)
		return p.dbhIB + (p.d17-p.dbhIB)*t
	}
	x := (p.totalHt - h) / (p.totalHt - formHeight)
	return p.d17 * behre(x)
}

// behre is the normalized Behre hyperbola: 1 at x=1, 0 at x=0, concave.
func behre(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (behreA + (1-behreA)*x)
}

// upperStemDIB evaluates the upper-stem family: blended linear/conic
// interpolation through the measured knots, Behre extension from the highest
// knot to the tip.
func (p *Model) upperStemDIB(h float64) float64 {
	lowHt, lowD := breastHeight, p.dbhIB
	for i, kh := range p.knotHt {
		if h <= kh {
			return blendSegment(lowHt, lowD, kh, p.knotDIB[i], h, p.knotZ[i])
		}
		lowHt, lowD = kh, p.knotDIB[i]
	}
	// Above the last measured point: Behre taper to zero at the tip.
	x := (p.totalHt - h) / (p.totalHt - lowHt)
	return lowD * behre(x)
}

// blendSegment interpolates diameter between two stem points as a weighted
// blend of linear interpolation and conic (area-linear) interpolation.
func blendSegment(h1, d1, h2, d2, h, z float64) float64 {
	t := (h - h1) / (h2 - h1)
	lin := d1 + (d2-d1)*t
	con := math.Sqrt(d1*d1 + (d2*d2-d1*d1)*t)
	return (1-z)*lin + z*con
}

// HeightAtDiameter inverts the profile: the height at which the stem tapers
// to targetDIB inches inside bark. The search is bounded to
// [0, TotalHeight]; a target wider than the ground-line diameter fails with
// DiameterNotReached rather than extrapolating below ground, and the
// bisection fails with ConvergenceFailure if the bracket has not collapsed
// within the iteration budget.
func (p *Model) HeightAtDiameter(targetDIB float64, dir SearchDirection) (float64, error) {
	if targetDIB < 0 {
		return 0, models.NewError(models.StatusDiameterNotReached,
			"target diameter %.2f in is negative", targetDIB)
	}
	lo, hi := 0.0, p.totalHt
	if targetDIB > p.dibAt(lo) {
		return 0, models.NewError(models.StatusDiameterNotReached,
			"stem never reaches %.2f in: ground-line diameter is %.2f in", targetDIB, p.dibAt(lo))
	}
	if targetDIB <= p.dibAt(hi) {
		return hi, nil
	}

	// dib is non-increasing on [lo, hi]; classic bisection on
	// f(h) = dib(h) - target keeps the crossing bracketed.
	for i := 0; i < maxIterations; i++ {
		if hi-lo <= heightTolerance {
			break
		}
		mid := 0.5 * (lo + hi)
		if p.dibAt(mid) >= targetDIB {
			lo = mid
		} else {
			hi = mid
		}
	}
	if hi-lo > heightTolerance {
		return 0, models.NewError(models.StatusConvergenceFailure,
			"height search for %.2f in did not converge within %d iterations", targetDIB, maxIterations)
	}
	if dir == SearchFromTop {
		return hi, nil
	}
	return lo, nil
}
