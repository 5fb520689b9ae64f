// Package bucking partitions a stem profile into merchantable logs under a
// merchandising rule set.
package bucking

import (
	"math"

	"timber-platform/internal/models"
	"timber-platform/internal/profile"
)

// Result carries the bucked log sequence together with the merchantable
// heights located during the walk. Heights are zero when the corresponding
// product produced no logs.
type Result struct {
	Logs                 []models.Log
	MerchHeightPrimary   float64
	MerchHeightSecondary float64
}

// Segment walks the stem upward from stump height and cuts logs against the
// rule set. Candidate lengths are tried from the preferred length downward
// to the minimum; the first candidate whose small-end diameter meets the
// active product's minimum top is accepted. Each accepted log consumes its
// length plus trim. When the primary minimum top can no longer be met the
// walk switches to the secondary product, if one is configured.
//
// An unmerchantable tree (stump at or above the usable top, or minimum top
// unmet at the stump) yields an empty sequence and no error.
func Segment(p *profile.Model, m models.TreeMeasurement, rules models.MerchRules) (Result, error) {
	if err := rules.Validate(); err != nil {
		return Result{}, err
	}

	stump := rules.StumpHeight
	if stump <= 0 {
		stump = m.StumpHeight
	}

	// A known defect point truncates bucking regardless of the remaining
	// merchantable stem.
	limit := p.TotalHeight()
	if m.BreakHeight > 0 && m.BreakHeight < limit {
		limit = m.BreakHeight
	}
	if stump >= limit {
		return Result{}, nil
	}

	res := Result{}
	res.MerchHeightPrimary = merchHeight(p, rules.MinTopPrimary, stump, limit)
	if rules.MinTopSecondary > 0 {
		res.MerchHeightSecondary = merchHeight(p, rules.MinTopSecondary, stump, limit)
	}

	// Below the minimum merchantable stem length the whole tree is
	// rejected: a valid zero-volume outcome, not an error.
	if res.MerchHeightPrimary-stump < rules.MinMerchLength {
		return res, nil
	}

	bottom := stump
	product := models.ProductPrimary
	minTop := rules.MinTopPrimary

	for {
		length := nextLogLength(p, rules, bottom, limit, minTop)
		if length <= 0 {
			if product == models.ProductPrimary && rules.MinTopSecondary > 0 && rules.MinTopSecondary < rules.MinTopPrimary {
				product = models.ProductSecondary
				minTop = rules.MinTopSecondary
				continue
			}
			break
		}

		top := bottom + length
		lgDOB, lgDIB := p.DiameterAt(bottom)
		smDOB, smDIB := p.DiameterAt(top)
		res.Logs = append(res.Logs, models.Log{
			Index:        len(res.Logs) + 1,
			BottomHeight: bottom,
			TopHeight:    top,
			Length:       length,
			LargeEndDIB:  smallRound(lgDIB),
			SmallEndDIB:  smallRound(smDIB),
			LargeEndDOB:  smallRound(lgDOB),
			SmallEndDOB:  smallRound(smDOB),
			Product:      product,
		})

		bottom = top + rules.TrimLength
	}

	return res, nil
}

// nextLogLength picks the longest candidate length at or below the preferred
// length whose implied small end meets the minimum top diameter. Candidates
// descend in 1-ft steps, or 2-ft steps when even lengths are preferred.
// Returns 0 when no candidate qualifies within the remaining stem.
func nextLogLength(p *profile.Model, rules models.MerchRules, bottom, limit, minTop float64) float64 {
	avail := limit - bottom
	if avail < rules.MinLogLength {
		return 0
	}

	step := 1.0
	start := math.Floor(rules.MaxLogLength)
	if rules.EvenLengths {
		step = 2.0
		if math.Mod(start, 2) != 0 {
			start--
		}
	}

	for length := start; length >= rules.MinLogLength; length -= step {
		if length > avail {
			continue
		}
		if _, dib := p.DiameterAt(bottom + length); dib >= minTop {
			return length
		}
	}
	return 0
}

// merchHeight locates the height where the stem tapers to the given top
// diameter, clamped to the bucking window. A top unmet even at the stump
// yields the stump height itself (zero merchantable length).
func merchHeight(p *profile.Model, minTop, stump, limit float64) float64 {
	if minTop <= 0 {
		return limit
	}
	if _, dib := p.DiameterAt(stump); dib < minTop {
		return stump
	}
	h, err := p.HeightAtDiameter(minTop, profile.SearchFromButt)
	if err != nil {
		// Wider than the ground-line diameter cannot happen past the
		// stump check; treat any residual failure as no merch stem.
		return stump
	}
	return math.Min(h, limit)
}

// smallRound snaps reported diameters to 0.01 in, matching field scaling
// precision without disturbing the double-precision profile math.
func smallRound(d float64) float64 {
	return math.Round(d*100) / 100
}
