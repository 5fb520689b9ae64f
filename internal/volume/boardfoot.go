package volume

import (
	"math"

	"timber-platform/internal/models"
)

// Board-foot scaling is table-driven per log rule, never derived from cubic
// volume. Diameters are the log's small-end inside-bark diameter dropped to
// whole inches, as a scaler would read it.

// boardFeet scales one log under the selected rule. Logs whose small end is
// below the minimum board-foot diameter scale zero.
func boardFeet(log models.Log, rules models.MerchRules) float64 {
	d := math.Floor(log.SmallEndDIB)
	if d < rules.MinBoardFootDiam || d <= 0 || log.Length <= 0 {
		return 0
	}

	var bf float64
	switch rules.Rule {
	case models.RuleInternational:
		bf = international14(d, log.Length)
	case models.RuleDoyle:
		bf = doyle(d, log.Length)
	default:
		bf = scribner(d, log.Length)
		if rules.ScaleCorrection {
			// Scribner decimal C: volumes reported to the nearest
			// ten board feet.
			bf = math.Round(bf/10) * 10
		}
	}
	if bf < 0 {
		return 0
	}
	return bf
}

// scribner is the smoothed Scribner rule.
func scribner(d, length float64) float64 {
	return (0.79*d*d - 2*d - 4) * length / 16
}

// doyle undercuts small logs heavily; kept for jurisdictions that still
// trade on it.
func doyle(d, length float64) float64 {
	side := d - 4
	return side * side * length / 16
}

// international14 is the International 1/4-inch rule: 4-ft segments with a
// fixed 0.5 in taper allowance per segment, partial segments prorated.
func international14(d, length float64) float64 {
	var bf float64
	remaining := length
	segD := d
	for remaining > 0 {
		seg := math.Min(4, remaining)
		bf += (0.199*segD*segD - 0.642*segD) * seg / 4
		segD += 0.5
		remaining -= seg
	}
	return bf
}
