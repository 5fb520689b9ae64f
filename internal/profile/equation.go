package profile

import (
	"strconv"
	"strings"

	"timber-platform/internal/models"
)

// Family identifies the taper model family an equation belongs to. The
// family alone determines which measurement fields are consulted; inputs the
// family does not use are ignored even when supplied.
type Family string

const (
	// FamilyFormClass derives the profile from DBH, total height and
	// Girard form class.
	FamilyFormClass Family = "F01"
	// FamilyUpperStem pins the profile to one or two measured upper-stem
	// diameter/height pairs.
	FamilyUpperStem Family = "F02"
)

// EquationID is the 10-character equation identifier resolved by the
// catalog: chars 1-3 model family, 4-6 geographic area, 7 source letter,
// 8-10 FIA species code. Example: "F01PNWW202".
type EquationID string

// Parse validates the identifier shape and splits out its parts.
func (id EquationID) Parse() (ParsedEquation, error) {
	s := string(id)
	if len(s) != 10 {
		return ParsedEquation{}, models.NewError(models.StatusNoEquationAvailable,
			"malformed equation id %q: want 10 characters, got %d", s, len(s))
	}
	fam := Family(strings.ToUpper(s[0:3]))
	if fam != FamilyFormClass && fam != FamilyUpperStem {
		return ParsedEquation{}, models.NewError(models.StatusNoEquationAvailable,
			"equation id %q: unsupported model family %q", s, s[0:3])
	}
	species, err := strconv.Atoi(s[7:10])
	if err != nil {
		return ParsedEquation{}, models.NewError(models.StatusNoEquationAvailable,
			"equation id %q: species field %q is not numeric", s, s[7:10])
	}
	return ParsedEquation{
		ID:      id,
		Family:  fam,
		Area:    s[3:6],
		Source:  s[6:7],
		Species: species,
	}, nil
}

// ParsedEquation is the decoded form of an EquationID.
type ParsedEquation struct {
	ID      EquationID
	Family  Family
	Area    string
	Source  string
	Species int
}
