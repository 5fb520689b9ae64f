package catalog

import "timber-platform/internal/models"

// Embedded default tables. The server loads the versioned tables from the
// database at startup; the CLI and tests run against these built-in
// defaults. Equation identifiers follow the 10-character layout documented
// in the profile package.

// EmbeddedVersion labels the built-in table revision.
const EmbeddedVersion = "embedded-2025.2"

// Default returns a catalog built from the embedded tables.
func Default() *Catalog {
	return Load(EmbeddedVersion, DefaultEntries(), DefaultSpeciesTraits())
}

// DefaultEntries is the built-in equation table: generic coverage for
// regions 1-10 with denser coverage in region 6 (Pacific Northwest).
func DefaultEntries() []Entry {
	entries := []Entry{
		// Region 6, Douglas-fir (202): form-class sawtimber equation by
		// default, upper-stem equation for cruises that carry upper
		// measurements (product 08).
		{Region: 6, Species: 202, Product: "01", EquationID: "F01PNWW202"},
		{Region: 6, Species: 202, Product: "08", EquationID: "F02PNWW202"},
		{Region: 6, Species: 202, EquationID: "F01PNWW202"},
		{Region: 6, Forest: "12", District: "01", Species: 202, Product: "01", EquationID: "F01SIUW202"},

		// Region 6, other common westside species.
		{Region: 6, Species: 122, EquationID: "F01PNWW122"}, // ponderosa pine
		{Region: 6, Species: 242, EquationID: "F01PNWW242"}, // western redcedar
		{Region: 6, Species: 263, EquationID: "F01PNWW263"}, // western hemlock
		{Region: 6, Species: 17, EquationID: "F02PNWW017"},  // grand fir, upper-stem cruise

		// Region 1 northern Rockies samples.
		{Region: 1, Species: 202, EquationID: "F01NRMW202"},
		{Region: 1, Species: 73, EquationID: "F01NRMW073"}, // western larch
	}
	// Region-wide generic equations so unrecognized species still resolve
	// everywhere the table is configured.
	for region := 1; region <= 10; region++ {
		entries = append(entries, Entry{
			Region:     region,
			Species:    GenericSpecies,
			EquationID: "F01GENW999",
		})
	}
	return entries
}

// DefaultSpeciesTraits is the built-in species attribute table. Bark ratios
// and densities are round field-book figures, not lab constants.
func DefaultSpeciesTraits() []models.SpeciesTraits {
	return []models.SpeciesTraits{
		{Code: 202, Name: "Douglas-fir", BarkRatio: 0.90, DefaultFormClass: 80, GreenDensityLb: 39.0, DryDensityLb: 28.1},
		{Code: 122, Name: "ponderosa pine", BarkRatio: 0.88, DefaultFormClass: 78, GreenDensityLb: 45.0, DryDensityLb: 25.0},
		{Code: 242, Name: "western redcedar", BarkRatio: 0.92, DefaultFormClass: 74, GreenDensityLb: 27.0, DryDensityLb: 19.7},
		{Code: 263, Name: "western hemlock", BarkRatio: 0.91, DefaultFormClass: 79, GreenDensityLb: 41.0, DryDensityLb: 26.2},
		{Code: 73, Name: "western larch", BarkRatio: 0.87, DefaultFormClass: 78, GreenDensityLb: 46.0, DryDensityLb: 32.0},
		{Code: 17, Name: "grand fir", BarkRatio: 0.91, GreenDensityLb: 44.0, DryDensityLb: 22.5},
		{Code: GenericSpecies, Name: "generic softwood", BarkRatio: 0.89, GreenDensityLb: 40.0, DryDensityLb: 26.0},
	}
}
