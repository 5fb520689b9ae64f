// Package catalog resolves jurisdiction and species keys to volume equation
// identifiers. The catalog is loaded once at process start and never mutated
// afterward; concurrent resolution needs no coordination.
package catalog

import (
	"fmt"

	"timber-platform/internal/models"
	"timber-platform/internal/profile"
)

// GenericSpecies is the catalog's catch-all species code: every configured
// region carries a generic entry so unrecognized species still resolve.
const GenericSpecies = 999

// Entry is one row of the versioned equation table.
type Entry struct {
	Region     int    `json:"region" db:"region"`
	Forest     string `json:"forest" db:"forest"`     // empty = region-wide
	District   string `json:"district" db:"district"` // empty = forest-wide
	Species    int    `json:"species" db:"species"`
	Product    string `json:"product" db:"product"` // empty = any product
	EquationID string `json:"equation_id" db:"equation_id"`
}

// Catalog is the immutable lookup table. Build one with Load; reads are
// lock-free.
type Catalog struct {
	entries map[string]profile.EquationID
	traits  map[int]models.SpeciesTraits
	regions map[int]struct{}
	version string
}

// Load builds a catalog from equation entries and species traits. Codes are
// normalized the same way lookups are, so fixed-width source data and
// variable-length callers meet in the middle.
func Load(version string, entries []Entry, traits []models.SpeciesTraits) *Catalog {
	c := &Catalog{
		entries: make(map[string]profile.EquationID, len(entries)),
		traits:  make(map[int]models.SpeciesTraits, len(traits)),
		regions: make(map[int]struct{}),
		version: version,
	}
	for _, e := range entries {
		key := lookupKey(e.Region, models.TruncateCode(e.Forest), models.TruncateCode(e.District), e.Species, models.TruncateCode(e.Product))
		c.entries[key] = profile.EquationID(e.EquationID)
		c.regions[e.Region] = struct{}{}
	}
	for _, t := range traits {
		c.traits[t.Code] = t
	}
	return c
}

// Version identifies the loaded equation table.
func (c *Catalog) Version() string { return c.version }

func lookupKey(region int, forest, district string, species int, product string) string {
	return fmt.Sprintf("%d|%s|%s|%d|%s", region, forest, district, species, product)
}

// Resolve maps a jurisdiction, species and product to an equation
// identifier. Lookup is exact-match first, then progressively wider:
// district-and-forest default product, region-wide species default, and
// finally the region's generic-species equation. The second return reports
// whether a fallback (non-exact) entry served the request.
func (c *Catalog) Resolve(key models.JurisdictionKey, species int, product string) (profile.EquationID, bool, error) {
	if _, ok := c.regions[key.Region]; !ok {
		return "", false, models.NewError(models.StatusUnknownJurisdiction,
			"region %d is outside the configured equation table", key.Region)
	}
	forest := models.TruncateCode(key.Forest)
	district := models.TruncateCode(key.District)
	product = models.TruncateCode(product)

	if id, ok := c.entries[lookupKey(key.Region, forest, district, species, product)]; ok {
		return id, false, nil
	}
	fallbacks := []string{
		lookupKey(key.Region, forest, district, species, ""),
		lookupKey(key.Region, "", "", species, product),
		lookupKey(key.Region, "", "", species, ""),
		lookupKey(key.Region, "", "", GenericSpecies, ""),
	}
	for _, k := range fallbacks {
		if id, ok := c.entries[k]; ok {
			return id, true, nil
		}
	}
	return "", false, models.NewError(models.StatusNoEquationAvailable,
		"no equation for species %d in region %d (forest %q, district %q)",
		species, key.Region, forest, district)
}

// ResolveDefault resolves without a product constraint.
func (c *Catalog) ResolveDefault(key models.JurisdictionKey, species int) (profile.EquationID, bool, error) {
	return c.Resolve(key, species, "")
}

// Traits returns the species defaults, falling back to the generic species
// when the code is not in the table.
func (c *Catalog) Traits(species int) models.SpeciesTraits {
	if t, ok := c.traits[species]; ok {
		return t
	}
	return c.traits[GenericSpecies]
}
