package models

// SpeciesTraits carries per-species defaults used when a field measurement
// is absent: bark ratio substitution, a default Girard form class, and the
// wood density factors used for biomass. Traits are catalog data, loaded
// alongside the equation table.
type SpeciesTraits struct {
	Code             int     `json:"code" db:"code"`                 // FIA species code
	Name             string  `json:"name" db:"name"`
	BarkRatio        float64 `json:"bark_ratio" db:"bark_ratio"`     // dib/dob at breast height
	DefaultFormClass int     `json:"default_form_class" db:"default_form_class"` // 0 = none
	GreenDensityLb   float64 `json:"green_density_lb" db:"green_density_lb"`     // lb per cubic foot
	DryDensityLb     float64 `json:"dry_density_lb" db:"dry_density_lb"`
}
