package models

// JurisdictionKey identifies the administrative unit whose equation set
// applies. Forest and district are short fixed-width codes in the source
// data; they are normalized (trimmed/truncated) on construction.
type JurisdictionKey struct {
	Region   int    `json:"region" db:"region"`
	Forest   string `json:"forest" db:"forest"`
	District string `json:"district" db:"district"`
}

// MaxCodeLen is the maximum length of forest, district and product codes.
const MaxCodeLen = 2

// NewJurisdictionKey normalizes forest and district codes to MaxCodeLen.
func NewJurisdictionKey(region int, forest, district string) JurisdictionKey {
	return JurisdictionKey{
		Region:   region,
		Forest:   TruncateCode(forest),
		District: TruncateCode(district),
	}
}

// TruncateCode trims a short code to MaxCodeLen characters.
func TruncateCode(code string) string {
	if len(code) > MaxCodeLen {
		return code[:MaxCodeLen]
	}
	return code
}

// Unknown is the sentinel for optional numeric measurements that were not
// taken in the field. Zero is used rather than a negative flag value because
// no valid diameter, height or ratio is zero.
const Unknown = 0.0

// TreeMeasurement holds the field measurements for a single tree. All linear
// measurements are in one unit system per call (feet and inches here).
// Optional fields left at Unknown select substitute behavior: a missing bark
// ratio falls back to the species table, missing upper-stem points restrict
// the tree to form-class equations, and so on.
type TreeMeasurement struct {
	DBHOutsideBark  float64 `json:"dbh_ob"`             // diameter at breast height, outside bark, inches
	DRCOutsideBark  float64 `json:"drc_ob,omitempty"`   // diameter at root collar, outside bark, inches
	TotalHeight     float64 `json:"total_height"`       // feet
	StumpHeight     float64 `json:"stump_height"`       // feet
	UpperHeight1    float64 `json:"upper_height1,omitempty"` // reference height of UpperDiam1, feet
	UpperHeight2    float64 `json:"upper_height2,omitempty"`
	UpperDiam1      float64 `json:"upper_diam1,omitempty"` // inside-bark diameter at UpperHeight1, inches
	UpperDiam2      float64 `json:"upper_diam2,omitempty"`
	AvgZ1           float64 `json:"avg_z1,omitempty"` // blend weight for the segment ending at UpperHeight1
	AvgZ2           float64 `json:"avg_z2,omitempty"`
	FormClass       int     `json:"form_class,omitempty"`   // Girard form class, percent
	DoubleBarkThick float64 `json:"dbtbh,omitempty"`        // double bark thickness at breast height, inches
	BarkRatio       float64 `json:"bark_ratio,omitempty"`   // dib/dob at breast height
	CrownRatio      float64 `json:"crown_ratio,omitempty"`  // percent
	BreakHeight     float64 `json:"break_height,omitempty"` // known defect point, feet; 0 = none
	CullPercent     float64 `json:"cull_percent,omitempty"` // whole-stem defect deduction, percent
	DecayCode       int     `json:"decay_code,omitempty"`   // 0 = sound, 1..4 increasing decay
	Live            bool    `json:"live"`
}

// DefectModel selects how cull/decay deductions are distributed.
type DefectModel int

const (
	DefectWholeTree DefectModel = iota // single deduction applied to stem totals
	DefectPerLog                       // deduction applied to each log
)

// BoardFootRule identifies the log rule used for board-foot scaling.
type BoardFootRule string

const (
	RuleScribner      BoardFootRule = "SCRIBNER"
	RuleInternational BoardFootRule = "INT14"
	RuleDoyle         BoardFootRule = "DOYLE"
)

// MerchRules govern how the Bucker partitions a stem and how volumes are
// scaled. One instance per estimation call; never mutated during the call.
type MerchRules struct {
	Product           string        `json:"product"`           // primary product code, e.g. "01" sawtimber
	MinTopPrimary     float64       `json:"min_top_primary"`   // inches, inside bark
	MinTopSecondary   float64       `json:"min_top_secondary"` // inches; 0 disables topwood
	MaxLogLength      float64       `json:"max_log_length"`    // preferred log length, feet
	MinLogLength      float64       `json:"min_log_length"`    // feet
	MinMerchLength    float64       `json:"min_merch_length"`  // minimum merchantable stem, feet
	TrimLength        float64       `json:"trim_length"`       // feet consumed per log beyond scaled length
	StumpHeight       float64       `json:"stump_height"`      // feet; overrides measurement when > 0
	BarkThickOverride float64       `json:"dbtbh_override,omitempty"`
	BarkRatioOverride float64       `json:"btr_override,omitempty"`
	EvenLengths       bool          `json:"even_lengths"`  // restrict candidate lengths to even feet
	MinBoardFootDiam  float64       `json:"min_bdft_diam"` // inches; smaller logs scale 0 bdft
	Rule              BoardFootRule `json:"board_foot_rule"`
	ScaleCorrection   bool          `json:"scale_correction"` // Scribner decimal-C rounding
	Defect            DefectModel   `json:"defect_model"`
}

// DefaultMerchRules mirrors the conventional sawtimber rule set used by
// field cruisers: 40 ft preferred logs, 12 ft minimum, 5 in primary top,
// 2 in topwood, 1 ft stump and trim.
func DefaultMerchRules() MerchRules {
	return MerchRules{
		Product:          "01",
		MinTopPrimary:    5.0,
		MinTopSecondary:  2.0,
		MaxLogLength:     40.0,
		MinLogLength:     12.0,
		MinMerchLength:   12.0,
		TrimLength:       1.0,
		StumpHeight:      1.0,
		EvenLengths:      false,
		MinBoardFootDiam: 8.0,
		Rule:             RuleScribner,
		ScaleCorrection:  true,
		Defect:           DefectWholeTree,
	}
}

// Validate checks the rule set for internal consistency. Bucking never runs
// against invalid rules.
func (r MerchRules) Validate() error {
	switch {
	case r.MinLogLength <= 0:
		return NewError(StatusInvalidRules, "minimum log length must be positive")
	case r.MaxLogLength < r.MinLogLength:
		return NewError(StatusInvalidRules, "maximum log length below minimum log length")
	case r.TrimLength < 0:
		return NewError(StatusInvalidRules, "trim length must be non-negative")
	case r.TrimLength >= r.MaxLogLength:
		return NewError(StatusInvalidRules, "trim length must be shorter than the preferred log length")
	case r.MinTopPrimary < 0 || r.MinTopSecondary < 0:
		return NewError(StatusInvalidRules, "minimum top diameters must be non-negative")
	case r.MinMerchLength < 0:
		return NewError(StatusInvalidRules, "minimum merchantable length must be non-negative")
	case r.StumpHeight < 0:
		return NewError(StatusInvalidRules, "stump height must be non-negative")
	}
	return nil
}

// ProductClass tags each log with the product it was bucked against.
type ProductClass string

const (
	ProductPrimary   ProductClass = "primary"
	ProductSecondary ProductClass = "secondary"
)

// Log is one merchantable segment of the stem. Logs are ordered
// bottom-to-top; Index 1 is always the butt log.
type Log struct {
	Index        int          `json:"index"`
	BottomHeight float64      `json:"bottom_height"` // feet above ground
	TopHeight    float64      `json:"top_height"`    // feet above ground, scaling cut
	Length       float64      `json:"length"`        // scaled length, feet
	LargeEndDIB  float64      `json:"large_end_dib"` // inches
	SmallEndDIB  float64      `json:"small_end_dib"` // inches
	LargeEndDOB  float64      `json:"large_end_dob"`
	SmallEndDOB  float64      `json:"small_end_dob"`
	Product      ProductClass `json:"product"`
	CubicVolume  float64      `json:"cubic_volume"` // gross, cubic feet
	BoardFeet    float64      `json:"board_feet"`   // gross
	CubicNet     float64      `json:"cubic_net"`    // after cull deduction
	BoardFeetNet float64      `json:"board_feet_net"`
}

// UnitFlags select which volume figures the caller wants populated.
// The geometry is computed regardless; flags only gate reporting.
type UnitFlags struct {
	CubicTotal    bool `json:"cubic_total"`
	BoardFootPrim bool `json:"bdft_primary"`
	CubicPrim     bool `json:"cubic_primary"`
	CordPrim      bool `json:"cord_primary"`
	SecondaryVol  bool `json:"secondary_volume"`
	Biomass       bool `json:"biomass"`
}

// AllUnits requests every figure the engine produces.
func AllUnits() UnitFlags {
	return UnitFlags{
		CubicTotal:    true,
		BoardFootPrim: true,
		CubicPrim:     true,
		CordPrim:      true,
		SecondaryVol:  true,
		Biomass:       true,
	}
}

// Advisory flags mark approximate-input situations. They are not errors:
// the result is usable, but downstream reporting can distinguish measured
// from estimated inputs.
type Advisory uint8

const (
	AdvisoryBarkEstimated Advisory = 1 << iota // species-table bark ratio substituted
	AdvisoryDefaultEquation                    // catalog fallback equation used
	AdvisoryFormClassDefault                   // species-table form class substituted
)

// Has reports whether flag is set.
func (a Advisory) Has(flag Advisory) bool { return a&flag != 0 }

// EstimationResult is the single structured output of one estimate call.
// When Status is not StatusOK every volume field is zero.
type EstimationResult struct {
	EquationID    string     `json:"equation_id"`
	Status        StatusCode `json:"status"`
	StatusMessage string     `json:"status_message,omitempty"`
	Advisories    Advisory   `json:"advisories"`

	CubicTotal          float64 `json:"cuft_total"`   // stump-to-tip, independent of bucking
	CubicStump          float64 `json:"cuft_stump"`   // ground to stump
	CubicTip            float64 `json:"cuft_tip"`     // above the merchantable top
	CubicPrimary        float64 `json:"cuft_primary"` // gross, sum of primary logs
	CubicPrimaryNet     float64 `json:"cuft_primary_net"`
	CubicSecondary      float64 `json:"cuft_secondary"`
	CubicSecondaryNet   float64 `json:"cuft_secondary_net"`
	BoardFeetPrimary    float64 `json:"bdft_primary"`
	BoardFeetPrimaryNet float64 `json:"bdft_primary_net"`
	BoardFeetSecondary  float64 `json:"bdft_secondary"`
	CordsPrimary        float64 `json:"cords_primary"`

	MerchHeightPrimary   float64 `json:"merch_height_primary"`   // feet
	MerchHeightSecondary float64 `json:"merch_height_secondary"` // feet

	GreenBiomassLb float64 `json:"green_biomass_lb,omitempty"`
	DryBiomassLb   float64 `json:"dry_biomass_lb,omitempty"`

	Logs    []Log `json:"logs"`
	NumLogs int   `json:"num_logs"`
}
