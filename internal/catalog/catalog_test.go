package catalog

import (
	"testing"

	"timber-platform/internal/models"
	"timber-platform/internal/profile"
)

func TestResolveFallbackChain(t *testing.T) {
	c := Default()

	tests := []struct {
		name         string
		key          models.JurisdictionKey
		species      int
		product      string
		wantID       profile.EquationID
		wantFallback bool
	}{
		{
			name:    "exact district entry",
			key:     models.NewJurisdictionKey(6, "12", "01"),
			species: 202,
			product: "01",
			wantID:  "F01SIUW202",
		},
		{
			name:         "unmatched district falls back to region product entry",
			key:          models.NewJurisdictionKey(6, "99", "99"),
			species:      202,
			product:      "01",
			wantID:       "F01PNWW202",
			wantFallback: true,
		},
		{
			name:         "upper-stem product selects the F02 equation",
			key:          models.NewJurisdictionKey(6, "99", ""),
			species:      202,
			product:      "08",
			wantID:       "F02PNWW202",
			wantFallback: true,
		},
		{
			name:         "unknown product falls back to species default",
			key:          models.NewJurisdictionKey(6, "", ""),
			species:      242,
			product:      "77",
			wantID:       "F01PNWW242",
			wantFallback: true,
		},
		{
			name:         "unknown species falls back to the regional generic",
			key:          models.NewJurisdictionKey(6, "", ""),
			species:      55555,
			product:      "01",
			wantID:       "F01GENW999",
			wantFallback: true,
		},
		{
			name:         "sparser region still resolves",
			key:          models.NewJurisdictionKey(1, "", ""),
			species:      73,
			product:      "",
			wantID:       "F01NRMW073",
			wantFallback: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, fallback, err := c.Resolve(tt.key, tt.species, tt.product)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if id != tt.wantID {
				t.Errorf("Resolve() id = %q, want %q", id, tt.wantID)
			}
			if fallback != tt.wantFallback {
				t.Errorf("Resolve() fallback = %v, want %v", fallback, tt.wantFallback)
			}
		})
	}
}

func TestResolveUnknownRegion(t *testing.T) {
	c := Default()

	_, _, err := c.Resolve(models.NewJurisdictionKey(99, "", ""), 202, "01")
	if err == nil {
		t.Fatal("Resolve() = nil error for unconfigured region")
	}
	code, ok := models.CodeOf(err)
	if !ok || code != models.StatusUnknownJurisdiction {
		t.Errorf("CodeOf(err) = %v, %v, want StatusUnknownJurisdiction", code, ok)
	}
}

func TestResolveNoEquation(t *testing.T) {
	// A table without generic coverage: region configured, chain exhausted.
	c := Load("test", []Entry{
		{Region: 2, Species: 100, EquationID: "F01TSTW100"},
	}, nil)

	_, _, err := c.Resolve(models.NewJurisdictionKey(2, "", ""), 555, "")
	if err == nil {
		t.Fatal("Resolve() = nil error with no matching entry")
	}
	code, ok := models.CodeOf(err)
	if !ok || code != models.StatusNoEquationAvailable {
		t.Errorf("CodeOf(err) = %v, %v, want StatusNoEquationAvailable", code, ok)
	}
}

func TestResolveNormalizesCodes(t *testing.T) {
	c := Load("test", []Entry{
		{Region: 6, Forest: "1234", District: "015", Species: 202, Product: "011", EquationID: "F01TSTW202"},
	}, nil)

	// Caller codes longer than the fixed width truncate to the same key.
	id, fallback, err := c.Resolve(models.NewJurisdictionKey(6, "12", "01"), 202, "01999")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id != "F01TSTW202" || fallback {
		t.Errorf("Resolve() = %q, %v, want F01TSTW202, exact", id, fallback)
	}
}

func TestTraitsFallback(t *testing.T) {
	c := Default()

	df := c.Traits(202)
	if df.Name != "Douglas-fir" || df.DefaultFormClass != 80 {
		t.Errorf("Traits(202) = %+v", df)
	}

	generic := c.Traits(55555)
	if generic.Code != GenericSpecies {
		t.Errorf("Traits(55555).Code = %d, want %d", generic.Code, GenericSpecies)
	}
	if generic.BarkRatio <= 0 {
		t.Error("generic traits must carry a bark ratio")
	}
}

func TestEmbeddedTablesResolveEverywhere(t *testing.T) {
	c := Default()
	if c.Version() != EmbeddedVersion {
		t.Errorf("Version() = %q, want %q", c.Version(), EmbeddedVersion)
	}

	for region := 1; region <= 10; region++ {
		id, _, err := c.ResolveDefault(models.NewJurisdictionKey(region, "", ""), 55555)
		if err != nil {
			t.Errorf("region %d: ResolveDefault() error = %v", region, err)
			continue
		}
		if _, err := id.Parse(); err != nil {
			t.Errorf("region %d: embedded id %q does not parse: %v", region, id, err)
		}
	}
}
