package main

import (
	"flag"
	"fmt"
	"os"

	"timber-platform/internal/catalog"
	"timber-platform/internal/engine"
	"timber-platform/internal/models"
)

// Single-tree volume report from the command line, against the embedded
// equation tables. Field crews use this for spot checks; the API server is
// the production surface.
func main() {
	species := flag.Int("species", 202, "FIA species code")
	dbh := flag.Float64("dbh", 0, "Diameter at breast height, inches")
	height := flag.Float64("height", 0, "Total tree height, feet")
	formClass := flag.Int("form-class", 0, "Girard form class (0 = species default)")
	equation := flag.String("equation", "", "Equation identifier override")
	region := flag.Int("region", 6, "Administrative region")
	forest := flag.String("forest", "12", "Forest code")
	district := flag.String("district", "01", "District code")
	product := flag.String("product", "01", "Product code")
	maxLen := flag.Float64("max-log", 40, "Preferred log length, feet")
	minTop := flag.Float64("min-top", 5, "Primary minimum top diameter, inches")
	showVersion := flag.Bool("version", false, "Report the engine version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(engine.Version())
		return
	}

	if *dbh <= 0 || *height <= 0 {
		fmt.Fprintln(os.Stderr, "dbh and height are required")
		flag.Usage()
		os.Exit(2)
	}

	rules := models.DefaultMerchRules()
	rules.MaxLogLength = *maxLen
	rules.MinTopPrimary = *minTop
	rules.Product = *product

	req := engine.Request{
		Key:              models.NewJurisdictionKey(*region, *forest, *district),
		Species:          *species,
		Product:          *product,
		EquationOverride: *equation,
		Measurement: models.TreeMeasurement{
			DBHOutsideBark: *dbh,
			TotalHeight:    *height,
			StumpHeight:    rules.StumpHeight,
			FormClass:      *formClass,
			Live:           true,
		},
		Rules: rules,
		Units: models.AllUnits(),
	}

	cat := catalog.Default()
	res := engine.Estimate(cat, req)

	if res.Status != models.StatusOK {
		fmt.Fprintf(os.Stderr, "estimation failed: %s: %s\n", res.Status, res.StatusMessage)
		os.Exit(1)
	}

	traits := cat.Traits(*species)

	fmt.Println("Volume Report")
	fmt.Println("-------------")
	fmt.Printf("Species:     %s (%d)\n", traits.Name, *species)
	fmt.Printf("Equation:    %s\n", res.EquationID)
	fmt.Printf("DBH:         %8.1f\n", *dbh)
	fmt.Printf("Total Ht:    %8.0f\n", *height)
	fmt.Printf("Merch Ht:    %8.1f\n", res.MerchHeightPrimary)
	fmt.Printf("CuFt Tot:    %8.2f\n", res.CubicTotal)
	fmt.Printf("CuFt Merch:  %8.2f\n", res.CubicPrimary)
	fmt.Printf("BdFt Merch:  %8.2f\n", res.BoardFeetPrimary)
	fmt.Printf("CuFt Top:    %8.2f\n", res.CubicSecondary)
	fmt.Printf("CuFt Stump:  %8.2f\n", res.CubicStump)
	fmt.Printf("CuFt Tip:    %8.2f\n", res.CubicTip)
	fmt.Println()

	fmt.Println("Log Detail")
	fmt.Println("----------")
	if res.NumLogs == 0 {
		fmt.Println("No merchantable logs.")
		return
	}
	fmt.Println("log bottom   top   len  large  small  cuft   bdft  product")
	for _, l := range res.Logs {
		fmt.Printf("%-3d %6.1f %6.1f %5.0f %6.1f %6.1f %6.2f %6.0f  %s\n",
			l.Index, l.BottomHeight, l.TopHeight, l.Length,
			l.LargeEndDIB, l.SmallEndDIB, l.CubicVolume, l.BoardFeet, l.Product)
	}
}
