/*
Package tiv distributes per-coverage premium totals across locations by
insured-value weight.

PURPOSE:
  Unlike balanced synthesis, this mode has real per-location exposure data:
  each raw row carries a TIV (total insured value). Every coverage's premium
  is split across locations proportionally to TIV and rounded to exact
  cents via largest-remainder apportionment, so each coverage column sums to
  its premium to the penny.

WEIGHT SELECTION:
  A coverage uses its own per-location TIVs only when at least two locations
  carry a positive TIV for that specific coverage. Otherwise the global
  per-location TIV vector (summed across all coverages) is used: many real
  sheets state TIV once per location, and a single category-weighted
  location must not silently absorb 100% of a coverage. When every weight is
  zero the apportionment primitive falls back to a uniform split.

TOTALS:
  Column totals are the premium sums per coverage, passed through as the
  authoritative targets; row totals are recomputed as the sum of the
  allocated cells per location.

SEE ALSO:
  - allocation/apportion.go: The exact-cents primitive
  - ras/:                    The marginal-totals-only sibling mode
*/
package tiv

import (
	"github.com/shopspring/decimal"

	"github.com/chefomid/ATLAS-2/allocation"
	"github.com/chefomid/ATLAS-2/dataset"
)

// Metadata keys rendered alongside the matrix.
const (
	MetaEntity = "entity"
	MetaStreet = "street"
	MetaCity   = "city"
	MetaState  = "state"
	MetaZip    = "zip"
)

// MetaSchema is the ordered metadata layout for weighted-mode output.
func MetaSchema() []dataset.MetaField {
	return []dataset.MetaField{
		{Key: MetaEntity, Header: "Entity Name"},
		{Key: MetaStreet, Header: "Street"},
		{Key: MetaCity, Header: "City"},
		{Key: MetaState, Header: "State"},
		{Key: MetaZip, Header: "Zip"},
	}
}

// Row is one raw input record for weighted distribution.
type Row struct {
	Location string
	Coverage string
	Premium  decimal.Decimal
	TIV      decimal.Decimal
	Entity   string
	Street   string
	City     string
	State    string
	Zip      string
}

// Fields is the weighted-mode input schema. Coverage, premium, location and
// TIV are required; their absence is the one fatal input-shape error.
func Fields() []dataset.Field {
	return []dataset.Field{
		{Name: "coverage", Aliases: []string{"Coverage Type", "Coverage/Expense", "Coverage"}, Required: true},
		{Name: "premium", Aliases: []string{"Premium Amount", "Premium", "Premium Total"}, Required: true},
		{Name: "location", Aliases: []string{"Loc #", "Location #", "Loc"}, Required: true},
		{Name: "tiv", Aliases: []string{
			"Insurable Value", "Total Insured Value",
			"TIV", "TIV ($)", "TIV Amount", "TIV Value", "TIV USD", "TIV Total",
			"Insured Value", "Replacement Cost",
		}, Required: true},
		{Name: "entity", Aliases: []string{"Enitity Name", "Entity Name"}},
		{Name: "street", Aliases: []string{"Street", "Address 1", "Address1"}},
		{Name: "city", Aliases: []string{"City"}},
		{Name: "state", Aliases: []string{"State", "ST"}},
		{Name: "zip", Aliases: []string{"Zip-Code", "Zip Code", "Zip", "Postal Code"}},
	}
}

// RowsFromTable resolves the default schema against the table headers and
// builds typed rows with cleaned labels and zero-defaulted numerics.
func RowsFromTable(t *dataset.Table) ([]Row, error) {
	return RowsFromTableSchema(t, Fields())
}

// RowsFromTableSchema is RowsFromTable with a caller-supplied schema, used
// when a profile extends the header aliases.
func RowsFromTableSchema(t *dataset.Table, fields []dataset.Field) ([]Row, error) {
	idx, err := dataset.ResolveFields(t.Headers, fields)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(t.Records))
	for _, rec := range t.Records {
		rows = append(rows, Row{
			Location: dataset.NormalizeLocation(t.Cell(rec, idx["location"])),
			Coverage: dataset.CleanText(t.Cell(rec, idx["coverage"])),
			Premium:  dataset.ParseNumericOrDefault(t.Cell(rec, idx["premium"])),
			TIV:      dataset.ParseNumericOrDefault(t.Cell(rec, idx["tiv"])),
			Entity:   dataset.CleanText(t.Cell(rec, idx["entity"])),
			Street:   dataset.CleanText(t.Cell(rec, idx["street"])),
			City:     dataset.CleanText(t.Cell(rec, idx["city"])),
			State:    dataset.CleanText(t.Cell(rec, idx["state"])),
			Zip:      dataset.CleanText(t.Cell(rec, idx["zip"])),
		})
	}
	return rows, nil
}

// =============================================================================
// WEIGHTED DISTRIBUTION
// =============================================================================

// Result is the final weighted matrix plus everything a renderer needs.
type Result struct {
	Locations []string
	Coverages []string
	// Cells is the exact-cents interior expressed in dollars, Locations x
	// Coverages.
	Cells     [][]decimal.Decimal
	RowTotals []decimal.Decimal
	ColTotals []decimal.Decimal
	Meta      dataset.MetaByLocation
}

type covLoc struct {
	cov string
	loc string
}

// Build aggregates the rows and distributes each coverage's premium across
// locations. Degenerate dimensions yield a valid empty result.
func Build(rows []Row) (*Result, error) {
	locSet := dataset.NewOrderedSet()
	covSet := dataset.NewOrderedSet()
	tivGlobal := make(map[string]decimal.Decimal)
	premiumByCov := make(map[string]decimal.Decimal)
	tivByCovLoc := make(map[covLoc]decimal.Decimal)
	meta := dataset.MetaByLocation{}

	for _, r := range rows {
		covSet.Add(r.Coverage)
		premiumByCov[r.Coverage] = premiumByCov[r.Coverage].Add(r.Premium)

		if r.Location == "" {
			continue
		}
		locSet.Add(r.Location)
		tivGlobal[r.Location] = tivGlobal[r.Location].Add(r.TIV)
		key := covLoc{cov: r.Coverage, loc: r.Location}
		tivByCovLoc[key] = tivByCovLoc[key].Add(r.TIV)

		meta.Merge(r.Location, MetaEntity, r.Entity)
		meta.Merge(r.Location, MetaStreet, r.Street)
		meta.Merge(r.Location, MetaCity, r.City)
		meta.Merge(r.Location, MetaState, r.State)
		meta.Merge(r.Location, MetaZip, r.Zip)
	}

	locs := locSet.Values()
	covs := covSet.Values()

	res := &Result{
		Locations: locs,
		Coverages: covs,
		Meta:      meta,
	}

	cellCents := make([][]int64, len(locs))
	for i := range cellCents {
		cellCents[i] = make([]int64, len(covs))
	}
	locIndex := make(map[string]int, len(locs))
	for i, l := range locs {
		locIndex[l] = i
	}

	for j, cov := range covs {
		premium := premiumByCov[cov]

		// Coverage-specific TIVs only count when they span at least two
		// locations; a lone weighted location would swallow the whole
		// premium that global weights should be spreading.
		var covLocs []string
		for _, l := range locs {
			if t, ok := tivByCovLoc[covLoc{cov: cov, loc: l}]; ok && t.IsPositive() {
				covLocs = append(covLocs, l)
			}
		}

		allocLocs := locs
		tivFor := func(l string) decimal.Decimal { return tivGlobal[l] }
		if len(covLocs) >= 2 {
			allocLocs = covLocs
			tivFor = func(l string) decimal.Decimal { return tivByCovLoc[covLoc{cov: cov, loc: l}] }
		}

		weights := make([]float64, len(allocLocs))
		for k, l := range allocLocs {
			w, _ := tivFor(l).Float64()
			weights[k] = w
		}

		cents := allocation.ApportionCents(premium, weights)
		for k, l := range allocLocs {
			cellCents[locIndex[l]][j] = cents[k]
		}
	}

	res.Cells = make([][]decimal.Decimal, len(locs))
	res.RowTotals = make([]decimal.Decimal, len(locs))
	for i := range locs {
		row := make([]decimal.Decimal, len(covs))
		var rowCents int64
		for j := range covs {
			row[j] = allocation.CentsToDollars(cellCents[i][j])
			rowCents += cellCents[i][j]
		}
		res.Cells[i] = row
		res.RowTotals[i] = allocation.CentsToDollars(rowCents)
	}

	// Column totals are the supplied premiums, not sums of the interior:
	// they are the authoritative targets the interior was built against.
	res.ColTotals = make([]decimal.Decimal, len(covs))
	for j, cov := range covs {
		res.ColTotals[j] = premiumByCov[cov]
	}

	return res, nil
}
