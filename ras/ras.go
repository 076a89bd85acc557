/*
Package ras builds a balanced location x coverage premium matrix from
marginal totals alone.

PURPOSE:
  The input sheet carries only two sets of totals: premium per location and
  premium per coverage. No interior cell data exists. This package
  aggregates the raw rows into marginal target vectors, synthesizes a
  plausible interior via iterative proportional fitting, and rounds it to
  exact cents so every row and column reproduces its target to the penny.

MODES:
  Balanced:  IPF synthesis + joint exact-cents rounding (the default)
  Skeleton:  zero-filled interior, used when the caller only wants the
             matrix frame, and implied whenever either dimension is empty

BLANK LABELS:
  Rows with a blank or "nan" location/coverage label still aggregate under
  the empty key, but the empty key never enters the ordered label lists, so
  those contributions are never rendered. Degenerate inputs produce empty
  or zero matrices, never errors.

SEE ALSO:
  - allocation/: Fit and RoundMatrixExactCents
  - tiv/:        The weighted single-total sibling mode
*/
package ras

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/chefomid/ATLAS-2/allocation"
	"github.com/chefomid/ATLAS-2/dataset"
)

// Metadata keys rendered alongside the matrix.
const (
	MetaEntity  = "entity"
	MetaAddress = "address"
)

// MetaSchema is the ordered metadata layout for balanced-mode output.
func MetaSchema() []dataset.MetaField {
	return []dataset.MetaField{
		{Key: MetaEntity, Header: "Entity Name"},
		{Key: MetaAddress, Header: "Address"},
	}
}

// Row is one raw input record for balanced synthesis.
type Row struct {
	Location string
	Coverage string
	RowTotal decimal.Decimal // contributes to the location margin
	ColTotal decimal.Decimal // contributes to the coverage margin
	Entity   string
	Address  string
}

// Fields is the balanced-mode input schema. Every field is optional: a
// sheet missing a column simply contributes blanks/zeros for it, matching
// how operators actually fill these templates.
func Fields() []dataset.Field {
	return []dataset.Field{
		{Name: "location", Aliases: []string{"Loc #", "Location #", "Loc"}},
		{Name: "coverage", Aliases: []string{"Coverage/Expense", "Coverage Type", "Coverage"}},
		{Name: "rowTotal", Aliases: []string{"Premium Total", "Premium Amount", "Premium"}},
		{Name: "colTotal", Aliases: []string{"Total"}},
		// "Enitity Name" is a long-standing template typo; accept both.
		{Name: "entity", Aliases: []string{"Enitity Name", "Entity Name"}},
		{Name: "address", Aliases: []string{"Address"}},
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
			RowTotal: dataset.ParseNumericOrDefault(t.Cell(rec, idx["rowTotal"])),
			ColTotal: dataset.ParseNumericOrDefault(t.Cell(rec, idx["colTotal"])),
			Entity:   dataset.CleanText(t.Cell(rec, idx["entity"])),
			Address:  dataset.CleanText(t.Cell(rec, idx["address"])),
		})
	}
	return rows, nil
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate is the shaped form of the raw rows: ordered dimension labels,
// marginal target vectors, and location metadata.
type Aggregate struct {
	Locations  []string
	Coverages  []string
	RowTargets []decimal.Decimal
	ColTargets []decimal.Decimal
	Meta       dataset.MetaByLocation
}

// AggregateRows derives ordered unique labels and marginal sums. Sums for
// blank keys are accumulated but never surfaced, since blank labels are
// excluded from the dimension lists.
func AggregateRows(rows []Row) *Aggregate {
	locs := dataset.NewOrderedSet()
	covs := dataset.NewOrderedSet()
	rowSums := make(map[string]decimal.Decimal)
	colSums := make(map[string]decimal.Decimal)
	meta := dataset.MetaByLocation{}

	for _, r := range rows {
		locs.Add(r.Location)
		covs.Add(r.Coverage)
		rowSums[r.Location] = rowSums[r.Location].Add(r.RowTotal)
		colSums[r.Coverage] = colSums[r.Coverage].Add(r.ColTotal)
		meta.Merge(r.Location, MetaEntity, r.Entity)
		meta.Merge(r.Location, MetaAddress, r.Address)
	}

	agg := &Aggregate{
		Locations: locs.Values(),
		Coverages: covs.Values(),
		Meta:      meta,
	}
	agg.RowTargets = make([]decimal.Decimal, len(agg.Locations))
	for i, l := range agg.Locations {
		agg.RowTargets[i] = rowSums[l]
	}
	agg.ColTargets = make([]decimal.Decimal, len(agg.Coverages))
	for j, c := range agg.Coverages {
		agg.ColTargets[j] = colSums[c]
	}
	return agg
}

// =============================================================================
// MATRIX SYNTHESIS
// =============================================================================

// Options selects the mode and tunes the fitting loop.
type Options struct {
	// Skeleton requests a zero-filled interior regardless of targets.
	Skeleton bool
	Fit      allocation.FitOptions
}

// Result is the final balanced matrix plus everything a renderer needs.
type Result struct {
	Locations []string
	Coverages []string
	// Cells is the exact-cents interior expressed in dollars, Locations x
	// Coverages.
	Cells      [][]decimal.Decimal
	RowTotals  []decimal.Decimal
	ColTotals  []decimal.Decimal
	Meta       dataset.MetaByLocation
	Converged  bool
	Iterations int
}

// Build aggregates the rows and synthesizes the balanced matrix. Degenerate
// dimensions yield a valid empty/zero result. The context is honored
// between fitting iterations.
func Build(ctx context.Context, rows []Row, opts Options) (*Result, error) {
	agg := AggregateRows(rows)
	nL, nC := len(agg.Locations), len(agg.Coverages)

	res := &Result{
		Locations: agg.Locations,
		Coverages: agg.Coverages,
		RowTotals: agg.RowTargets,
		ColTotals: agg.ColTargets,
		Meta:      agg.Meta,
	}

	if nL == 0 || nC == 0 || opts.Skeleton {
		res.Cells = zeroCells(nL, nC)
		res.Converged = true
		return res, nil
	}

	rt := toFloats(agg.RowTargets)
	ct := toFloats(agg.ColTargets)

	fit, err := allocation.Fit(ctx, rt, ct, proportionalSeed(rt, ct), opts.Fit)
	if err != nil {
		return nil, err
	}

	cents := allocation.RoundMatrixExactCents(fit.Matrix, agg.RowTargets, agg.ColTargets)
	res.Cells = cents.DollarMatrix()
	res.Converged = fit.Converged
	res.Iterations = fit.Iterations
	return res, nil
}

// proportionalSeed starts the fit from the outer product of the positive
// targets, normalized to the row grand total so the first iterations do not
// swing through extreme magnitudes. Returns nil (engine default seed) when
// every product is zero.
func proportionalSeed(rt, ct []float64) *allocation.Matrix {
	rpos := make([]float64, len(rt))
	for i, v := range rt {
		if v > 0 {
			rpos[i] = v
		}
	}
	cpos := make([]float64, len(ct))
	for j, v := range ct {
		if v > 0 {
			cpos[j] = v
		}
	}

	seed := allocation.Outer(rpos, cpos)
	total := seed.Sum()
	if total <= 0 {
		return nil
	}

	var rowSum float64
	for _, v := range rt {
		rowSum += v
	}
	if rowSum < 1 {
		rowSum = 1
	}

	scale := rowSum / total
	for i := range rpos {
		for j := range cpos {
			seed.Set(i, j, seed.At(i, j)*scale)
		}
	}
	return seed
}

func toFloats(targets []decimal.Decimal) []float64 {
	out := make([]float64, len(targets))
	for i, t := range targets {
		f, _ := t.Float64()
		out[i] = f
	}
	return out
}

func zeroCells(nL, nC int) [][]decimal.Decimal {
	cells := make([][]decimal.Decimal, nL)
	for i := range cells {
		row := make([]decimal.Decimal, nC)
		for j := range row {
			row[j] = decimal.Zero
		}
		cells[i] = row
	}
	return cells
}
