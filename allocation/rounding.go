/*
rounding.go - Joint exact two-decimal rounding

PURPOSE:
  Converts the fitted real-valued matrix to integer cents whose every row
  sums to its row cent target AND every column sums to its column cent
  target. Rounding each row independently can break column totals and vice
  versa, so the correction is a single global pass over all cells.

ALGORITHM:
  1. Multiply into cents space, floor every cell, keep fractional remainders
  2. Compute per-row and per-column deficits (target - floor sum)
  3. Visit all cells once, ordered by descending remainder; a cell whose row
     and column both still have positive deficit absorbs
     min(rowDeficit, colDeficit) cents
  4. Stop early once both total deficits reach zero

FEASIBILITY:
  Exact satisfaction of both margins requires sum(row cents) == sum(col
  cents). With mismatched targets the pass still terminates and leaves the
  residual deficit unresolved; callers who need strict feasibility validate
  the targets before invoking this stage.

  The single greedy pass satisfies the hard margin constraints but is not
  proven to minimize total displacement from the unrounded matrix.
*/
package allocation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// RoundMatrixExactCents rounds x to integer cents matching the given dollar
// targets per row and per column. When the cent sums of the two target
// vectors agree, every row and column of the result matches its target
// exactly. Never fails: infeasible targets produce a best-effort matrix.
func RoundMatrixExactCents(x *Matrix, rowTargets, colTargets []decimal.Decimal) *CentsMatrix {
	nR, nC := x.Shape()

	rowCents := make([]int64, nR)
	for i, t := range rowTargets {
		rowCents[i] = DollarsToCents(t)
	}
	colCents := make([]int64, nC)
	for j, t := range colTargets {
		colCents[j] = DollarsToCents(t)
	}

	out := NewCentsMatrix(nR, nC)
	remainders := make([]float64, nR*nC)
	for i := 0; i < nR; i++ {
		for j := 0; j < nC; j++ {
			raw := x.At(i, j) * 100.0
			floor := math.Floor(raw)
			out.Set(i, j, int64(floor))
			remainders[i*nC+j] = raw - floor
		}
	}

	rowDef := make([]int64, nR)
	var totalRowDef int64
	for i, s := range out.RowSums() {
		rowDef[i] = rowCents[i] - s
		totalRowDef += rowDef[i]
	}
	colDef := make([]int64, nC)
	var totalColDef int64
	for j, s := range out.ColSums() {
		colDef[j] = colCents[j] - s
		totalColDef += colDef[j]
	}

	// All cells, largest remainder first. Equal remainders stay in row-major
	// order so results are reproducible across runs and platforms.
	cells := make([]int, nR*nC)
	for k := range cells {
		cells[k] = k
	}
	sort.SliceStable(cells, func(a, b int) bool {
		return remainders[cells[a]] > remainders[cells[b]]
	})

	for _, k := range cells {
		if totalRowDef <= 0 && totalColDef <= 0 {
			break
		}
		i, j := k/nC, k%nC
		if rowDef[i] > 0 && colDef[j] > 0 {
			take := rowDef[i]
			if colDef[j] < take {
				take = colDef[j]
			}
			out.Add(i, j, take)
			rowDef[i] -= take
			colDef[j] -= take
			totalRowDef -= take
			totalColDef -= take
		}
	}

	return out
}
