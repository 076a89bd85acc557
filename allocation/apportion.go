/*
apportion.go - Largest-remainder apportionment of a single total

PURPOSE:
  Splits one currency total across n entities by weight, producing integer
  cents that sum to the total EXACTLY. Naive per-entity rounding drifts by a
  cent or more; largest-remainder assignment never does.

ALGORITHM:
  1. Normalize weights to sum 1 (uniform 1/n when all weights are zero)
  2. Compute each entity's exact real cent share
  3. Floor every share; the shortfall is the cents still unassigned
  4. Hand one cent each to the entities with the largest fractional
     remainders, ties broken by original index (stable sort)

EDGE CASES:
  - total <= 0:  every entity gets 0, regardless of weights
  - n == 0:      empty result
  - sum(w) == 0: uniform split

SEE ALSO:
  - rounding.go: Generalizes the same idea to two constraint dimensions
*/
package allocation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ApportionCents distributes total (dollars) across entities proportionally
// to weights, returning integer cents that sum to exactly
// round(total * 100). Weights need not sum to 1. No entry is ever negative
// and the sum never exceeds the target.
func ApportionCents(total decimal.Decimal, weights []float64) []int64 {
	n := len(weights)
	if n == 0 {
		return []int64{}
	}

	cents := make([]int64, n)
	if total.Sign() <= 0 {
		return cents
	}

	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}

	shares := make([]float64, n)
	if weightSum <= 0 {
		// Equal unknown exposure: uniform split.
		for i := range shares {
			shares[i] = 1.0 / float64(n)
		}
	} else {
		for i, w := range weights {
			shares[i] = w / weightSum
		}
	}

	centsTotal := DollarsToCents(total)
	remainders := make([]float64, n)
	var floorSum int64
	for i, share := range shares {
		raw := share * float64(centsTotal)
		floor := math.Floor(raw)
		cents[i] = int64(floor)
		remainders[i] = raw - floor
		floorSum += int64(floor)
	}

	shortfall := centsTotal - floorSum
	if shortfall <= 0 {
		return cents
	}

	// Largest remainders first; equal remainders keep original entity order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	// The shortfall is the sum of the fractional remainders and therefore
	// strictly below n; indexing plainly lets an impossible overshoot panic
	// instead of silently double-crediting entities.
	for k := int64(0); k < shortfall; k++ {
		cents[order[int(k)]]++
	}
	return cents
}
