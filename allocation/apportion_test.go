package allocation_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/chefomid/ATLAS-2/allocation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dollars(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sumCents(cents []int64) int64 {
	var s int64
	for _, c := range cents {
		s += c
	}
	return s
}

// =============================================================================
// EXACT-CENTS CONSERVATION
// =============================================================================

func TestApportionCents_EqualWeights_ConservesTotal(t *testing.T) {
	// GIVEN: $10.00 split three ways with equal weights
	// WHEN: Apportioning
	// THEN: Cents sum to exactly 1000, one entity absorbs the extra cent

	cents := allocation.ApportionCents(dollars("10.00"), []float64{1, 1, 1})

	if got := sumCents(cents); got != 1000 {
		t.Fatalf("expected 1000 cents total, got %d", got)
	}
	for i, c := range cents {
		if c != 333 && c != 334 {
			t.Errorf("entity %d got %d cents, expected 333 or 334", i, c)
		}
	}
}

func TestApportionCents_SkewedWeights_ConservesTotal(t *testing.T) {
	// GIVEN: An awkward total and weights that do not divide evenly
	// WHEN: Apportioning
	// THEN: Cents sum exactly to round(total*100), no entry negative

	total := dollars("1234.57")
	weights := []float64{3.7, 0.01, 812.5, 44.44, 0}

	cents := allocation.ApportionCents(total, weights)

	if got := sumCents(cents); got != 123457 {
		t.Fatalf("expected 123457 cents total, got %d", got)
	}
	for i, c := range cents {
		if c < 0 {
			t.Errorf("entity %d got negative cents: %d", i, c)
		}
	}
	// Zero weight entity gets nothing when others carry weight.
	if cents[4] != 0 {
		t.Errorf("zero-weight entity got %d cents, expected 0", cents[4])
	}
}

// =============================================================================
// FALLBACKS AND EDGE CASES
// =============================================================================

func TestApportionCents_AllZeroWeights_UniformSplit(t *testing.T) {
	// GIVEN: $9.00 across three entities all with weight 0
	// WHEN: Apportioning
	// THEN: Equal 3-way split of 300 cents each

	cents := allocation.ApportionCents(dollars("9.00"), []float64{0, 0, 0})

	for i, c := range cents {
		if c != 300 {
			t.Errorf("entity %d got %d cents, expected 300", i, c)
		}
	}
}

func TestApportionCents_NonPositiveTotal_AllZero(t *testing.T) {
	for _, total := range []string{"0", "-5.00"} {
		cents := allocation.ApportionCents(dollars(total), []float64{1, 2, 3})
		if got := sumCents(cents); got != 0 {
			t.Errorf("total %s: expected all zeros, got sum %d", total, got)
		}
	}
}

func TestApportionCents_NoEntities_EmptyResult(t *testing.T) {
	cents := allocation.ApportionCents(dollars("100.00"), nil)
	if len(cents) != 0 {
		t.Fatalf("expected empty result, got %v", cents)
	}
}

func TestApportionCents_ShortfallNearEntityCount_NoWraparound(t *testing.T) {
	// GIVEN: $0.99 across 100 equal entities: every floor is 0, so the
	//        shortfall is 99, one below the entity count
	// WHEN: Apportioning
	// THEN: Exactly 99 entities get a single cent and none is double-credited

	weights := make([]float64, 100)
	for i := range weights {
		weights[i] = 1
	}

	cents := allocation.ApportionCents(dollars("0.99"), weights)

	if got := sumCents(cents); got != 99 {
		t.Fatalf("expected 99 cents total, got %d", got)
	}
	for i, c := range cents {
		if c != 0 && c != 1 {
			t.Errorf("entity %d got %d cents, expected 0 or 1", i, c)
		}
	}
}

// =============================================================================
// TIE-BREAK DETERMINISM
// =============================================================================

func TestApportionCents_EqualRemainders_EarlierEntityWins(t *testing.T) {
	// GIVEN: $1.00 across four equal entities: every remainder ties at 0
	// WHEN: Apportioning $0.02 more so two extra cents exist
	// THEN: The extra cents land on the first entities in input order,
	//       identically on every run

	first := allocation.ApportionCents(dollars("1.02"), []float64{1, 1, 1, 1})
	if got := sumCents(first); got != 102 {
		t.Fatalf("expected 102 cents, got %d", got)
	}

	for run := 0; run < 20; run++ {
		again := allocation.ApportionCents(dollars("1.02"), []float64{1, 1, 1, 1})
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: non-deterministic split %v vs %v", run, again, first)
			}
		}
	}

	// 102/4 = 25.5 each: all remainders tie at .5, so entities 0 and 1 win.
	want := []int64{26, 26, 25, 25}
	for i := range want {
		if first[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, first)
		}
	}
}
