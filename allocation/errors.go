/*
errors.go - Error types for the allocation engine

PURPOSE:
  Only input-shape problems are errors here. Numeric edge cases (zero
  weights, infeasible targets, non-convergence) are absorbed with documented
  fallback behavior so a run never blocks on imperfect data.

SEE ALSO:
  - dataset/schema.go: Missing-column errors raised before rows reach
    the engine
*/
package allocation

import (
	"fmt"
)

// ShapeError reports a seed matrix whose dimensions disagree with the
// marginal target vectors.
type ShapeError struct {
	WantRows, WantCols int
	GotRows, GotCols   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("seed shape %dx%d does not match targets %dx%d",
		e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}
