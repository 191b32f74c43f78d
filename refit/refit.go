package refit

import "gonum.org/v1/gonum/mat"

// DropReason tags why a refit strategy eliminated a column.
type DropReason string

const (
	// DropSignViolation marks a coefficient with the disallowed sign.
	DropSignViolation DropReason = "sign_violation"
	// DropHighPValue marks a coefficient failing the Wald test.
	DropHighPValue DropReason = "high_p_value"
	// DropPenalized marks a coefficient zeroed by the L1 penalty without
	// the sign constraint in play.
	DropPenalized DropReason = "penalized"
)

// Result is the outcome of a refit pass. Coefficients and the per-column
// diagnostics are indexed by design matrix column; dropped columns carry a
// zero coefficient, a false Kept flag and NaN diagnostics.
type Result struct {
	Coefficients []float64
	Intercept    float64
	Kept         []bool
	// DropReasons maps eliminated column indices to the reason recorded
	// when they were removed.
	DropReasons map[int]DropReason
	// PValues and Variances are populated by the statistical strategy
	// only; the regularized path leaves them nil.
	PValues   []float64
	Variances []float64
}

// NumKept counts the surviving columns.
func (r *Result) NumKept() int {
	n := 0
	for _, k := range r.Kept {
		if k {
			n++
		}
	}
	return n
}

// Engine is a refit strategy over a WoE design matrix and a 0/1 target.
type Engine interface {
	Refit(x *mat.Dense, y []float64, signConstrained bool) (*Result, error)
}
