package refit

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
	"github.com/resivalex/AutoMLWhitebox/pkg/log"
)

// RegularizedRefit scans an L1 regularization path from the strongest
// penalty toward a target penalty, warm-starting each step from the
// previous one. With the sign constraint enabled it returns the sparsest
// model on the path whose active coefficients are all negative; without
// it, the endpoint model at the target penalty.
type RegularizedRefit struct {
	// MaxC is the target inverse penalty, the weak end of the path.
	MaxC float64
	// GridSize is the number of path points between l1_min_c and MaxC.
	GridSize int
	// ExpScale is the exponent range of the logarithmic grid.
	ExpScale float64
	// MaxIter and Tol control the proximal solver at each path point.
	MaxIter int
	Tol     float64

	logger log.Logger
}

// NewRegularizedRefit returns the strategy with the usual path settings.
func NewRegularizedRefit(maxC float64) *RegularizedRefit {
	return &RegularizedRefit{
		MaxC:     maxC,
		GridSize: 20,
		ExpScale: 4,
		MaxIter:  1000,
		Tol:      1e-5,
		logger:   log.GetLoggerWithName("refit.regularized"),
	}
}

// Refit implements Engine.
func (r *RegularizedRefit) Refit(x *mat.Dense, y []float64, signConstrained bool) (*Result, error) {
	nSamples, nFeatures := x.Dims()
	if nSamples != len(y) {
		return nil, wbErrors.NewDimensionError("RegularizedRefit.Refit", nSamples, len(y), 0)
	}
	if nFeatures == 0 {
		return nil, wbErrors.NewEmptyFeatureSetError("RegularizedRefit.Refit")
	}

	cs := r.buildPath(x, y)

	var warmCoef []float64
	warmIntercept := 0.0
	sawActive := false
	var last *Result

	for i, c := range cs {
		coef, intercept := fitLogisticL1(x, y, c, warmCoef, warmIntercept, r.MaxIter, r.Tol)
		warmCoef, warmIntercept = coef, intercept

		active := 0
		violations := 0
		for _, w := range coef {
			if w != 0 {
				active++
				if w >= 0 {
					violations++
				}
			}
		}
		r.logger.Debug("path step fitted",
			log.IterationKey, i,
			"penalty.c", c,
			"coef.active", active,
			"coef.violations", violations,
		)

		last = resultFromDense(coef, intercept)
		if !signConstrained {
			continue
		}
		if active > 0 {
			sawActive = true
			if violations == 0 {
				markPathDrops(last, DropSignViolation)
				return last, nil
			}
		}
	}

	if !signConstrained {
		markPathDrops(last, DropPenalized)
		return last, nil
	}
	if !sawActive {
		// The whole path is inactive: the intercept-only endpoint is
		// trivially sign-pure.
		markPathDrops(last, DropSignViolation)
		return last, nil
	}
	return nil, wbErrors.NewNoSignPureModelError(len(cs))
}

// buildPath returns the inverse penalties to scan, ascending from the
// smallest C that admits a nonzero coefficient up to MaxC.
func (r *RegularizedRefit) buildPath(x *mat.Dense, y []float64) []float64 {
	minC := l1MinC(x, y)
	gridSize := r.GridSize
	if gridSize < 2 {
		gridSize = 2
	}

	raw := make([]float64, gridSize)
	floats.Span(raw, 0, r.ExpScale)

	cs := make([]float64, 0, gridSize+1)
	for _, e := range raw {
		c := minC * math.Pow(10, e)
		if c > r.MaxC {
			c = r.MaxC
		}
		if len(cs) == 0 || c > cs[len(cs)-1] {
			cs = append(cs, c)
		}
	}
	if len(cs) == 0 || cs[len(cs)-1] < r.MaxC {
		cs = append(cs, r.MaxC)
	}
	return cs
}

// markPathDrops tags columns the path solver zeroed out.
func markPathDrops(r *Result, reason DropReason) {
	r.DropReasons = make(map[int]DropReason)
	for j, k := range r.Kept {
		if !k {
			r.DropReasons[j] = reason
		}
	}
}

func resultFromDense(coef []float64, intercept float64) *Result {
	kept := make([]bool, len(coef))
	for j, w := range coef {
		kept[j] = w != 0
	}
	out := make([]float64, len(coef))
	copy(out, coef)
	return &Result{Coefficients: out, Intercept: intercept, Kept: kept}
}
