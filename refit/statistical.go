package refit

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/resivalex/AutoMLWhitebox/core/parallel"
	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
	"github.com/resivalex/AutoMLWhitebox/pkg/log"
)

// StatisticalRefit fits an unpenalized logistic regression and eliminates
// features backward: first any coefficient with the disallowed sign, then
// any coefficient whose Wald p-value exceeds the significance threshold,
// one feature per iteration. With validation data attached, the p-value
// check is repeated on a validation refit once the training loop settles.
type StatisticalRefit struct {
	// PValueThreshold is the Wald significance cut for non-intercept
	// coefficients.
	PValueThreshold float64
	// MaxIter and Tol control the LBFGS fit at each iteration.
	MaxIter int
	Tol     float64

	// ValidationX and ValidationY, when set, add the validation
	// elimination stage.
	ValidationX *mat.Dense
	ValidationY []float64

	logger log.Logger
}

// NewStatisticalRefit returns the strategy at the given significance cut.
func NewStatisticalRefit(pValueThreshold float64) *StatisticalRefit {
	return &StatisticalRefit{
		PValueThreshold: pValueThreshold,
		MaxIter:         500,
		Tol:             1e-6,
		logger:          log.GetLoggerWithName("refit.statistical"),
	}
}

// Refit implements Engine.
func (s *StatisticalRefit) Refit(x *mat.Dense, y []float64, signConstrained bool) (*Result, error) {
	nSamples, nFeatures := x.Dims()
	if nSamples != len(y) {
		return nil, wbErrors.NewDimensionError("StatisticalRefit.Refit", nSamples, len(y), 0)
	}
	if nFeatures == 0 {
		return nil, wbErrors.NewEmptyFeatureSetError("StatisticalRefit.Refit")
	}

	kept := make([]bool, nFeatures)
	for j := range kept {
		kept[j] = true
	}
	reasons := make(map[int]DropReason)

	validated := false
	for {
		cols := keptColumns(kept)
		if len(cols) == 0 {
			return nil, wbErrors.NewEmptyFeatureSetError("StatisticalRefit.Refit")
		}

		sub := selectColumns(x, cols)
		coef, intercept, err := fitLogistic(sub, y, s.MaxIter, s.Tol)
		if err != nil {
			return nil, err
		}

		if signConstrained {
			if drop, ok := worstSign(coef); ok {
				s.logger.Debug("dropping sign violation",
					log.FeatureKey, cols[drop],
					"coef", coef[drop],
					log.KeptKey, len(cols)-1,
				)
				kept[cols[drop]] = false
				reasons[cols[drop]] = DropSignViolation
				validated = false
				continue
			}
		}

		pValues, variances, err := s.waldStatistics(sub, y, coef, intercept)
		if err != nil {
			return nil, err
		}
		if drop, ok := worstPValue(pValues, s.PValueThreshold); ok {
			s.logger.Debug("dropping insignificant feature",
				log.FeatureKey, cols[drop],
				"p_value", pValues[drop],
				log.KeptKey, len(cols)-1,
			)
			kept[cols[drop]] = false
			reasons[cols[drop]] = DropHighPValue
			validated = false
			continue
		}

		if s.ValidationX != nil && !validated {
			drop, ok, err := s.validationDrop(cols)
			if err != nil {
				return nil, err
			}
			if ok {
				s.logger.Debug("dropping on validation",
					log.FeatureKey, cols[drop],
					log.KeptKey, len(cols)-1,
				)
				kept[cols[drop]] = false
				reasons[cols[drop]] = DropHighPValue
				continue
			}
			validated = true
		}

		res := assembleResult(nFeatures, cols, coef, intercept, kept, pValues, variances)
		res.DropReasons = reasons
		return res, nil
	}
}

// waldStatistics computes Wald p-values and coefficient variances from the
// inverse Fisher information at the fitted point. The intercept occupies
// the last position.
func (s *StatisticalRefit) waldStatistics(x *mat.Dense, y []float64, coef []float64, intercept float64) (pValues, variances []float64, err error) {
	nSamples, nFeatures := x.Dims()
	k := nFeatures + 1

	// Design with an appended intercept column.
	xb := mat.NewDense(nSamples, k, nil)
	weights := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		z := intercept
		for j := 0; j < nFeatures; j++ {
			v := x.At(i, j)
			xb.Set(i, j, v)
			z += coef[j] * v
		}
		xb.Set(i, nFeatures, 1)
		p := clampProbability(stableSigmoid(z))
		weights[i] = p * (1 - p)
	}

	// H = Xᵀ diag(p(1-p)) X. Chunked over the upper-triangular rows: every
	// cell is written by exactly one row index, and each cell's sum runs
	// sequentially, so the fill stays deterministic.
	hessian := mat.NewDense(k, k, nil)
	parallel.Parallelize(k, func(start, end int) {
		for a := start; a < end; a++ {
			for b := a; b < k; b++ {
				sum := 0.0
				for i := 0; i < nSamples; i++ {
					sum += weights[i] * xb.At(i, a) * xb.At(i, b)
				}
				hessian.Set(a, b, sum)
				hessian.Set(b, a, sum)
			}
		}
	})

	var inv mat.Dense
	if err := inv.Inverse(hessian); err != nil {
		return nil, nil, wbErrors.NewSingularMatrixError("StatisticalRefit.waldStatistics", k)
	}

	chi2 := distuv.ChiSquared{K: 1}
	theta := append(append([]float64{}, coef...), intercept)
	pValues = make([]float64, k)
	variances = make([]float64, k)
	for j := 0; j < k; j++ {
		variances[j] = inv.At(j, j)
		if variances[j] <= 0 {
			pValues[j] = 1
			continue
		}
		w := theta[j] * theta[j] / variances[j]
		pValues[j] = chi2.Survival(w)
	}
	return pValues, variances, nil
}

// validationDrop refits on the validation rows over the kept columns and
// reports the worst validation p-value violation, if any.
func (s *StatisticalRefit) validationDrop(cols []int) (int, bool, error) {
	sub := selectColumns(s.ValidationX, cols)
	coef, intercept, err := fitLogistic(sub, s.ValidationY, s.MaxIter, s.Tol)
	if err != nil {
		return 0, false, wbErrors.Wrap(err, "validation refit")
	}
	pValues, _, err := s.waldStatistics(sub, s.ValidationY, coef, intercept)
	if err != nil {
		return 0, false, err
	}
	drop, ok := worstPValue(pValues, s.PValueThreshold)
	return drop, ok, nil
}

// worstSign returns the index of the most strongly disallowed coefficient.
// Coefficients must be negative; zero counts as a violation.
func worstSign(coef []float64) (int, bool) {
	worst, found := 0, false
	for j, w := range coef {
		if w < 0 {
			continue
		}
		if !found || w > coef[worst] {
			worst, found = j, true
		}
	}
	return worst, found
}

// worstPValue returns the non-intercept coefficient with the largest
// p-value above the threshold. The intercept is the final entry and never
// eliminated.
func worstPValue(pValues []float64, threshold float64) (int, bool) {
	worst, found := 0, false
	for j := 0; j < len(pValues)-1; j++ {
		if pValues[j] <= threshold {
			continue
		}
		if !found || pValues[j] > pValues[worst] {
			worst, found = j, true
		}
	}
	return worst, found
}

func keptColumns(kept []bool) []int {
	cols := make([]int, 0, len(kept))
	for j, k := range kept {
		if k {
			cols = append(cols, j)
		}
	}
	return cols
}

func selectColumns(x *mat.Dense, cols []int) *mat.Dense {
	rows, _ := x.Dims()
	sub := mat.NewDense(rows, len(cols), nil)
	for i := 0; i < rows; i++ {
		for jj, j := range cols {
			sub.Set(i, jj, x.At(i, j))
		}
	}
	return sub
}

func assembleResult(nFeatures int, cols []int, coef []float64, intercept float64, kept []bool, pValues, variances []float64) *Result {
	res := &Result{
		Coefficients: make([]float64, nFeatures),
		Intercept:    intercept,
		Kept:         append([]bool{}, kept...),
		PValues:      make([]float64, nFeatures),
		Variances:    make([]float64, nFeatures),
	}
	for j := range res.PValues {
		res.PValues[j] = math.NaN()
		res.Variances[j] = math.NaN()
	}
	for jj, j := range cols {
		res.Coefficients[j] = coef[jj]
		res.PValues[j] = pValues[jj]
		res.Variances[j] = variances[jj]
	}
	return res
}
