// Package refit fits the final sign-constrained logistic model on a WoE
// design matrix. Two interchangeable strategies are provided: an L1
// regularization path scanned for the sparsest sign-pure model, and an
// unpenalized fit with Wald backward elimination.
package refit

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

const epsilonSmall = 1e-15

// stableSigmoid computes sigmoid(z) without overflow on either tail.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

// clampProbability keeps probabilities away from 0 and 1 for log terms.
func clampProbability(p float64) float64 {
	if p < epsilonSmall {
		return epsilonSmall
	}
	if p > 1-epsilonSmall {
		return 1 - epsilonSmall
	}
	return p
}

// fitLogistic runs an unpenalized LBFGS fit of binary logistic regression
// with an intercept. y must be 0/1.
func fitLogistic(x *mat.Dense, y []float64, maxIter int, tol float64) (coef []float64, intercept float64, err error) {
	nSamples, nFeatures := x.Dims()
	if nSamples != len(y) {
		return nil, 0, wbErrors.NewDimensionError("refit.fitLogistic", nSamples, len(y), 0)
	}
	if nSamples == 0 {
		return nil, 0, wbErrors.ErrEmptyData
	}

	prob := optimize.Problem{
		Func: func(theta []float64) float64 {
			w := theta[:nFeatures]
			b := theta[nFeatures]
			loss := 0.0
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * x.At(i, j)
				}
				p := clampProbability(stableSigmoid(z))
				loss += -y[i]*math.Log(p) - (1.0-y[i])*math.Log(1.0-p)
			}
			return loss / float64(nSamples)
		},
		Grad: func(grad, theta []float64) {
			w := theta[:nFeatures]
			b := theta[nFeatures]
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < nSamples; i++ {
				z := b
				for j := 0; j < nFeatures; j++ {
					z += w[j] * x.At(i, j)
				}
				diff := stableSigmoid(z) - y[i]
				for j := 0; j < nFeatures; j++ {
					grad[j] += diff * x.At(i, j)
				}
				grad[nFeatures] += diff
			}
			invN := 1.0 / float64(nSamples)
			for j := range grad {
				grad[j] *= invN
			}
		},
	}

	x0 := make([]float64, nFeatures+1)
	settings := optimize.Settings{
		GradientThreshold: tol,
		MajorIterations:   maxIter,
	}
	result, optErr := optimize.Minimize(prob, x0, &settings, &optimize.LBFGS{})
	if optErr != nil {
		if result == nil {
			return nil, 0, wbErrors.Wrap(optErr, "lbfgs optimization failed")
		}
		// Iteration-capped runs still carry a usable point.
		wbErrors.Warn(wbErrors.NewConvergenceWarning("lbfgs", maxIter, optErr.Error()))
	}

	coef = make([]float64, nFeatures)
	copy(coef, result.X[:nFeatures])
	return coef, result.X[nFeatures], nil
}

// l1MinC returns the smallest inverse penalty C at which an L1-penalized
// logistic regression can have a nonzero coefficient: below it the zero
// vector is optimal. Uses the liblinear parametrization, loss summed over
// samples with signed labels in {-1, +1}.
func l1MinC(x *mat.Dense, y []float64) float64 {
	nSamples, nFeatures := x.Dims()
	maxAbs := 0.0
	for j := 0; j < nFeatures; j++ {
		s := 0.0
		for i := 0; i < nSamples; i++ {
			sign := -1.0
			if y[i] > 0 {
				sign = 1.0
			}
			s += sign * x.At(i, j)
		}
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return 1e-3
	}
	return 2.0 / maxAbs
}

// fitLogisticL1 fits an L1-penalized logistic regression by proximal
// gradient descent with backtracking. The objective follows liblinear:
//
//	C * Σ_i nll_i(w, b) + ||w||_1
//
// so larger C means a weaker penalty. The intercept is unpenalized.
// warmCoef/warmIntercept seed the iteration for path scans.
func fitLogisticL1(x *mat.Dense, y []float64, c float64, warmCoef []float64, warmIntercept float64, maxIter int, tol float64) (coef []float64, intercept float64) {
	nSamples, nFeatures := x.Dims()

	w := make([]float64, nFeatures)
	if warmCoef != nil {
		copy(w, warmCoef)
	}
	b := warmIntercept

	grad := make([]float64, nFeatures+1)
	next := make([]float64, nFeatures)

	smoothLoss := func(w []float64, b float64) float64 {
		loss := 0.0
		for i := 0; i < nSamples; i++ {
			z := b
			for j := 0; j < nFeatures; j++ {
				z += w[j] * x.At(i, j)
			}
			p := clampProbability(stableSigmoid(z))
			loss += -y[i]*math.Log(p) - (1.0-y[i])*math.Log(1.0-p)
		}
		return c * loss
	}
	smoothGrad := func(w []float64, b float64) {
		for j := range grad {
			grad[j] = 0
		}
		for i := 0; i < nSamples; i++ {
			z := b
			for j := 0; j < nFeatures; j++ {
				z += w[j] * x.At(i, j)
			}
			diff := stableSigmoid(z) - y[i]
			for j := 0; j < nFeatures; j++ {
				grad[j] += diff * x.At(i, j)
			}
			grad[nFeatures] += diff
		}
		for j := range grad {
			grad[j] *= c
		}
	}

	step := 1.0
	loss := smoothLoss(w, b)
	for iter := 0; iter < maxIter; iter++ {
		smoothGrad(w, b)

		// Backtracking on the smooth part.
		var nextB, nextLoss float64
		for {
			for j := 0; j < nFeatures; j++ {
				next[j] = softThreshold(w[j]-step*grad[j], step)
			}
			nextB = b - step*grad[nFeatures]

			nextLoss = smoothLoss(next, nextB)
			quad := loss
			for j := 0; j < nFeatures; j++ {
				d := next[j] - w[j]
				quad += grad[j]*d + d*d/(2*step)
			}
			db := nextB - b
			quad += grad[nFeatures]*db + db*db/(2*step)
			if nextLoss <= quad || step < 1e-12 {
				break
			}
			step /= 2
		}

		maxMove := math.Abs(nextB - b)
		for j := 0; j < nFeatures; j++ {
			if d := math.Abs(next[j] - w[j]); d > maxMove {
				maxMove = d
			}
		}
		copy(w, next)
		b = nextB
		loss = nextLoss

		if maxMove < tol {
			break
		}
	}
	return w, b
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
