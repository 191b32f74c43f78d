// Package metrics provides the binary-classification metrics used by the
// binning search and the refit engine.
package metrics

import (
	"fmt"
	"math"
	"sort"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

// AUC calculates the area under the ROC curve for binary classification.
//
// The AUC is the probability that a randomly chosen positive sample is
// ranked above a randomly chosen negative one. Scores may be arbitrary
// real values; only their ordering matters. Tied scores are handled by
// emitting a single ROC point per distinct score, which is equivalent to
// the rank-based (Mann-Whitney) estimate.
//
// Returns 0.5 when the target is single-class, matching the behavior of a
// random classifier rather than failing, so callers scanning many
// candidate binnings do not need special-casing.
func AUC(yTrue, yScore []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, wbErrors.NewValueError("AUC", "input slices cannot be empty")
	}
	if len(yTrue) != len(yScore) {
		return 0, wbErrors.NewDimensionError("AUC", len(yTrue), len(yScore), 0)
	}
	for i, v := range yTrue {
		if v != 0.0 && v != 1.0 {
			return 0, wbErrors.NewValidationError(
				"yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %f at index %d", v, i),
				v,
			)
		}
	}

	n := len(yTrue)
	type pair struct {
		score float64
		label float64
	}
	pairs := make([]pair, n)
	totalPos := 0.0
	totalNeg := 0.0
	for i := 0; i < n; i++ {
		pairs[i] = pair{score: yScore[i], label: yTrue[i]}
		if yTrue[i] == 1.0 {
			totalPos++
		} else {
			totalNeg++
		}
	}

	if totalPos == 0 || totalNeg == 0 {
		return 0.5, nil
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})

	// Walk thresholds from high to low, adding one ROC point per distinct
	// score, and integrate with the trapezoidal rule.
	var auc, tp, fp float64
	prevTP, prevFP := 0.0, 0.0
	prevScore := math.Inf(1)
	for _, p := range pairs {
		if p.score != prevScore {
			auc += (fp - prevFP) * (tp + prevTP) / 2
			prevTP, prevFP = tp, fp
			prevScore = p.score
		}
		if p.label == 1.0 {
			tp++
		} else {
			fp++
		}
	}
	auc += (fp - prevFP) * (tp + prevTP) / 2

	return auc / (totalPos * totalNeg), nil
}

// LogLoss calculates the mean binary cross-entropy between labels and
// predicted probabilities. Probabilities are clamped away from 0 and 1 so
// the result is always finite.
func LogLoss(yTrue, yProb []float64) (float64, error) {
	if len(yTrue) == 0 {
		return 0, wbErrors.NewValueError("LogLoss", "input slices cannot be empty")
	}
	if len(yTrue) != len(yProb) {
		return 0, wbErrors.NewDimensionError("LogLoss", len(yTrue), len(yProb), 0)
	}

	const eps = 1e-15
	loss := 0.0
	for i := range yTrue {
		p := wbErrors.ClipValue(yProb[i], eps, 1-eps)
		loss += -yTrue[i]*math.Log(p) - (1-yTrue[i])*math.Log(1-p)
	}
	return loss / float64(len(yTrue)), nil
}

// Gini converts an AUC value to the Gini coefficient 2*AUC - 1.
func Gini(yTrue, yScore []float64) (float64, error) {
	auc, err := AUC(yTrue, yScore)
	if err != nil {
		return 0, err
	}
	return 2*auc - 1, nil
}
