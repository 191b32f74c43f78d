package refit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

func TestStatisticalRefitDropsInsignificantFeature(t *testing.T) {
	// Feature 0 carries essentially no effect, feature 1 is strong.
	x, y := woeLikeData(3000, []float64{-0.001, -2}, 0, 13)

	engine := NewStatisticalRefit(0.05)
	res, err := engine.Refit(x, y, true)
	require.NoError(t, err)

	assert.False(t, res.Kept[0], "noise feature must be eliminated")
	assert.True(t, res.Kept[1])
	assert.Equal(t, 1, res.NumKept())
	assert.Less(t, res.Coefficients[1], 0.0)
	assert.LessOrEqual(t, res.PValues[1], 0.05)
	assert.True(t, math.IsNaN(res.PValues[0]))
	assert.Contains(t, res.DropReasons, 0)
}

func TestStatisticalRefitSignConstraint(t *testing.T) {
	// Feature 0 has a positive true coefficient, disallowed under the
	// constraint.
	x, y := woeLikeData(3000, []float64{1.5, -1.5}, 0, 17)

	engine := NewStatisticalRefit(0.05)
	res, err := engine.Refit(x, y, true)
	require.NoError(t, err)

	assert.False(t, res.Kept[0])
	assert.Equal(t, DropSignViolation, res.DropReasons[0])
	for j, kept := range res.Kept {
		if kept {
			assert.Less(t, res.Coefficients[j], 0.0, "kept coefficient %d must be negative", j)
		}
	}
}

func TestStatisticalRefitUnconstrainedKeepsPositive(t *testing.T) {
	x, y := woeLikeData(3000, []float64{1.5, -1.5}, 0, 17)

	engine := NewStatisticalRefit(0.05)
	res, err := engine.Refit(x, y, false)
	require.NoError(t, err)

	assert.True(t, res.Kept[0])
	assert.Greater(t, res.Coefficients[0], 0.0)
}

func TestStatisticalRefitEmptyFeatureSet(t *testing.T) {
	t.Run("no columns", func(t *testing.T) {
		x := mat.NewDense(4, 0, nil)
		engine := NewStatisticalRefit(0.05)
		_, err := engine.Refit(x, []float64{0, 1, 0, 1}, true)
		var target *wbErrors.EmptyFeatureSetError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("every feature violates the sign", func(t *testing.T) {
		x, y := woeLikeData(2000, []float64{1.5, 2}, 0, 3)
		engine := NewStatisticalRefit(0.05)
		_, err := engine.Refit(x, y, true)
		var target *wbErrors.EmptyFeatureSetError
		assert.ErrorAs(t, err, &target)
	})
}

func TestStatisticalRefitTerminatesWithinFeatureCount(t *testing.T) {
	// All-noise features: every iteration must strictly shrink the mask
	// until the loop errors out, never cycling.
	x, y := woeLikeData(500, []float64{-0.001, 0.001, -0.002, 0.002}, 0, 29)

	engine := NewStatisticalRefit(0.001)
	res, err := engine.Refit(x, y, true)
	if err != nil {
		var target *wbErrors.EmptyFeatureSetError
		assert.ErrorAs(t, err, &target)
		return
	}
	for j, kept := range res.Kept {
		if kept {
			assert.LessOrEqual(t, res.PValues[j], 0.001, "kept feature %d above threshold", j)
		}
	}
}

func TestStatisticalRefitValidationStage(t *testing.T) {
	x, y := woeLikeData(3000, []float64{-1.5, -1}, 0, 31)
	// Validation data where feature 0 carries no signal: the validation
	// stage must remove it even though training keeps it.
	vx, vy := woeLikeData(2000, []float64{-0.001, -1}, 0, 37)

	engine := NewStatisticalRefit(0.05)
	engine.ValidationX = vx
	engine.ValidationY = vy

	res, err := engine.Refit(x, y, true)
	require.NoError(t, err)
	assert.False(t, res.Kept[0])
	assert.True(t, res.Kept[1])
}

func TestWaldStatisticsMatchesSequentialHessian(t *testing.T) {
	x, y := woeLikeData(200, []float64{-1.2, -0.6}, 0, 53)
	coef := []float64{-1.0, -0.5}
	intercept := 0.2

	s := NewStatisticalRefit(0.05)
	_, variances, err := s.waldStatistics(x, y, coef, intercept)
	require.NoError(t, err)

	// Reference: H = Xbᵀ diag(p(1-p)) Xb filled one sample at a time.
	n, _ := x.Dims()
	k := 3
	h := mat.NewDense(k, k, nil)
	for i := 0; i < n; i++ {
		row := []float64{x.At(i, 0), x.At(i, 1), 1}
		z := intercept + coef[0]*row[0] + coef[1]*row[1]
		p := clampProbability(stableSigmoid(z))
		w := p * (1 - p)
		for a := 0; a < k; a++ {
			for b := 0; b < k; b++ {
				h.Set(a, b, h.At(a, b)+w*row[a]*row[b])
			}
		}
	}
	var inv mat.Dense
	require.NoError(t, inv.Inverse(h))
	for j := 0; j < k; j++ {
		assert.InDelta(t, inv.At(j, j), variances[j], 1e-9)
	}
}

func TestWaldStatisticsSingularMatrix(t *testing.T) {
	// Two identical columns make the Fisher information singular.
	n := 200
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i%10) - 5
		x.Set(i, 0, v)
		x.Set(i, 1, v)
		if i%2 == 0 {
			y[i] = 1
		}
	}

	engine := NewStatisticalRefit(0.05)
	_, _, err := engine.waldStatistics(x, y, []float64{-0.1, -0.1}, 0)
	var target *wbErrors.SingularMatrixError
	assert.ErrorAs(t, err, &target)
}

func TestWorstPValueSkipsIntercept(t *testing.T) {
	// The intercept sits last and is never a candidate.
	pValues := []float64{0.01, 0.2, 0.9}
	drop, ok := worstPValue(pValues, 0.05)
	require.True(t, ok)
	assert.Equal(t, 1, drop)
}

func TestWorstSign(t *testing.T) {
	t.Run("no violation", func(t *testing.T) {
		_, ok := worstSign([]float64{-1, -0.5})
		assert.False(t, ok)
	})
	t.Run("largest positive wins", func(t *testing.T) {
		drop, ok := worstSign([]float64{-1, 0.2, 0.7})
		require.True(t, ok)
		assert.Equal(t, 2, drop)
	})
	t.Run("zero counts as violation", func(t *testing.T) {
		drop, ok := worstSign([]float64{-1, 0})
		require.True(t, ok)
		assert.Equal(t, 1, drop)
	})
}
