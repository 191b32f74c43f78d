package refit

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// woeLikeData simulates a design matrix in the shape the encoder produces:
// negative column values associate with the positive class when the true
// coefficient is negative.
func woeLikeData(n int, coefs []float64, intercept float64, seed uint64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := mat.NewDense(n, len(coefs), nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		z := intercept
		for j, c := range coefs {
			v := rng.NormFloat64()
			x.Set(i, j, v)
			z += c * v
		}
		if rng.Float64() < stableSigmoid(z) {
			y[i] = 1
		}
	}
	return x, y
}

func TestFitLogisticRecoversCoefficients(t *testing.T) {
	x, y := woeLikeData(5000, []float64{-1.5, -0.5}, 0.3, 21)

	coef, intercept, err := fitLogistic(x, y, 500, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, -1.5, coef[0], 0.15)
	assert.InDelta(t, -0.5, coef[1], 0.15)
	assert.InDelta(t, 0.3, intercept, 0.15)
}

func TestFitLogisticDimensionMismatch(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	_, _, err := fitLogistic(x, []float64{0, 1}, 100, 1e-6)
	assert.Error(t, err)
}

func TestL1MinCBoundary(t *testing.T) {
	x, y := woeLikeData(500, []float64{-1}, 0, 5)
	minC := l1MinC(x, y)
	require.Positive(t, minC)

	// At the boundary the penalty still zeroes every coefficient.
	coef, _ := fitLogisticL1(x, y, minC*0.9, nil, 0, 1000, 1e-7)
	for j, w := range coef {
		assert.InDelta(t, 0.0, w, 1e-6, "coefficient %d should be zeroed", j)
	}

	// Well past it, the signal shows up.
	coef, _ = fitLogisticL1(x, y, minC*100, nil, 0, 2000, 1e-7)
	assert.Less(t, coef[0], -0.1)
}

func TestFitLogisticL1WarmStart(t *testing.T) {
	x, y := woeLikeData(800, []float64{-1, -0.8}, 0, 9)

	cold, coldB := fitLogisticL1(x, y, 10, nil, 0, 2000, 1e-8)
	warm, warmB := fitLogisticL1(x, y, 10, cold, coldB, 2000, 1e-8)
	for j := range cold {
		assert.InDelta(t, cold[j], warm[j], 1e-3)
	}
	assert.InDelta(t, coldB, warmB, 1e-3)
}

func TestSoftThreshold(t *testing.T) {
	assert.Equal(t, 0.5, softThreshold(1.5, 1))
	assert.Equal(t, -0.5, softThreshold(-1.5, 1))
	assert.Zero(t, softThreshold(0.7, 1))
	assert.Zero(t, softThreshold(-0.7, 1))
}

func TestStableSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, stableSigmoid(0), 1e-12)
	assert.InDelta(t, 1.0, stableSigmoid(800), 1e-12)
	assert.InDelta(t, 0.0, stableSigmoid(-800), 1e-12)
	assert.False(t, math.IsNaN(stableSigmoid(1e8)))
}
