package binning

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableColumn builds a column split cleanly at the given cut.
func separableColumn(n int, cut float64) (values, target []float64) {
	rng := rand.New(rand.NewPCG(7, 7))
	values = make([]float64, n)
	target = make([]float64, n)
	for i := range values {
		values[i] = rng.Float64() * 20
		if values[i] >= cut {
			target[i] = 1
		}
	}
	return values, target
}

func TestGradientTreeFindsSeparatingThreshold(t *testing.T) {
	values, target := separableColumn(1000, 10)

	disc := NewGradientTreeDiscretizer()
	cuts, err := disc.FitThresholds(values, target, LeafParams{
		MinDataInLeaf: 50,
		MinDataInBin:  3,
		MaxLeaves:     2,
	})
	require.NoError(t, err)
	require.Len(t, cuts, 1)
	assert.InDelta(t, 10.0, cuts[0], 0.5)
}

func TestGradientTreeRespectsMaxLeaves(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	n := 600
	values := make([]float64, n)
	target := make([]float64, n)
	for i := range values {
		values[i] = rng.Float64() * 10
		if rng.Float64() < values[i]/10 {
			target[i] = 1
		}
	}

	disc := NewGradientTreeDiscretizer()
	for _, maxLeaves := range []int{2, 3, 5} {
		cuts, err := disc.FitThresholds(values, target, LeafParams{
			MinDataInLeaf: 20,
			MinDataInBin:  3,
			MaxLeaves:     maxLeaves,
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(cuts), maxLeaves-1)
		assert.True(t, sort.Float64sAreSorted(cuts))
	}
}

func TestGradientTreeMinDataInLeaf(t *testing.T) {
	values, target := separableColumn(200, 10)

	disc := NewGradientTreeDiscretizer()
	cuts, err := disc.FitThresholds(values, target, LeafParams{
		MinDataInLeaf: 30,
		MinDataInBin:  3,
		MaxLeaves:     6,
	})
	require.NoError(t, err)

	// Count samples per bin and check the floor.
	counts := make([]int, len(cuts)+1)
	for _, v := range values {
		counts[sort.SearchFloat64s(cuts, v)]++
	}
	for _, c := range counts {
		assert.GreaterOrEqual(t, c, 30)
	}
}

func TestGradientTreeMonotoneDecreasing(t *testing.T) {
	// Target rate rises with the value, so a decreasing constraint must
	// refuse every split.
	rng := rand.New(rand.NewPCG(3, 3))
	n := 500
	values := make([]float64, n)
	target := make([]float64, n)
	for i := range values {
		values[i] = rng.Float64() * 10
		if rng.Float64() < values[i]/10 {
			target[i] = 1
		}
	}

	disc := NewGradientTreeDiscretizer()
	cuts, err := disc.FitThresholds(values, target, LeafParams{
		MinDataInLeaf: 20,
		MinDataInBin:  3,
		MaxLeaves:     5,
		Monotone:      MonotoneDecreasing,
	})
	require.NoError(t, err)
	assert.Empty(t, cuts)
}

func TestGradientTreeMonotoneIncreasingBinRates(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 5))
	n := 2000
	values := make([]float64, n)
	target := make([]float64, n)
	for i := range values {
		values[i] = rng.Float64() * 10
		if rng.Float64() < values[i]/10 {
			target[i] = 1
		}
	}

	disc := NewGradientTreeDiscretizer()
	cuts, err := disc.FitThresholds(values, target, LeafParams{
		MinDataInLeaf: 50,
		MinDataInBin:  3,
		MaxLeaves:     6,
		Monotone:      MonotoneIncreasing,
	})
	require.NoError(t, err)
	require.NotEmpty(t, cuts)

	// Bin mean targets must not decrease left to right.
	sums := make([]float64, len(cuts)+1)
	counts := make([]float64, len(cuts)+1)
	for i, v := range values {
		b := sort.SearchFloat64s(cuts, v)
		sums[b] += target[i]
		counts[b]++
	}
	prev := -1.0
	for b := range sums {
		require.Positive(t, counts[b])
		rate := sums[b] / counts[b]
		assert.GreaterOrEqual(t, rate, prev-1e-3)
		prev = rate
	}
}

func TestGradientTreeDegenerateInputs(t *testing.T) {
	disc := NewGradientTreeDiscretizer()

	t.Run("constant column", func(t *testing.T) {
		values := make([]float64, 100)
		target := make([]float64, 100)
		for i := 50; i < 100; i++ {
			target[i] = 1
		}
		cuts, err := disc.FitThresholds(values, target, LeafParams{MinDataInLeaf: 5, MinDataInBin: 3, MaxLeaves: 4})
		require.NoError(t, err)
		assert.Empty(t, cuts)
	})

	t.Run("constant target", func(t *testing.T) {
		values, _ := separableColumn(100, 10)
		target := make([]float64, 100)
		cuts, err := disc.FitThresholds(values, target, LeafParams{MinDataInLeaf: 5, MinDataInBin: 3, MaxLeaves: 4})
		require.NoError(t, err)
		assert.Empty(t, cuts)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := disc.FitThresholds([]float64{1, 2}, []float64{1}, LeafParams{MaxLeaves: 2})
		assert.Error(t, err)
	})
}
