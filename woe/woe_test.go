package woe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBinColumn builds a column where bin 0 is mostly negative and bin 1
// mostly positive.
func twoBinColumn(n int) (bins []int, target []float64) {
	bins = make([]int, n)
	target = make([]float64, n)
	for i := range bins {
		if i%2 == 0 {
			bins[i] = 1
			target[i] = 1
		}
	}
	return bins, target
}

func TestFitOppositeSigns(t *testing.T) {
	bins, target := twoBinColumn(1000)
	table, err := Fit("f", bins, target, 2, DefaultOptions())
	require.NoError(t, err)

	// Good/bad orientation: the mostly-negative bin 0 gets positive WoE.
	assert.Greater(t, table.Woe[0], 0.0)
	assert.Less(t, table.Woe[1], 0.0)
	assert.Greater(t, math.Abs(table.Woe[0]), 2.0)
	assert.Greater(t, math.Abs(table.Woe[1]), 2.0)
}

func TestFitWoeAlwaysFinite(t *testing.T) {
	// A bin with no positives and one with no negatives would blow up
	// without smoothing.
	bins := []int{0, 0, 0, 1, 1, 1}
	target := []float64{0, 0, 0, 1, 1, 1}

	for _, eps := range []float64{1e-6, 0.5, 10} {
		opts := DefaultOptions()
		opts.Smoothing = eps
		table, err := Fit("f", bins, target, 2, opts)
		require.NoError(t, err)
		for code, w := range table.Woe {
			assert.False(t, math.IsInf(w, 0) || math.IsNaN(w), "code %d not finite at eps=%g", code, eps)
		}
	}
}

func TestFitErrors(t *testing.T) {
	t.Run("empty bin set", func(t *testing.T) {
		_, err := Fit("f", []int{0}, []float64{1}, 0, DefaultOptions())
		assert.Error(t, err)
	})

	t.Run("all rows special", func(t *testing.T) {
		bins := []int{int(CodeMissing), int(CodeMissing), int(CodeRare)}
		_, err := Fit("f", bins, []float64{0, 1, 0}, 2, DefaultOptions())
		assert.Error(t, err)
	})
}

func TestSpecialKeepsOwnWoeWhenPopulated(t *testing.T) {
	bins, target := twoBinColumn(1000)
	// A populated missing bin, strongly negative.
	for i := 0; i < 100; i++ {
		bins[i] = int(CodeMissing)
		target[i] = 0
	}

	opts := DefaultOptions()
	opts.MergeCountThreshold = 20
	table, err := Fit("f", bins, target, 2, opts)
	require.NoError(t, err)

	assert.Empty(t, table.Merged)
	assert.Greater(t, table.Woe[int(CodeMissing)], 0.0)
}

func TestSpecialMergesIntoNearestBin(t *testing.T) {
	bins, target := twoBinColumn(1000)
	// Five missing rows, all negative: close in WoE to bin 0.
	for i := 0; i < 10; i += 2 {
		bins[i+1] = int(CodeMissing)
	}

	opts := DefaultOptions()
	opts.MergeCountThreshold = 20
	opts.MergeWoeDiff = 5
	table, err := Fit("f", bins, target, 2, opts)
	require.NoError(t, err)

	host, merged := table.Merged[CodeMissing]
	require.True(t, merged)
	assert.Equal(t, 0, host)
	assert.InDelta(t, table.Woe[0], table.Woe[int(CodeMissing)], 1e-12)
}

func TestMergeCountThresholdFraction(t *testing.T) {
	bins, target := twoBinColumn(1000)
	for i := 0; i < 10; i += 2 {
		bins[i+1] = int(CodeMissing)
	}

	frac := DefaultOptions()
	frac.MergeCountThreshold = 0.02 // 20 of 1000 rows
	frac.MergeWoeDiff = 5
	fromFraction, err := Fit("f", bins, target, 2, frac)
	require.NoError(t, err)
	assert.Contains(t, fromFraction.Merged, CodeMissing)

	abs := frac
	abs.MergeCountThreshold = 20
	fromAbsolute, err := Fit("f", bins, target, 2, abs)
	require.NoError(t, err)
	assert.Equal(t, fromAbsolute.Woe, fromFraction.Woe)
}

func TestBothSpecialsMergeIntoSameHost(t *testing.T) {
	// Bin 0 at rate 0.5, bin 1 near 1.0, both specials small and close in
	// WoE to bin 0.
	var bins []int
	var target []float64
	add := func(code, n, pos int) {
		for i := 0; i < n; i++ {
			bins = append(bins, code)
			if i < pos {
				target = append(target, 1)
			} else {
				target = append(target, 0)
			}
		}
	}
	add(0, 100, 50)
	add(1, 100, 99)
	add(int(CodeMissing), 5, 3)
	add(int(CodeRare), 5, 2)

	opts := DefaultOptions()
	opts.MergeCountThreshold = 20
	opts.MergeWoeDiff = 5

	first, err := Fit("f", bins, target, 2, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Merged[CodeMissing])
	assert.Equal(t, 0, first.Merged[CodeRare])

	// Every member of the merged group carries the host's final WoE,
	// recomputed from the pooled counts of all three.
	eps := opts.Smoothing
	totalPos, totalNeg := 154.0, 56.0
	pooled := math.Log((55+eps)/(totalNeg+eps)) - math.Log((55+eps)/(totalPos+eps))
	assert.InDelta(t, pooled, first.Woe[0], 1e-12)
	assert.Equal(t, first.Woe[0], first.Woe[int(CodeMissing)])
	assert.Equal(t, first.Woe[0], first.Woe[int(CodeRare)])

	// Refitting the same input always yields the same table.
	for i := 0; i < 50; i++ {
		again, err := Fit("f", bins, target, 2, opts)
		require.NoError(t, err)
		assert.Equal(t, first.Woe, again.Woe)
		assert.Equal(t, first.Merged, again.Merged)
	}
}

func TestNearestBinTieBreakLowestID(t *testing.T) {
	table := &Table{
		NumBins: 3,
		Woe:     map[int]float64{0: -1, 1: 1, 2: 3},
	}
	// Equidistant between bins 1 and 2.
	host, diff := table.nearestBin(2)
	assert.Equal(t, 1, host)
	assert.InDelta(t, 1.0, diff, 1e-12)
}

func TestTransformIdempotent(t *testing.T) {
	bins, target := twoBinColumn(500)
	table, err := Fit("f", bins, target, 2, DefaultOptions())
	require.NoError(t, err)

	first := table.Transform(bins)
	second := table.Transform(bins)
	assert.Equal(t, first, second)
}

func TestFallbackPolicies(t *testing.T) {
	bins := []int{0, 0, 0, 1, 1, 2, 2, 2, 2}
	target := []float64{0, 0, 1, 0, 1, 1, 1, 1, 0}
	fit := func(fb Fallback) *Table {
		opts := DefaultOptions()
		opts.Fallbacks = map[SpecialCode]Fallback{CodeRare: fb}
		table, err := Fit("f", bins, target, 3, opts)
		require.NoError(t, err)
		return table
	}

	t.Run("to zero", func(t *testing.T) {
		assert.Zero(t, fit(ToWoeZero).Lookup(int(CodeRare)))
	})
	t.Run("to max frequency", func(t *testing.T) {
		table := fit(ToMaxFreq)
		assert.Equal(t, table.Woe[2], table.Lookup(int(CodeRare)))
	})
	t.Run("to max posterior", func(t *testing.T) {
		// Highest target rate means lowest WoE.
		table := fit(ToMaxP)
		want := math.Min(math.Min(table.Woe[0], table.Woe[1]), table.Woe[2])
		assert.Equal(t, want, table.Lookup(int(CodeRare)))
	})
	t.Run("to min posterior", func(t *testing.T) {
		table := fit(ToMinP)
		want := math.Max(math.Max(table.Woe[0], table.Woe[1]), table.Woe[2])
		assert.Equal(t, want, table.Lookup(int(CodeRare)))
	})
}

func TestFitTransformOOFIndependence(t *testing.T) {
	bins, target := twoBinColumn(400)
	foldAssign := make([]int, len(bins))
	for i := range foldAssign {
		foldAssign[i] = i % 4
	}

	encoded, full, err := FitTransformOOF("f", bins, target, 2, foldAssign, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, full)

	// Flipping every target in fold 0 must leave the encodings of fold 0
	// rows untouched: their values come from the other folds only.
	flipped := append([]float64{}, target...)
	for i := range flipped {
		if foldAssign[i] == 0 {
			flipped[i] = 1 - flipped[i]
		}
	}
	encodedFlipped, _, err := FitTransformOOF("f", bins, flipped, 2, foldAssign, DefaultOptions())
	require.NoError(t, err)

	for i := range encoded {
		if foldAssign[i] == 0 {
			assert.Equal(t, encoded[i], encodedFlipped[i], "row %d depends on its own fold's target", i)
		}
	}
}

func TestFitTransformOOFRetainsFullTable(t *testing.T) {
	bins, target := twoBinColumn(400)
	foldAssign := make([]int, len(bins))
	for i := range foldAssign {
		foldAssign[i] = i % 4
	}

	_, full, err := FitTransformOOF("f", bins, target, 2, foldAssign, DefaultOptions())
	require.NoError(t, err)

	direct, err := Fit("f", bins, target, 2, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, direct.Woe, full.Woe)
}
