package binning

import (
	"math"
	"sort"

	"github.com/resivalex/AutoMLWhitebox/crossval"
	"github.com/resivalex/AutoMLWhitebox/metrics"
	"github.com/resivalex/AutoMLWhitebox/pkg/log"
)

// SearchParams configures the cross-validated grid search over tree
// discretizer settings for one feature.
type SearchParams struct {
	// MinBinSize is the smallest admissible bin, in samples.
	MinBinSize int
	// MinBinMults scales MinBinSize into additional MinDataInBin
	// candidates. The unscaled value is always tried.
	MinBinMults []float64
	// MinGains are the MinGainToSplit candidates.
	MinGains []float64
	// MaxBins caps the number of leaves.
	MaxBins int
	// Monotone is the resolved constraint for the feature (auto already
	// collapsed to increasing/decreasing/none).
	Monotone Monotone
	// AUCTol is the homotopy tolerance: among settings within AUCTol of
	// the best mean held-out AUC, the coarsest binning wins.
	AUCTol float64
	// ForceSingleSplit requests a fixed two-leaf grid for features
	// dominated by a single value.
	ForceSingleSplit bool
}

// DefaultMinGains mirrors the usual search ladder.
func DefaultMinGains() []float64 { return []float64{0, 0.5, 1} }

// BinSearch selects thresholds for a numeric column by cross-validated
// grid search over LeafParams, scoring each setting by the mean held-out
// AUC of the train-fold bin mean targets.
type BinSearch struct {
	disc   Discretizer
	logger log.Logger
}

// NewBinSearch creates a searcher over the given discretizer.
func NewBinSearch(disc Discretizer) *BinSearch {
	if disc == nil {
		disc = NewGradientTreeDiscretizer()
	}
	return &BinSearch{disc: disc, logger: log.GetLoggerWithName("binsearch")}
}

type gridResult struct {
	thresholds []float64
	meanAUC    float64
}

// Search runs the grid and returns the selected thresholds. Degenerate
// columns (constant, or too small to split) come back with no thresholds
// rather than an error; the caller decides whether a trivial binning is
// fatal for the feature.
func (s *BinSearch) Search(values, target []float64, folds []crossval.Fold, params SearchParams) ([]float64, error) {
	if countDistinct(values) < 2 {
		return nil, nil
	}

	grid := s.buildGrid(values, params)
	if len(grid) == 0 {
		return nil, nil
	}

	results := make([]gridResult, 0, len(grid))
	for _, lp := range grid {
		res, ok := s.evaluate(values, target, folds, lp)
		if !ok {
			continue
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		return nil, nil
	}

	selected := s.selectHomotopy(results, params.AUCTol)
	s.logger.Debug("binning grid search finished",
		log.BinsKey, len(selected.thresholds)+1,
		log.AUCKey, selected.meanAUC,
	)
	return selected.thresholds, nil
}

// buildGrid expands SearchParams into concrete LeafParams candidates.
func (s *BinSearch) buildGrid(values []float64, params SearchParams) []LeafParams {
	if params.ForceSingleSplit {
		return []LeafParams{{
			MinDataInLeaf:  params.MinBinSize,
			MinDataInBin:   3,
			MinGainToSplit: 0,
			MaxLeaves:      2,
			Monotone:       params.Monotone,
		}}
	}

	minBins := []int{params.MinBinSize}
	for _, m := range params.MinBinMults {
		v := int(math.Round(float64(params.MinBinSize) * m))
		if v > 0 && v != params.MinBinSize {
			minBins = append(minBins, v)
		}
	}
	gains := params.MinGains
	if len(gains) == 0 {
		gains = DefaultMinGains()
	}

	maxLeaves := params.MaxBins
	if upper := countDistinct(values); maxLeaves > upper {
		maxLeaves = upper
	}

	var grid []LeafParams
	for leaves := 2; leaves <= maxLeaves; leaves++ {
		for _, mb := range minBins {
			for _, g := range gains {
				grid = append(grid, LeafParams{
					MinDataInLeaf:  params.MinBinSize,
					MinDataInBin:   mb,
					MinGainToSplit: g,
					MaxLeaves:      leaves,
					Monotone:       params.Monotone,
				})
			}
		}
	}
	return grid
}

// evaluate fits thresholds per train fold, scores held-out rows with the
// train-fold bin mean target, and averages the fold AUCs. Settings whose
// tree refuses to split on any fold are discarded.
func (s *BinSearch) evaluate(values, target []float64, folds []crossval.Fold, lp LeafParams) (gridResult, bool) {
	var sumAUC float64
	scored := 0
	for _, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			continue
		}
		trainV := gather(values, fold.TrainIndices)
		trainY := gather(target, fold.TrainIndices)

		cuts, err := s.disc.FitThresholds(trainV, trainY, lp)
		if err != nil || len(cuts) == 0 {
			return gridResult{}, false
		}

		binMeans := binMeanTargets(trainV, trainY, cuts)
		testScores := make([]float64, len(fold.TestIndices))
		testY := make([]float64, len(fold.TestIndices))
		for i, idx := range fold.TestIndices {
			bin := sort.SearchFloat64s(cuts, values[idx])
			testScores[i] = binMeans[bin]
			testY[i] = target[idx]
		}

		auc, err := metrics.AUC(testY, testScores)
		if err != nil {
			return gridResult{}, false
		}
		sumAUC += auc
		scored++
	}
	if scored == 0 {
		return gridResult{}, false
	}

	// Final thresholds come from the full sample under the same setting.
	cuts, err := s.disc.FitThresholds(values, target, lp)
	if err != nil || len(cuts) == 0 {
		return gridResult{}, false
	}
	return gridResult{thresholds: cuts, meanAUC: sumAUC / float64(scored)}, true
}

// selectHomotopy orders candidates from coarsest to finest and returns the
// coarsest one whose mean AUC is within tol of the best.
func (s *BinSearch) selectHomotopy(results []gridResult, tol float64) gridResult {
	best := results[0].meanAUC
	for _, r := range results[1:] {
		if r.meanAUC > best {
			best = r.meanAUC
		}
	}

	sort.SliceStable(results, func(a, b int) bool {
		if len(results[a].thresholds) != len(results[b].thresholds) {
			return len(results[a].thresholds) < len(results[b].thresholds)
		}
		return results[a].meanAUC > results[b].meanAUC
	})

	for _, r := range results {
		if r.meanAUC >= best-tol {
			return r
		}
	}
	return results[0]
}

func gather(src []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}

// binMeanTargets computes the mean target per bin induced by cuts. Empty
// bins fall back to the global mean.
func binMeanTargets(values, target []float64, cuts []float64) []float64 {
	nBins := len(cuts) + 1
	sums := make([]float64, nBins)
	counts := make([]float64, nBins)
	var total float64
	for i, v := range values {
		bin := sort.SearchFloat64s(cuts, v)
		sums[bin] += target[i]
		counts[bin]++
		total += target[i]
	}
	globalMean := total / float64(len(values))

	means := make([]float64, nBins)
	for b := 0; b < nBins; b++ {
		if counts[b] > 0 {
			means[b] = sums[b] / counts[b]
		} else {
			means[b] = globalMean
		}
	}
	return means
}
