// Package binning discovers a small, AUC-near-optimal set of split points
// for each feature. A bounded grid search drives a single-feature
// supervised tree learner under cross-validation, and the resulting leaf
// thresholds are normalized into a BinSet that the WoE encoder consumes.
package binning

import (
	"math"
	"sort"
)

// Monotone expresses a feature's direction-of-effect constraint.
type Monotone int8

const (
	// MonotoneNone places no ordering constraint on the bins.
	MonotoneNone Monotone = 0
	// MonotoneIncreasing requires the fitted effect to be non-decreasing
	// in the feature value.
	MonotoneIncreasing Monotone = 1
	// MonotoneDecreasing requires the fitted effect to be non-increasing
	// in the feature value.
	MonotoneDecreasing Monotone = -1
	// MonotoneAuto detects the direction from the one-dimensional AUC of
	// the raw feature against the target.
	MonotoneAuto Monotone = 2
)

// FeatureKind distinguishes numeric from categorical features.
type FeatureKind int8

const (
	// Numeric features are binned by ordered thresholds.
	Numeric FeatureKind = iota
	// Categorical features are binned by a category-to-bin map.
	Categorical
)

// LeafParams are the hyperparameters of a single discretizer fit. BinSearch
// sweeps these over its grid; the discretizer itself treats them as fixed.
type LeafParams struct {
	MinDataInLeaf  int
	MinDataInBin   int
	MinGainToSplit float64
	MaxLeaves      int
	Monotone       Monotone
}

// Discretizer learns ordered leaf thresholds for one feature. Any
// single-feature supervised splitter satisfies this contract; the default
// implementation is GradientTreeDiscretizer.
type Discretizer interface {
	// FitThresholds returns the interior split thresholds found for the
	// given column and binary target. An empty slice means the learner
	// could not split under the supplied constraints.
	FitThresholds(values, target []float64, params LeafParams) ([]float64, error)
}

// BinSet is the finalized discretization of one feature.
//
// For numeric features Thresholds is a strictly increasing sequence t1<…<tk
// defining the half-open intervals (-inf, t1], (t1, t2], …, (tk, +inf).
// For categorical features CategoryMap assigns each training category a
// bin id; ids are contiguous from 0.
type BinSet struct {
	Kind        FeatureKind
	Thresholds  []float64
	CategoryMap map[string]int
}

// NumBins returns the number of ordinary bins defined by the set.
func (b BinSet) NumBins() int {
	if b.Kind == Categorical {
		maxID := -1
		for _, id := range b.CategoryMap {
			if id > maxID {
				maxID = id
			}
		}
		return maxID + 1
	}
	return len(b.Thresholds) + 1
}

// IsTrivial reports whether the set collapses every row into a single bin.
func (b BinSet) IsTrivial() bool {
	return b.NumBins() <= 1
}

// AssignNumeric maps a numeric value to its bin id. NaN is the caller's
// responsibility; special values are stripped before binning.
func (b BinSet) AssignNumeric(v float64) int {
	// Thresholds are few (max_bin_count is small), linear scan is fine,
	// but keep the sort.Search form for large hand-supplied splits.
	return sort.SearchFloat64s(b.Thresholds, v)
}

// countDistinct returns the number of distinct finite values in xs.
func countDistinct(xs []float64) int {
	seen := make(map[float64]struct{}, len(xs))
	for _, v := range xs {
		if !math.IsNaN(v) {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}
