package whitebox

import (
	"math"

	"github.com/resivalex/AutoMLWhitebox/binning"
	"github.com/resivalex/AutoMLWhitebox/woe"
)

// Config holds every fitting knob. A Config is treated as immutable once a
// WhiteBox is constructed from it; the zero value is not usable, start
// from DefaultConfig.
type Config struct {
	// MinBinSize is the smallest admissible bin. Values below 1 are
	// fractions of the sample count, resolved when Fit sees the data.
	MinBinSize float64
	// MinBinMults scales MinBinSize into extra MinDataInBin candidates.
	MinBinMults []float64
	// MinGains are the min-gain-to-split candidates for the grid.
	MinGains []float64
	// MaxBins caps the leaf count per feature.
	MaxBins int
	// AUCTol is the simplicity tolerance when picking a grid point.
	AUCTol float64
	// ForceSingleSplitRest is the residual-count floor for the single
	// split override: when the rows outside a feature's dominant value
	// number more than this but fewer than MinBinSize, the feature gets
	// exactly one split instead of a full grid search. Values below 1
	// are fractions of the sample count.
	ForceSingleSplitRest float64

	// NFolds is the cross-validation fold count shared by the binning
	// search and out-of-fold encoding.
	NFolds int
	// Seed feeds the fold shuffling.
	Seed int
	// Workers bounds the per-feature binning pool. Zero means NumCPU.
	Workers int

	// CatAlpha smooths the mean-target encoding of categories.
	CatAlpha float64
	// RareMinCount tags categories seen fewer times as rare. Values
	// below 1 are fractions of the sample count.
	RareMinCount float64

	// Woe configures smoothing, special-bin merging and fallbacks.
	Woe woe.Options
	// OOFWoe builds the design matrix out-of-fold.
	OOFWoe bool

	// Interpretable enables the negative-sign constraint on
	// coefficients.
	Interpretable bool
	// Regularized selects the L1-path strategy over the Wald one.
	Regularized bool
	// MaxC is the weak end of the L1 path.
	MaxC float64
	// PValueThreshold is the Wald significance cut.
	PValueThreshold float64
}

// DefaultConfig mirrors the usual interpretable-scorecard settings.
func DefaultConfig() Config {
	return Config{
		MinBinSize:           0.01,
		MinBinMults:          []float64{2, 4},
		MinGains:             binning.DefaultMinGains(),
		MaxBins:              10,
		AUCTol:               1e-4,
		ForceSingleSplitRest: 100,
		NFolds:               6,
		Seed:                 42,
		CatAlpha:             100,
		RareMinCount:         5,
		Woe:                  woe.DefaultOptions(),
		OOFWoe:               true,
		Interpretable:        true,
		Regularized:          false,
		MaxC:                 1e4,
		PValueThreshold:      0.05,
	}
}

// resolveCount turns a fractional threshold into a row count. Values of
// one or more are absolute counts already.
func resolveCount(v float64, nSamples int) int {
	if v >= 1 {
		return int(v)
	}
	return int(math.Round(v * float64(nSamples)))
}

// resolveMinBinSize turns a fractional MinBinSize into a sample count.
func (c Config) resolveMinBinSize(nSamples int) int {
	size := resolveCount(c.MinBinSize, nSamples)
	if size < 1 {
		size = 1
	}
	return size
}
