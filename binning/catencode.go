package binning

import (
	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

// CategoryEncoding is a smoothed mean-target encoding of a categorical
// column, used to place categories on a numeric axis before binning.
type CategoryEncoding struct {
	// Values maps each seen category to its encoded position.
	Values map[string]float64
	// GlobalMean is the overall target rate, used as the prior.
	GlobalMean float64
}

// FitCategoryEncoding computes per-category smoothed mean targets
//
//	enc(c) = (sum_y(c) + alpha*mean(y)) / (count(c) + alpha)
//
// so small categories shrink toward the global rate. Alpha of zero gives
// the plain category mean.
func FitCategoryEncoding(categories []string, target []float64, alpha float64) (*CategoryEncoding, error) {
	if len(categories) != len(target) {
		return nil, wbErrors.NewDimensionError("FitCategoryEncoding", len(categories), len(target), 0)
	}
	if len(categories) == 0 {
		return nil, wbErrors.ErrEmptyData
	}
	if alpha < 0 {
		alpha = 0
	}

	var total float64
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	for i, c := range categories {
		sums[c] += target[i]
		counts[c]++
		total += target[i]
	}
	mean := total / float64(len(categories))

	enc := make(map[string]float64, len(sums))
	for c, s := range sums {
		enc[c] = (s + alpha*mean) / (counts[c] + alpha)
	}
	return &CategoryEncoding{Values: enc, GlobalMean: mean}, nil
}

// Encode maps a categorical column onto the fitted numeric axis. Unseen
// categories take the global mean.
func (e *CategoryEncoding) Encode(categories []string) []float64 {
	out := make([]float64, len(categories))
	for i, c := range categories {
		if v, ok := e.Values[c]; ok {
			out[i] = v
		} else {
			out[i] = e.GlobalMean
		}
	}
	return out
}
