package binning

import (
	"math"
	"sort"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

// SplitExtractor turns the raw thresholds chosen by the grid search into a
// clean BinSet. Numeric thresholds are deduplicated, sorted and clipped to
// the observed data range; categorical features get a category to bin id
// map with contiguous ids.
type SplitExtractor struct{}

// ExtractNumeric normalizes raw leaf thresholds into a strictly increasing
// interior sequence. Thresholds at or beyond the data range separate
// nothing and are dropped, as are duplicates. An empty result means the
// feature collapsed to a single bin.
func (SplitExtractor) ExtractNumeric(thresholds, values []float64) BinSet {
	if len(thresholds) == 0 || len(values) == 0 {
		return BinSet{Kind: Numeric}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	cuts := make([]float64, 0, len(thresholds))
	for _, t := range thresholds {
		if t >= lo && t < hi {
			cuts = append(cuts, t)
		}
	}
	sort.Float64s(cuts)

	out := cuts[:0]
	for i, t := range cuts {
		if i == 0 || t > out[len(out)-1] {
			out = append(out, t)
		}
	}
	return BinSet{Kind: Numeric, Thresholds: append([]float64(nil), out...)}
}

// ExtractCategorical maps each category to the bin its encoded value falls
// into and compacts the bin ids to a contiguous range starting at zero,
// ordered by the encoded value of the categories they contain.
func (SplitExtractor) ExtractCategorical(thresholds []float64, encoding map[string]float64) (BinSet, error) {
	if len(encoding) == 0 {
		return BinSet{}, wbErrors.NewEncodingError("", "no categories to bin")
	}

	raw := make(map[string]int, len(encoding))
	maxBin := 0
	for cat, enc := range encoding {
		bin := sort.SearchFloat64s(thresholds, enc)
		raw[cat] = bin
		if bin > maxBin {
			maxBin = bin
		}
	}

	// Compact: occupied raw bins become 0..k in order.
	occupied := make([]bool, maxBin+1)
	for _, bin := range raw {
		occupied[bin] = true
	}
	remap := make([]int, maxBin+1)
	next := 0
	for i, used := range occupied {
		if used {
			remap[i] = next
			next++
		}
	}

	catMap := make(map[string]int, len(raw))
	for cat, bin := range raw {
		catMap[cat] = remap[bin]
	}
	return BinSet{Kind: Categorical, CategoryMap: catMap}, nil
}
