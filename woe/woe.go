// Package woe computes weight-of-evidence encodings over pre-assigned bin
// columns. Ordinary bins are non-negative ids produced by the binning
// package; missing values and rare categories travel as negative special
// codes and get their own WoE, a merge into a statistically nearest bin,
// or a fallback policy at transform time.
package woe

import (
	"fmt"
	"math"
	"sort"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

// SpecialCode is a sentinel bin id for values outside the ordinary bins.
type SpecialCode int

const (
	// CodeMissing marks missing values.
	CodeMissing SpecialCode = -1
	// CodeRare marks rare categorical values tagged before binning.
	CodeRare SpecialCode = -2
)

// Fallback decides the WoE of codes unseen during fitting.
type Fallback int

const (
	// ToWoeZero maps unseen codes to zero, the uninformative WoE.
	ToWoeZero Fallback = iota
	// ToMaxFreq maps unseen codes to the most populated bin's WoE.
	ToMaxFreq
	// ToMaxP maps unseen codes to the bin with the highest target rate.
	ToMaxP
	// ToMinP maps unseen codes to the bin with the lowest target rate.
	ToMinP
)

// Options configures WoE fitting.
type Options struct {
	// Smoothing is the additive epsilon keeping every WoE finite.
	Smoothing float64
	// MergeCountThreshold is the occupancy below which a special code is
	// considered for merging into an ordinary bin. Values below 1 are
	// fractions of the row count, resolved at fit time.
	MergeCountThreshold float64
	// MergeWoeDiff is the largest |WoE difference| allowed for a merge.
	MergeWoeDiff float64
	// Fallbacks selects the transform-time policy per special code.
	// Codes without an entry use ToWoeZero.
	Fallbacks map[SpecialCode]Fallback
}

// DefaultOptions returns the usual smoothing and merge settings.
func DefaultOptions() Options {
	return Options{
		Smoothing:           0.5,
		MergeCountThreshold: 20,
		MergeWoeDiff:        0.1,
	}
}

// Table is a fitted WoE mapping for one feature. Immutable after Fit.
type Table struct {
	// NumBins is the count of ordinary bins.
	NumBins int
	// Woe maps every code seen during fitting, ordinary and special, to
	// its encoding. Merged special codes carry their host bin's WoE.
	Woe map[int]float64
	// Merged records special codes folded into an ordinary bin.
	Merged map[SpecialCode]int
	// Counts holds the fit-time occupancy per code.
	Counts map[int]int

	fallbacks map[SpecialCode]Fallback
	maxFreqWoe float64
	maxWoe     float64
	minWoe     float64
}

// Fit computes a WoE table from a bin-assigned column and a binary target.
// It fails when the feature has no ordinary bins or when every row maps to
// a special code.
func Fit(feature string, bins []int, target []float64, numBins int, opts Options) (*Table, error) {
	if len(bins) != len(target) {
		return nil, wbErrors.NewDimensionError("woe.Fit", len(bins), len(target), 0)
	}
	if numBins < 1 {
		return nil, wbErrors.NewEncodingError(feature, "empty bin set")
	}

	counts := make(map[int]int)
	posCounts := make(map[int]float64)
	var totalPos, totalNeg float64
	ordinary := 0
	for i, b := range bins {
		counts[b]++
		posCounts[b] += target[i]
		if b >= 0 {
			ordinary++
		}
		if target[i] > 0 {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if ordinary == 0 {
		return nil, wbErrors.NewEncodingError(feature, "all rows map to special codes")
	}

	eps := opts.Smoothing
	if eps <= 0 {
		eps = DefaultOptions().Smoothing
	}
	// Good/bad orientation: bins dense in the negative class carry a
	// positive WoE, so a predictive feature takes a negative coefficient
	// in the downstream logistic fit.
	woeOf := func(pos, neg float64) float64 {
		return math.Log((neg+eps)/(totalNeg+eps)) - math.Log((pos+eps)/(totalPos+eps))
	}

	t := &Table{
		NumBins:   numBins,
		Woe:       make(map[int]float64, len(counts)+numBins),
		Merged:    make(map[SpecialCode]int),
		Counts:    counts,
		fallbacks: opts.Fallbacks,
	}
	for b := 0; b < numBins; b++ {
		pos := posCounts[b]
		neg := float64(counts[b]) - pos
		t.Woe[b] = woeOf(pos, neg)
	}

	// Specials: keep, or merge into the nearest ordinary bin by WoE.
	// Merges pool into running per-bin counts, in descending code order,
	// so the result does not depend on map iteration and every member of
	// a merged group ends at the host's final WoE.
	binPos := make([]float64, numBins)
	binNeg := make([]float64, numBins)
	for b := 0; b < numBins; b++ {
		binPos[b] = posCounts[b]
		binNeg[b] = float64(counts[b]) - posCounts[b]
	}
	mergeThreshold := opts.MergeCountThreshold
	if mergeThreshold > 0 && mergeThreshold < 1 {
		mergeThreshold = math.Round(mergeThreshold * float64(len(bins)))
	}
	var specials []int
	for code := range counts {
		if code < 0 {
			specials = append(specials, code)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(specials)))
	for _, code := range specials {
		pos := posCounts[code]
		neg := float64(counts[code]) - pos
		own := woeOf(pos, neg)

		if float64(counts[code]) < mergeThreshold {
			host, diff := t.nearestBin(own)
			if diff < opts.MergeWoeDiff {
				binPos[host] += pos
				binNeg[host] += neg
				t.Woe[host] = woeOf(binPos[host], binNeg[host])
				t.Merged[SpecialCode(code)] = host
				continue
			}
		}
		t.Woe[code] = own
	}
	for code, host := range t.Merged {
		t.Woe[int(code)] = t.Woe[host]
	}

	t.cacheFallbackAnchors(counts)
	return t, nil
}

// nearestBin returns the ordinary bin whose WoE is closest to w. Ties go
// to the lowest bin id.
func (t *Table) nearestBin(w float64) (int, float64) {
	best, bestDiff := 0, math.Inf(1)
	for b := 0; b < t.NumBins; b++ {
		if diff := math.Abs(t.Woe[b] - w); diff < bestDiff {
			best, bestDiff = b, diff
		}
	}
	return best, bestDiff
}

func (t *Table) cacheFallbackAnchors(counts map[int]int) {
	t.maxWoe = math.Inf(-1)
	t.minWoe = math.Inf(1)
	maxCount := -1
	for b := 0; b < t.NumBins; b++ {
		w := t.Woe[b]
		if w > t.maxWoe {
			t.maxWoe = w
		}
		if w < t.minWoe {
			t.minWoe = w
		}
		if counts[b] > maxCount {
			maxCount = counts[b]
			t.maxFreqWoe = w
		}
	}
}

// Lookup encodes a single code, routing unseen codes through the fallback
// policy configured for them.
func (t *Table) Lookup(code int) float64 {
	if w, ok := t.Woe[code]; ok {
		return w
	}
	policy := ToWoeZero
	if code < 0 && t.fallbacks != nil {
		if p, ok := t.fallbacks[SpecialCode(code)]; ok {
			policy = p
		}
	}
	switch policy {
	case ToMaxFreq:
		return t.maxFreqWoe
	case ToMaxP:
		// The max-posterior bin carries the lowest WoE under the
		// good/bad orientation.
		return t.minWoe
	case ToMinP:
		return t.maxWoe
	default:
		return 0
	}
}

// Transform encodes a bin-assigned column with the fitted table.
func (t *Table) Transform(bins []int) []float64 {
	out := make([]float64, len(bins))
	for i, b := range bins {
		out[i] = t.Lookup(b)
	}
	return out
}

// FitTransformOOF encodes each row with a table fitted on all folds except
// the row's own, so no row's encoding depends on its own target. The
// returned table is fitted on the full sample and is the one retained for
// scoring future data.
func FitTransformOOF(feature string, bins []int, target []float64, numBins int, foldAssign []int, opts Options) ([]float64, *Table, error) {
	if len(foldAssign) != len(bins) {
		return nil, nil, wbErrors.NewDimensionError("woe.FitTransformOOF", len(bins), len(foldAssign), 0)
	}

	full, err := Fit(feature, bins, target, numBins, opts)
	if err != nil {
		return nil, nil, err
	}

	nFolds := 0
	for _, f := range foldAssign {
		if f+1 > nFolds {
			nFolds = f + 1
		}
	}

	encoded := make([]float64, len(bins))
	for f := 0; f < nFolds; f++ {
		var trainBins []int
		var trainY []float64
		var testIdx []int
		for i, fa := range foldAssign {
			if fa == f {
				testIdx = append(testIdx, i)
			} else {
				trainBins = append(trainBins, bins[i])
				trainY = append(trainY, target[i])
			}
		}
		if len(testIdx) == 0 {
			continue
		}

		foldTable, err := Fit(feature, trainBins, trainY, numBins, opts)
		if err != nil {
			return nil, nil, wbErrors.Wrapf(err, "out-of-fold encoding, fold %d", f)
		}
		for _, i := range testIdx {
			encoded[i] = foldTable.Lookup(bins[i])
		}
	}
	return encoded, full, nil
}

// String summarizes the table for trail messages.
func (t *Table) String() string {
	return fmt.Sprintf("woe.Table{bins: %d, specials: %d, merged: %d}",
		t.NumBins, len(t.Woe)-t.NumBins, len(t.Merged))
}
