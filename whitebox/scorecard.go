package whitebox

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/resivalex/AutoMLWhitebox/binning"
	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
	"github.com/resivalex/AutoMLWhitebox/woe"
)

// ScoredFeature is one surviving feature of a fitted scorecard: its bin
// definition, WoE table and model coefficient.
type ScoredFeature struct {
	Name        string
	Kind        binning.FeatureKind
	Coefficient float64
	Bins        binning.BinSet
	Woe         *woe.Table
}

// assignNumeric maps a raw numeric value to its bin code.
func (f *ScoredFeature) assignNumeric(v float64) int {
	if math.IsNaN(v) {
		return int(woe.CodeMissing)
	}
	return f.Bins.AssignNumeric(v)
}

// assignCategory maps a raw category to its bin code. Categories unseen
// during fitting, including train-time rare ones, share the rare code.
func (f *ScoredFeature) assignCategory(c string) int {
	if c == "" {
		return int(woe.CodeMissing)
	}
	if bin, ok := f.Bins.CategoryMap[c]; ok {
		return bin
	}
	return int(woe.CodeRare)
}

// Encode maps a raw column through bins and WoE.
func (f *ScoredFeature) Encode(col Column) []float64 {
	codes := make([]int, col.Len())
	if f.Kind == binning.Categorical {
		for i, c := range col.Categories {
			codes[i] = f.assignCategory(c)
		}
	} else {
		for i, v := range col.Numeric {
			codes[i] = f.assignNumeric(v)
		}
	}
	return f.Woe.Transform(codes)
}

// Scorecard is the final fitted model: one coefficient per surviving
// feature plus an intercept, with the binning needed to score raw data.
type Scorecard struct {
	Features  []ScoredFeature
	Intercept float64
}

// PredictProba scores raw columns, matched to features by name, returning
// the positive-class probability per row.
func (s *Scorecard) PredictProba(columns []Column) ([]float64, error) {
	byName := make(map[string]Column, len(columns))
	nSamples := -1
	for _, col := range columns {
		byName[col.Name] = col
		if nSamples == -1 {
			nSamples = col.Len()
		} else if col.Len() != nSamples {
			return nil, wbErrors.NewDimensionError("Scorecard.PredictProba", nSamples, col.Len(), 0)
		}
	}
	if nSamples < 0 {
		return nil, wbErrors.ErrEmptyData
	}

	logits := make([]float64, nSamples)
	for i := range logits {
		logits[i] = s.Intercept
	}
	for _, f := range s.Features {
		col, ok := byName[f.Name]
		if !ok {
			return nil, wbErrors.NewValueError("Scorecard.PredictProba",
				fmt.Sprintf("missing column %q", f.Name))
		}
		encoded := f.Encode(col)
		for i, w := range encoded {
			logits[i] += f.Coefficient * w
		}
	}

	probs := make([]float64, nSamples)
	for i, z := range logits {
		probs[i] = 1.0 / (1.0 + math.Exp(-wbErrors.ClipValue(z, -700, 700)))
	}
	return probs, nil
}

// Row is one line of the human-readable scorecard representation.
type Row struct {
	Feature string
	Bin     string
	Woe     float64
	Score   float64
}

// Rows exports the scorecard as per-bin rows: Score is the coefficient
// times the bin WoE, the feature's contribution to the logit.
func (s *Scorecard) Rows() []Row {
	var rows []Row
	for _, f := range s.Features {
		for b := 0; b < f.Woe.NumBins; b++ {
			w := f.Woe.Woe[b]
			rows = append(rows, Row{
				Feature: f.Name,
				Bin:     f.binLabel(b),
				Woe:     w,
				Score:   f.Coefficient * w,
			})
		}
		var specials []int
		for code := range f.Woe.Woe {
			if code < 0 {
				specials = append(specials, code)
			}
		}
		sort.Sort(sort.Reverse(sort.IntSlice(specials)))
		for _, code := range specials {
			w := f.Woe.Woe[code]
			rows = append(rows, Row{
				Feature: f.Name,
				Bin:     specialLabel(woe.SpecialCode(code)),
				Woe:     w,
				Score:   f.Coefficient * w,
			})
		}
	}
	return rows
}

func (f *ScoredFeature) binLabel(bin int) string {
	if f.Kind == binning.Categorical {
		var cats []string
		for c, b := range f.Bins.CategoryMap {
			if b == bin {
				cats = append(cats, c)
			}
		}
		sort.Strings(cats)
		return "{" + strings.Join(cats, ", ") + "}"
	}

	th := f.Bins.Thresholds
	switch {
	case len(th) == 0:
		return "(-inf, +inf)"
	case bin == 0:
		return fmt.Sprintf("(-inf, %g]", th[0])
	case bin == len(th):
		return fmt.Sprintf("(%g, +inf)", th[len(th)-1])
	default:
		return fmt.Sprintf("(%g, %g]", th[bin-1], th[bin])
	}
}

func specialLabel(code woe.SpecialCode) string {
	switch code {
	case woe.CodeMissing:
		return "Missing"
	case woe.CodeRare:
		return "Rare"
	default:
		return fmt.Sprintf("Special(%d)", code)
	}
}
