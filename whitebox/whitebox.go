// Package whitebox fits an interpretable WoE scorecard: every numeric or
// categorical feature is discretized by a cross-validated supervised
// binning search, encoded by weight of evidence, and the encoded matrix is
// refit into a sign-constrained logistic model. The result is a Scorecard
// that scores raw columns and exports a per-bin representation.
package whitebox

import (
	"fmt"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/resivalex/AutoMLWhitebox/binning"
	"github.com/resivalex/AutoMLWhitebox/core/model"
	"github.com/resivalex/AutoMLWhitebox/core/parallel"
	"github.com/resivalex/AutoMLWhitebox/crossval"
	"github.com/resivalex/AutoMLWhitebox/metrics"
	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
	"github.com/resivalex/AutoMLWhitebox/pkg/log"
	"github.com/resivalex/AutoMLWhitebox/refit"
	"github.com/resivalex/AutoMLWhitebox/woe"
)

// WhiteBox is the top-level estimator.
type WhiteBox struct {
	model.BaseEstimator

	cfg    Config
	logger log.Logger

	scorecard *Scorecard
	trail     []Elimination

	// ValidationColumns and ValidationTarget, when set before Fit,
	// enable the validation elimination stage of the statistical refit.
	ValidationColumns []Column
	ValidationTarget  []float64
}

// New creates a WhiteBox with the given configuration.
func New(cfg Config) *WhiteBox {
	return &WhiteBox{
		cfg:    cfg,
		logger: log.GetLoggerWithName("whitebox"),
	}
}

// featureResult carries one feature's binning and encoding out of the
// worker pool.
type featureResult struct {
	col     Column
	binSet  binning.BinSet
	table   *woe.Table
	encoded []float64
	elim    *Elimination
	err     error
}

// Fit trains the scorecard. Per-feature failures (degenerate binning,
// unusable WoE table) drop the feature and continue; refit failures abort
// the fit.
func (wb *WhiteBox) Fit(columns []Column, target []float64) error {
	start := time.Now()
	wb.Reset()
	wb.scorecard = nil
	wb.trail = nil

	nSamples := len(target)
	if nSamples == 0 {
		return wbErrors.ErrEmptyData
	}
	if err := validateTarget(target); err != nil {
		return err
	}
	if len(columns) == 0 {
		return wbErrors.NewEmptyFeatureSetError("WhiteBox.Fit")
	}
	for _, col := range columns {
		if err := col.validate(nSamples); err != nil {
			return err
		}
	}

	minBinSize := wb.cfg.resolveMinBinSize(nSamples)
	rareMin := resolveCount(wb.cfg.RareMinCount, nSamples)
	forceRest := resolveCount(wb.cfg.ForceSingleSplitRest, nSamples)
	folds := crossval.NewStratifiedKFold(wb.cfg.NFolds, true, wb.cfg.Seed).Split(target)
	foldAssign, err := crossval.Assignment(folds, nSamples)
	if err != nil {
		return err
	}

	wb.logger.Info("fitting scorecard",
		log.SamplesKey, nSamples,
		log.FeaturesKey, len(columns),
		log.FoldsKey, wb.cfg.NFolds,
	)

	results := make([]featureResult, len(columns))
	var mu sync.Mutex
	parallel.ForEach(len(columns), wb.cfg.Workers, func(i int) {
		res := wb.processFeature(columns[i], target, foldAssign, minBinSize, rareMin, forceRest)
		mu.Lock()
		results[i] = res
		mu.Unlock()
	})

	var survivors []featureResult
	for _, res := range results {
		if res.err != nil {
			return res.err
		}
		if res.elim != nil {
			wb.trail = append(wb.trail, *res.elim)
			wb.logger.Info("feature dropped",
				log.FeatureKey, res.elim.Feature,
				"reason", string(res.elim.Reason),
			)
			continue
		}
		survivors = append(survivors, res)
	}
	if len(survivors) == 0 {
		return wbErrors.NewEmptyFeatureSetError("WhiteBox.Fit")
	}

	design := mat.NewDense(nSamples, len(survivors), nil)
	for j, res := range survivors {
		design.SetCol(j, res.encoded)
	}

	result, err := wb.runRefit(design, survivors, target)
	if err != nil {
		return err
	}

	card := &Scorecard{Intercept: result.Intercept}
	for j, res := range survivors {
		if !result.Kept[j] {
			reason := ReasonSignViolation
			switch result.DropReasons[j] {
			case refit.DropHighPValue:
				reason = ReasonHighPValue
			case refit.DropPenalized:
				reason = ReasonPenalized
			}
			wb.trail = append(wb.trail, Elimination{
				Feature: res.col.Name,
				Reason:  reason,
			})
			continue
		}
		card.Features = append(card.Features, ScoredFeature{
			Name:        res.col.Name,
			Kind:        res.col.Kind,
			Coefficient: result.Coefficients[j],
			Bins:        res.binSet,
			Woe:         res.table,
		})
	}
	if len(card.Features) == 0 && wb.cfg.Regularized {
		// The intercept-only endpoint of the L1 path is a valid model.
		wb.logger.Warn("all features eliminated on the regularization path")
	}

	wb.scorecard = card
	wb.SetFitted()
	wb.logger.Info("scorecard fitted",
		log.KeptKey, len(card.Features),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// runRefit builds the configured strategy and applies it.
func (wb *WhiteBox) runRefit(design *mat.Dense, survivors []featureResult, target []float64) (*refit.Result, error) {
	var engine refit.Engine
	if wb.cfg.Regularized {
		engine = refit.NewRegularizedRefit(wb.cfg.MaxC)
	} else {
		stat := refit.NewStatisticalRefit(wb.cfg.PValueThreshold)
		if wb.ValidationColumns != nil && wb.ValidationTarget != nil {
			vx, err := wb.validationDesign(survivors)
			if err != nil {
				return nil, err
			}
			stat.ValidationX = vx
			stat.ValidationY = wb.ValidationTarget
		}
		engine = stat
	}
	return engine.Refit(design, target, wb.cfg.Interpretable)
}

// validationDesign encodes the validation columns with the full-sample
// tables of the surviving features.
func (wb *WhiteBox) validationDesign(survivors []featureResult) (*mat.Dense, error) {
	byName := make(map[string]Column, len(wb.ValidationColumns))
	for _, col := range wb.ValidationColumns {
		byName[col.Name] = col
	}

	n := len(wb.ValidationTarget)
	vx := mat.NewDense(n, len(survivors), nil)
	for j, res := range survivors {
		col, ok := byName[res.col.Name]
		if !ok {
			return nil, wbErrors.NewValueError("WhiteBox.Fit",
				fmt.Sprintf("validation data missing column %q", res.col.Name))
		}
		if col.Len() != n {
			return nil, wbErrors.NewDimensionError("WhiteBox.Fit", n, col.Len(), 0)
		}
		sf := ScoredFeature{Name: res.col.Name, Kind: res.col.Kind, Bins: res.binSet, Woe: res.table}
		vx.SetCol(j, sf.Encode(col))
	}
	return vx, nil
}

// processFeature runs one column through the full binning and encoding
// pipeline. Degenerate outcomes come back as an elimination entry, not an
// error.
func (wb *WhiteBox) processFeature(col Column, target []float64, foldAssign []int, minBinSize, rareMin, forceRest int) featureResult {
	res := featureResult{col: col}
	eliminate := func(detail string) featureResult {
		res.elim = &Elimination{Feature: col.Name, Reason: ReasonDegenerate, Detail: detail}
		return res
	}

	missing := col.missingMask()

	// Project the column onto a numeric axis.
	var axis []float64
	var rare map[string]bool
	var catEnc *binning.CategoryEncoding
	if col.Kind == binning.Categorical {
		rare = rareCategories(col.Categories, missing, rareMin)
		var err error
		catEnc, err = wb.encodeCategories(col, target, missing, rare)
		if err != nil {
			return eliminate(err.Error())
		}
		axis = make([]float64, col.Len())
		for i, c := range col.Categories {
			if !missing[i] && !rare[c] {
				axis[i] = catEnc.Values[c]
			}
		}
	} else {
		axis = col.Numeric
	}

	// Valid rows: not missing, not rare.
	var validIdx []int
	for i := range axis {
		if missing[i] {
			continue
		}
		if rare != nil && rare[col.Categories[i]] {
			continue
		}
		validIdx = append(validIdx, i)
	}
	if len(validIdx) < 2*minBinSize {
		return eliminate("too few valid rows to bin")
	}

	validVals := make([]float64, len(validIdx))
	validY := make([]float64, len(validIdx))
	validAssign := make([]int, len(validIdx))
	for k, i := range validIdx {
		validVals[k] = axis[i]
		validY[k] = target[i]
		validAssign[k] = foldAssign[i]
	}

	params := binning.SearchParams{
		MinBinSize:  minBinSize,
		MinBinMults: wb.cfg.MinBinMults,
		MinGains:    wb.cfg.MinGains,
		MaxBins:     wb.cfg.MaxBins,
		Monotone:    wb.resolveMonotone(col, validVals, validY),
		AUCTol:      wb.cfg.AUCTol,
	}
	if force, degenerate := singleSplitOverride(validVals, minBinSize, forceRest); degenerate {
		return eliminate("dominant value leaves too few rows")
	} else if force {
		params.ForceSingleSplit = true
	}

	search := binning.NewBinSearch(nil)
	thresholds, err := search.Search(validVals, validY, crossval.FoldsFromAssignment(validAssign), params)
	if err != nil {
		res.err = wbErrors.Wrapf(err, "binning %q", col.Name)
		return res
	}
	if len(thresholds) == 0 {
		return eliminate("unable to WoE transform")
	}

	var extractor binning.SplitExtractor
	if col.Kind == binning.Categorical {
		enc := make(map[string]float64, len(catEnc.Values))
		for c, v := range catEnc.Values {
			if !rare[c] {
				enc[c] = v
			}
		}
		res.binSet, err = extractor.ExtractCategorical(thresholds, enc)
		if err != nil {
			return eliminate(err.Error())
		}
	} else {
		res.binSet = extractor.ExtractNumeric(thresholds, validVals)
	}
	if res.binSet.IsTrivial() {
		return eliminate("binning collapsed to a single bin")
	}

	codes := wb.assignCodes(col, missing, rare, res.binSet)

	if wb.cfg.OOFWoe {
		res.encoded, res.table, err = woe.FitTransformOOF(col.Name, codes, target, res.binSet.NumBins(), foldAssign, wb.cfg.Woe)
	} else {
		res.table, err = woe.Fit(col.Name, codes, target, res.binSet.NumBins(), wb.cfg.Woe)
		if err == nil {
			res.encoded = res.table.Transform(codes)
		}
	}
	if err != nil {
		var encErr *wbErrors.EncodingError
		if wbErrors.As(err, &encErr) {
			return eliminate(err.Error())
		}
		res.err = err
	}
	return res
}

// resolveMonotone collapses MonotoneAuto using the one-dimensional AUC of
// the axis against the target. Categorical axes are mean-target encoded
// and therefore increasing by construction.
func (wb *WhiteBox) resolveMonotone(col Column, values, target []float64) binning.Monotone {
	if col.Monotone != binning.MonotoneAuto {
		return col.Monotone
	}
	if col.Kind == binning.Categorical {
		return binning.MonotoneIncreasing
	}
	auc, err := metrics.AUC(target, values)
	if err != nil || auc == 0.5 {
		return binning.MonotoneNone
	}
	if auc > 0.5 {
		return binning.MonotoneIncreasing
	}
	return binning.MonotoneDecreasing
}

// singleSplitOverride checks the dominant-value condition: when rows
// outside the most frequent value are too few for a grid search but still
// carry signal, force exactly one split; when they carry nothing, the
// feature is degenerate.
func singleSplitOverride(values []float64, minBinSize, forceRest int) (force, degenerate bool) {
	counts := make(map[float64]int)
	dominant := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > dominant {
			dominant = counts[v]
		}
	}
	rest := len(values) - dominant
	if rest >= minBinSize {
		return false, false
	}
	if rest > forceRest {
		return true, false
	}
	return false, true
}

// assignCodes maps every row to an ordinary bin or a special code.
func (wb *WhiteBox) assignCodes(col Column, missing []bool, rare map[string]bool, bins binning.BinSet) []int {
	codes := make([]int, col.Len())
	for i := range codes {
		switch {
		case missing[i]:
			codes[i] = int(woe.CodeMissing)
		case col.Kind == binning.Categorical && rare[col.Categories[i]]:
			codes[i] = int(woe.CodeRare)
		case col.Kind == binning.Categorical:
			codes[i] = bins.CategoryMap[col.Categories[i]]
		default:
			codes[i] = bins.AssignNumeric(col.Numeric[i])
		}
	}
	return codes
}

// encodeCategories fits the smoothed mean-target encoding on usable rows.
func (wb *WhiteBox) encodeCategories(col Column, target []float64, missing []bool, rare map[string]bool) (*binning.CategoryEncoding, error) {
	var cats []string
	var y []float64
	for i, c := range col.Categories {
		if missing[i] || rare[c] {
			continue
		}
		cats = append(cats, c)
		y = append(y, target[i])
	}
	if len(cats) == 0 {
		return nil, wbErrors.NewDegenerateFeatureError(col.Name, "no usable categories")
	}
	return binning.FitCategoryEncoding(cats, y, wb.cfg.CatAlpha)
}

func rareCategories(categories []string, missing []bool, minCount int) map[string]bool {
	counts := make(map[string]int)
	for i, c := range categories {
		if !missing[i] {
			counts[c]++
		}
	}
	rare := make(map[string]bool)
	for c, n := range counts {
		if n < minCount {
			rare[c] = true
		}
	}
	return rare
}

func validateTarget(target []float64) error {
	var pos, neg bool
	for _, y := range target {
		switch y {
		case 0:
			neg = true
		case 1:
			pos = true
		default:
			return wbErrors.NewValueError("WhiteBox.Fit", "target must be binary 0/1")
		}
	}
	if !pos || !neg {
		return wbErrors.NewValueError("WhiteBox.Fit", "target must contain both classes")
	}
	return nil
}

// PredictProba scores raw columns with the fitted scorecard.
func (wb *WhiteBox) PredictProba(columns []Column) ([]float64, error) {
	if !wb.IsFitted() {
		return nil, wbErrors.NewNotFittedError("WhiteBox", "PredictProba")
	}
	return wb.scorecard.PredictProba(columns)
}

// Scorecard returns the fitted model. Nil before Fit.
func (wb *WhiteBox) Scorecard() *Scorecard {
	return wb.scorecard
}

// Trail returns the feature-elimination trail of the last Fit.
func (wb *WhiteBox) Trail() []Elimination {
	return append([]Elimination(nil), wb.trail...)
}
