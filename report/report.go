// Package report renders diagnostic plots for a fitted scorecard: per
// feature WoE bar charts and a ROC curve for the scored sample.
package report

import (
	"fmt"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
	"github.com/resivalex/AutoMLWhitebox/whitebox"
)

// Reporter writes plot files into a directory.
type Reporter struct {
	Dir string
	// Width and Height of the rendered images.
	Width, Height vg.Length
}

// NewReporter creates a Reporter with the default image size.
func NewReporter(dir string) *Reporter {
	return &Reporter{Dir: dir, Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

// WoeBars renders one bar chart per scorecard feature, bin WoE on the
// vertical axis, and returns the written file paths.
func (r *Reporter) WoeBars(card *whitebox.Scorecard) ([]string, error) {
	if card == nil {
		return nil, wbErrors.NewNotFittedError("Scorecard", "WoeBars")
	}

	byFeature := make(map[string][]whitebox.Row)
	var order []string
	for _, row := range card.Rows() {
		if _, seen := byFeature[row.Feature]; !seen {
			order = append(order, row.Feature)
		}
		byFeature[row.Feature] = append(byFeature[row.Feature], row)
	}

	var paths []string
	for _, feature := range order {
		rows := byFeature[feature]
		p := plot.New()
		p.Title.Text = fmt.Sprintf("WoE: %s", feature)
		p.Y.Label.Text = "WoE"

		values := make(plotter.Values, len(rows))
		labels := make([]string, len(rows))
		for i, row := range rows {
			values[i] = row.Woe
			labels[i] = row.Bin
		}

		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return nil, wbErrors.Wrapf(err, "bar chart for %q", feature)
		}
		p.Add(bars)
		p.NominalX(labels...)

		path := filepath.Join(r.Dir, fmt.Sprintf("woe_%s.png", feature))
		if err := p.Save(r.Width, r.Height, path); err != nil {
			return nil, wbErrors.Wrapf(err, "saving %q", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ROCCurve renders the ROC curve of scores against binary labels and
// returns the written file path.
func (r *Reporter) ROCCurve(yTrue, yScore []float64) (string, error) {
	if len(yTrue) != len(yScore) {
		return "", wbErrors.NewDimensionError("Reporter.ROCCurve", len(yTrue), len(yScore), 0)
	}
	if len(yTrue) == 0 {
		return "", wbErrors.ErrEmptyData
	}

	pts := rocPoints(yTrue, yScore)

	p := plot.New()
	p.Title.Text = "ROC"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", wbErrors.Wrap(err, "roc line")
	}
	diag := plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
	ref, err := plotter.NewLine(diag)
	if err != nil {
		return "", wbErrors.Wrap(err, "roc reference line")
	}
	ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(line, ref)

	path := filepath.Join(r.Dir, "roc.png")
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return "", wbErrors.Wrapf(err, "saving %q", path)
	}
	return path, nil
}

// rocPoints sweeps thresholds over the distinct scores, descending.
func rocPoints(yTrue, yScore []float64) plotter.XYs {
	idx := make([]int, len(yScore))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return yScore[idx[a]] > yScore[idx[b]]
	})

	var totalPos, totalNeg float64
	for _, y := range yTrue {
		if y > 0 {
			totalPos++
		} else {
			totalNeg++
		}
	}
	if totalPos == 0 || totalNeg == 0 {
		return plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}}
	}

	pts := plotter.XYs{{X: 0, Y: 0}}
	var tp, fp float64
	for k, i := range idx {
		if yTrue[i] > 0 {
			tp++
		} else {
			fp++
		}
		if k == len(idx)-1 || yScore[idx[k+1]] != yScore[i] {
			pts = append(pts, plotter.XY{X: fp / totalNeg, Y: tp / totalPos})
		}
	}
	return pts
}
