package binning

import (
	"math"
	"sort"

	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

// GradientTreeDiscretizer is a single-feature, single-tree gradient
// splitter. It grows leaves best-first over a pre-binned histogram of the
// feature, scoring candidate splits with the usual second-order gain
//
//	gain = 0.5 * (GL²/HL + GR²/HR − G²/H)
//
// where G/H are gradient/hessian sums of the binary log loss at the
// initial score. Monotone constraints are enforced by propagating value
// bounds to child leaves, so the leaf values are globally ordered along
// the feature axis, not just locally at each split.
type GradientTreeDiscretizer struct {
	// Lambda is the L2 regularizer added to hessian sums in leaf values
	// and gains.
	Lambda float64
}

// NewGradientTreeDiscretizer creates a discretizer with default smoothing.
func NewGradientTreeDiscretizer() *GradientTreeDiscretizer {
	return &GradientTreeDiscretizer{Lambda: 1e-3}
}

// prebin is a contiguous run of equal-or-near feature values with
// aggregated gradient statistics.
type prebin struct {
	upper float64 // split threshold if a cut is placed after this prebin
	count int
	grad  float64
	hess  float64
}

// leaf is a contiguous prebin range [lo, hi) with monotone value bounds.
type leaf struct {
	lo, hi   int
	lower    float64
	upper    float64
	split    int     // best boundary position (prebin index of left end)
	gain     float64 // best split gain, -inf when no valid split exists
	hasSplit bool
}

// FitThresholds implements Discretizer.
func (d *GradientTreeDiscretizer) FitThresholds(values, target []float64, params LeafParams) ([]float64, error) {
	if len(values) != len(target) {
		return nil, wbErrors.NewDimensionError("GradientTreeDiscretizer.FitThresholds", len(values), len(target), 0)
	}
	if len(values) == 0 {
		return nil, wbErrors.ErrEmptyData
	}
	if params.MaxLeaves < 2 {
		return nil, nil
	}

	bins := d.buildPrebins(values, target, params.MinDataInBin)
	if len(bins) < 2 {
		return nil, nil
	}

	leaves := []leaf{{lo: 0, hi: len(bins), lower: math.Inf(-1), upper: math.Inf(1)}}
	d.findBestSplit(&leaves[0], bins, params)

	for len(leaves) < params.MaxLeaves {
		best := -1
		for i := range leaves {
			if !leaves[i].hasSplit {
				continue
			}
			if best == -1 || leaves[i].gain > leaves[best].gain {
				best = i
			}
		}
		if best == -1 {
			break
		}

		parent := leaves[best]
		left, right := d.splitLeaf(parent, bins, params)
		d.findBestSplit(&left, bins, params)
		d.findBestSplit(&right, bins, params)
		leaves[best] = left
		leaves = append(leaves, right)
	}

	// Collect interior boundaries in feature order.
	cuts := make([]float64, 0, len(leaves)-1)
	for _, lf := range leaves {
		if lf.hi < len(bins) {
			cuts = append(cuts, bins[lf.hi-1].upper)
		}
	}
	sort.Float64s(cuts)
	return cuts, nil
}

// buildPrebins sorts the column and aggregates it into candidate bins, each
// holding at least minDataInBin samples and never splitting ties.
func (d *GradientTreeDiscretizer) buildPrebins(values, target []float64, minDataInBin int) []prebin {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	pos := 0.0
	for _, y := range target {
		pos += y
	}
	p0 := pos / float64(n)
	// Degenerate target: every split has zero gain anyway.
	if p0 <= 0 || p0 >= 1 {
		return nil
	}
	hess := p0 * (1 - p0)

	if minDataInBin < 1 {
		minDataInBin = 1
	}

	var bins []prebin
	cur := prebin{}
	for k := 0; k < n; k++ {
		i := order[k]
		cur.count++
		cur.grad += p0 - target[i]
		cur.hess += hess

		lastOfRun := k == n-1 || values[order[k+1]] != values[i]
		if lastOfRun && cur.count >= minDataInBin && k < n-1 {
			cur.upper = (values[i] + values[order[k+1]]) / 2
			bins = append(bins, cur)
			cur = prebin{}
		}
	}
	if cur.count > 0 {
		cur.upper = math.Inf(1)
		bins = append(bins, cur)
	}
	return bins
}

// findBestSplit scans the leaf's interior boundaries and records the best
// admissible split, if any.
func (d *GradientTreeDiscretizer) findBestSplit(lf *leaf, bins []prebin, params LeafParams) {
	lf.hasSplit = false
	lf.gain = math.Inf(-1)

	var totalGrad, totalHess float64
	totalCount := 0
	for i := lf.lo; i < lf.hi; i++ {
		totalGrad += bins[i].grad
		totalHess += bins[i].hess
		totalCount += bins[i].count
	}

	parentScore := totalGrad * totalGrad / (totalHess + d.Lambda)

	var leftGrad, leftHess float64
	leftCount := 0
	for i := lf.lo; i < lf.hi-1; i++ {
		leftGrad += bins[i].grad
		leftHess += bins[i].hess
		leftCount += bins[i].count

		rightGrad := totalGrad - leftGrad
		rightHess := totalHess - leftHess
		rightCount := totalCount - leftCount

		if leftCount < params.MinDataInLeaf || rightCount < params.MinDataInLeaf {
			continue
		}

		leftValue := -leftGrad / (leftHess + d.Lambda)
		rightValue := -rightGrad / (rightHess + d.Lambda)
		if !d.satisfiesMonotone(params.Monotone, lf, leftValue, rightValue) {
			continue
		}

		gain := 0.5 * (leftGrad*leftGrad/(leftHess+d.Lambda) +
			rightGrad*rightGrad/(rightHess+d.Lambda) - parentScore)
		if gain <= params.MinGainToSplit {
			continue
		}

		if gain > lf.gain {
			lf.gain = gain
			lf.split = i
			lf.hasSplit = true
		}
	}
}

// satisfiesMonotone checks that a candidate split keeps leaf values ordered
// and inside the bounds inherited from ancestor splits.
func (d *GradientTreeDiscretizer) satisfiesMonotone(c Monotone, lf *leaf, leftValue, rightValue float64) bool {
	switch c {
	case MonotoneIncreasing:
		if leftValue > rightValue {
			return false
		}
	case MonotoneDecreasing:
		if leftValue < rightValue {
			return false
		}
	default:
		return true
	}
	return leftValue >= lf.lower && leftValue <= lf.upper &&
		rightValue >= lf.lower && rightValue <= lf.upper
}

// splitLeaf materializes the recorded best split and propagates monotone
// bounds to the children.
func (d *GradientTreeDiscretizer) splitLeaf(parent leaf, bins []prebin, params LeafParams) (leaf, leaf) {
	left := leaf{lo: parent.lo, hi: parent.split + 1, lower: parent.lower, upper: parent.upper}
	right := leaf{lo: parent.split + 1, hi: parent.hi, lower: parent.lower, upper: parent.upper}

	if params.Monotone == MonotoneIncreasing || params.Monotone == MonotoneDecreasing {
		var lg, lh, rg, rh float64
		for i := left.lo; i < left.hi; i++ {
			lg += bins[i].grad
			lh += bins[i].hess
		}
		for i := right.lo; i < right.hi; i++ {
			rg += bins[i].grad
			rh += bins[i].hess
		}
		leftValue := -lg / (lh + d.Lambda)
		rightValue := -rg / (rh + d.Lambda)
		mid := (leftValue + rightValue) / 2

		if params.Monotone == MonotoneIncreasing {
			left.upper = math.Min(left.upper, mid)
			right.lower = math.Max(right.lower, mid)
		} else {
			left.lower = math.Max(left.lower, mid)
			right.upper = math.Min(right.upper, mid)
		}
	}

	return left, right
}
