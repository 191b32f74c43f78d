package whitebox

import (
	"math"

	"github.com/resivalex/AutoMLWhitebox/binning"
	wbErrors "github.com/resivalex/AutoMLWhitebox/pkg/errors"
)

// Column is one typed input feature. Numeric columns use NaN for missing
// values; categorical columns use the empty string.
type Column struct {
	Name string
	Kind binning.FeatureKind

	// Numeric holds the values of a numeric column.
	Numeric []float64
	// Categories holds the values of a categorical column.
	Categories []string

	// Monotone is the requested constraint. MonotoneAuto resolves from
	// the column's one-dimensional AUC against the target during fit.
	Monotone binning.Monotone
}

// Len returns the row count of the column.
func (c Column) Len() int {
	if c.Kind == binning.Categorical {
		return len(c.Categories)
	}
	return len(c.Numeric)
}

func (c Column) validate(nSamples int) error {
	if c.Name == "" {
		return wbErrors.NewValidationError("column.Name", "must not be empty", c.Name)
	}
	if c.Len() != nSamples {
		return wbErrors.NewDimensionError("whitebox.Fit", nSamples, c.Len(), 0)
	}
	return nil
}

// missingMask marks rows without a usable value.
func (c Column) missingMask() []bool {
	mask := make([]bool, c.Len())
	if c.Kind == binning.Categorical {
		for i, v := range c.Categories {
			mask[i] = v == ""
		}
		return mask
	}
	for i, v := range c.Numeric {
		mask[i] = math.IsNaN(v)
	}
	return mask
}
