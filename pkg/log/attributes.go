package log

// Standard attribute keys for whitebox logging. Using these keys keeps
// log output consistent across the binning, encoding and refit stages.
const (
	// ComponentKey identifies the package emitting the log record.
	ComponentKey = "component"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "transform", "refit", "bin_search".
	OperationKey = "operation"

	// FeatureKey names the feature a record refers to.
	FeatureKey = "feature"

	// SamplesKey is the number of samples (rows) in the data.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of candidate features (columns).
	FeaturesKey = "data.features"

	// FoldsKey is the number of cross-validation folds in use.
	FoldsKey = "cv.folds"

	// BinsKey is the number of bins selected for a feature.
	BinsKey = "binning.bins"

	// AUCKey records an AUC value.
	AUCKey = "metrics.auc"

	// IterationKey is the current iteration of an elimination loop.
	IterationKey = "refit.iteration"

	// KeptKey is the number of features surviving an elimination step.
	KeptKey = "refit.kept"

	// DurationMsKey records elapsed time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
