// Package model provides the shared estimator state machinery used by the
// whitebox components. Every fit-then-transform type embeds BaseEstimator to
// get consistent fitted-state tracking, so calling Transform or Predict on
// an untrained component fails with a NotFittedError instead of producing
// garbage.
package model

// EstimatorState represents the learning state of a component.
type EstimatorState int

const (
	// NotFitted indicates the component has not been trained.
	NotFitted EstimatorState = iota
	// Fitted indicates the component has been trained.
	Fitted
)

// BaseEstimator is the embedded base for all fit-then-transform components.
type BaseEstimator struct {
	// State holds the learning state. Public for gob encoding.
	State EstimatorState
}

// IsFitted reports whether the component has been fitted with training data.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the component as fitted. Called by implementations at the
// end of a successful Fit.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the component to its initial untrained state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
