// Package errors provides structured error handling for the whitebox
// scorecard pipeline. Error types carry enough context to be logged as
// structured zerolog events, and constructors attach stack traces via
// cockroachdb/errors so failures deep inside a refit loop remain traceable.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("whitebox-warning: %v\n", w)
	}
)

// SetWarningHandler overrides how non-fatal warnings (e.g. convergence
// warnings from the logistic solvers) are reported.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// Warn reports a warning through the configured handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ConvergenceWarning is raised when an optimization routine stops at its
// iteration cap without meeting its tolerance.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a new ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// NotFittedError is returned when Transform or Predict is called on an
// estimator whose Fit has not completed.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("whitebox: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports a mismatch between expected and actual data
// dimensions.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("whitebox: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError reports a parameter that failed validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("whitebox: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is unusable for an operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("whitebox: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// DegenerateFeatureError marks a feature whose binning cannot produce more
// than one bin. Non-fatal: the caller drops the feature and records it in
// the elimination trail.
type DegenerateFeatureError struct {
	Feature string
	Reason  string
}

func (e *DegenerateFeatureError) Error() string {
	return fmt.Sprintf("whitebox: feature '%s' is degenerate: %s", e.Feature, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DegenerateFeatureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("feature", e.Feature).
		Str("reason", e.Reason).
		Str("type", "DegenerateFeatureError")
}

// NewDegenerateFeatureError creates a DegenerateFeatureError with a stack trace.
func NewDegenerateFeatureError(feature, reason string) error {
	err := &DegenerateFeatureError{Feature: feature, Reason: reason}
	return errors.WithStack(err)
}

// EncodingError marks a feature for which a WoE table cannot be built
// (empty bin set, or every row mapped to a special code). Non-fatal:
// the feature is dropped from the surviving set.
type EncodingError struct {
	Feature string
	Reason  string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("whitebox: cannot encode feature '%s': %s", e.Feature, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *EncodingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("feature", e.Feature).
		Str("reason", e.Reason).
		Str("type", "EncodingError")
}

// NewEncodingError creates an EncodingError with a stack trace.
func NewEncodingError(feature, reason string) error {
	err := &EncodingError{Feature: feature, Reason: reason}
	return errors.WithStack(err)
}

// NoSignPureModelError is returned by the regularized refit when no model
// on the L1 path satisfies the sign constraint. Fatal for the refit attempt.
type NoSignPureModelError struct {
	PathLength int
}

func (e *NoSignPureModelError) Error() string {
	return fmt.Sprintf("whitebox: no sign-pure model on the L1 path (%d models scanned)", e.PathLength)
}

// NewNoSignPureModelError creates a NoSignPureModelError with a stack trace.
func NewNoSignPureModelError(pathLength int) error {
	err := &NoSignPureModelError{PathLength: pathLength}
	return errors.WithStack(err)
}

// EmptyFeatureSetError is returned when backward elimination would remove
// the last remaining feature. Fatal: the fit aborts.
type EmptyFeatureSetError struct {
	Op string
}

func (e *EmptyFeatureSetError) Error() string {
	return fmt.Sprintf("whitebox: %s: elimination would leave zero features", e.Op)
}

// NewEmptyFeatureSetError creates an EmptyFeatureSetError with a stack trace.
func NewEmptyFeatureSetError(op string) error {
	err := &EmptyFeatureSetError{Op: op}
	return errors.WithStack(err)
}

// SingularMatrixError is returned when the Fisher information matrix is not
// invertible (perfectly collinear WoE columns). Fatal for the refit attempt.
type SingularMatrixError struct {
	Op   string
	Size int
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("whitebox: %s: %dx%d Hessian is singular", e.Op, e.Size, e.Size)
}

// NewSingularMatrixError creates a SingularMatrixError with a stack trace.
func NewSingularMatrixError(op string, size int) error {
	err := &SingularMatrixError{Op: op, Size: size}
	return errors.WithStack(err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

var (
	// ErrEmptyData is returned when an operation receives no data.
	ErrEmptyData = New("empty data")
)
