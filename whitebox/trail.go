package whitebox

// Reason tags why a feature was eliminated during fitting.
type Reason string

const (
	// ReasonDegenerate marks features whose binning collapsed to a
	// single bin or whose WoE table could not be built.
	ReasonDegenerate Reason = "degenerate"
	// ReasonSignViolation marks features dropped by the sign constraint.
	ReasonSignViolation Reason = "sign_violation"
	// ReasonHighPValue marks features failing the Wald significance cut.
	ReasonHighPValue Reason = "high_p_value"
	// ReasonPenalized marks features zeroed by the L1 penalty when the
	// sign constraint is off.
	ReasonPenalized Reason = "penalized"
)

// Elimination is one entry of the feature-elimination trail.
type Elimination struct {
	Feature string
	Reason  Reason
	Detail  string
}
