package commission

// ValidationError reports malformed input on the admin surface, answered
// with a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GuardError reports a lifecycle transition rejected by a state guard,
// answered with a 422. The reason names the offending commission so a
// batch failure is actionable. CommissionID is zero when the guard
// concerns a payout run rather than a single commission.
type GuardError struct {
	CommissionID uint
	Reason       string
}

func (e *GuardError) Error() string {
	return e.Reason
}
