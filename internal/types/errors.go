package types

import "fmt"

// InvalidInputError reports a caller-contract violation: a raw table or
// parameter set that breaks an invariant the analysis core depends on.
// These abort the computation; data-quality problems inside a step group
// never surface as errors and are handled by degrading to not_known/NaN.
type InvalidInputError struct {
	Invariant string // the invariant that was violated
	Detail    string // where and how it was violated
}

func (e *InvalidInputError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("invalid input: %s", e.Invariant)
	}
	return fmt.Sprintf("invalid input: %s (%s)", e.Invariant, e.Detail)
}
