package ansatz

import "fmt"

// Ansatz builds parameterized circuits of a fixed width.
type Ansatz interface {
	// Name identifies the circuit family.
	Name() string
	// NumQubits returns the circuit width.
	NumQubits() int
	// NumParams returns the exact parameter count Build accepts.
	NumParams() int
	// Build constructs the circuit for the given parameters. The vector
	// length must equal NumParams exactly; anything else fails with a
	// *ParamLengthError. The input slice is never retained or modified.
	Build(params []float64) (*Circuit, error)
}

// ParamLengthError reports a parameter vector that does not match the
// ansatz layout. Truncating or padding silently would hide configuration
// mistakes, so the mismatch is always surfaced.
type ParamLengthError struct {
	Ansatz string
	Want   int
	Got    int
}

func (e *ParamLengthError) Error() string {
	return fmt.Sprintf("%s ansatz needs exactly %d parameters, got %d", e.Ansatz, e.Want, e.Got)
}
