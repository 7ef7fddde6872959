package opt

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Run executes the optimization
	// eval: objective function to minimize, treated as a black box that
	// may return noisy values
	// lower, upper: parameter bounds
	// init: starting point; it fixes the dimensionality, and methods
	// that support warm starts begin their search here
	// Returns: best parameters and best cost. Exhausting the budget
	// without converging is not an error; the best point seen is
	// returned.
	Run(eval func([]float64) float64, lower, upper, init []float64) ([]float64, float64)
}
