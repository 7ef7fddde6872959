package opt

import (
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer interface
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a new Mayfly optimizer adapter. The library needs a
// population of at least 20; smaller values are raised to that floor.
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	if popSize < 20 {
		popSize = 20
	}
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  popSize,
		seed:     seed,
	}
}

// Run executes the Mayfly optimization using the external library. The
// swarm draws its own population within the bounds, so the warm-start
// point only fixes the problem dimension.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper, init []float64) ([]float64, float64) {
	dim := len(init)
	config := mayfly.NewDefaultConfig()

	config.ObjectiveFunc = eval
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize

	// The external library uses scalar bounds; all dimensions share the
	// same range here, so the first entry stands for the whole box.
	config.LowerBound = lower[0]
	config.UpperBound = upper[0]

	// Set random seed for reproducibility
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		// Fall back to the starting point if optimization fails
		fallback := append([]float64(nil), init...)
		return fallback, eval(fallback)
	}

	return result.GlobalBest.Position, result.GlobalBest.Cost
}
