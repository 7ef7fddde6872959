package opt

import (
	"log/slog"

	"gonum.org/v1/gonum/optimize"
)

// NelderMeadAdapter wraps gonum's downhill simplex. Unlike the swarm it is
// deterministic and honors warm starts, which makes it the refinement
// method for resumed runs.
type NelderMeadAdapter struct {
	maxIters int
}

// NewNelderMead creates a Nelder-Mead adapter with an iteration budget.
func NewNelderMead(maxIters int) Optimizer {
	return &NelderMeadAdapter{maxIters: maxIters}
}

// Run minimizes eval starting from init. The simplex itself is
// unconstrained, so every trial point is projected into [lower, upper]
// before evaluation; moves outside the box are thereby scored at the
// boundary.
func (n *NelderMeadAdapter) Run(eval func([]float64) float64, lower, upper, init []float64) ([]float64, float64) {
	project := func(x []float64) []float64 {
		out := make([]float64, len(x))
		for i, v := range x {
			switch {
			case v < lower[i]:
				out[i] = lower[i]
			case v > upper[i]:
				out[i] = upper[i]
			default:
				out[i] = v
			}
		}
		return out
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 { return eval(project(x)) },
	}
	settings := &optimize.Settings{
		MajorIterations: n.maxIters,
	}

	start := append([]float64(nil), init...)
	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil || result == nil {
		slog.Error("Nelder-Mead optimization failed", "error", err)
		fallback := project(init)
		return fallback, eval(fallback)
	}
	slog.Debug("Nelder-Mead finished", "status", result.Status, "evaluations", result.FuncEvaluations)

	best := project(result.X)
	return best, result.F
}
