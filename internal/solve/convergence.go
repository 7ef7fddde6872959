package solve

import (
	"log/slog"
	"math"
)

// ConvergenceConfig controls early stopping of the restart loop.
type ConvergenceConfig struct {
	// Enabled controls whether early stopping is active.
	Enabled bool

	// Patience is the number of restarts without significant improvement
	// of the best energy before the loop stops.
	Patience int

	// Threshold is the minimum relative improvement required to count as
	// progress. Example: 0.001 = 0.1% improvement required.
	Threshold float64
}

// DefaultConvergenceConfig returns sensible defaults for restart early
// stopping.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.001,
	}
}

// DisabledConvergenceConfig returns a config that never stops early.
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled: false,
	}
}

// ConvergenceTracker watches the per-restart best energies and detects
// when further restarts stop paying off.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	bestEnergy      float64
	lastSignificant float64
	staleCount      int
}

// NewConvergenceTracker creates a tracker with the given config.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		history:         []float64{},
		bestEnergy:      math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records the best energy after a restart and returns true when the
// stale streak exceeds the configured patience.
func (c *ConvergenceTracker) Update(value float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, value)

	if value < c.bestEnergy {
		c.bestEnergy = value
	}

	// The first restart only establishes the baseline.
	if len(c.history) == 1 {
		c.lastSignificant = value
		return false
	}

	relativeImprovement := (c.lastSignificant - value) / c.lastSignificant

	if relativeImprovement >= c.config.Threshold {
		c.lastSignificant = value
		c.staleCount = 0
		slog.Debug("Energy improvement detected",
			"energy", value,
			"relative_improvement", relativeImprovement,
		)
		return false
	}

	c.staleCount++
	slog.Debug("No significant energy improvement",
		"energy", value,
		"last_significant", c.lastSignificant,
		"stale_count", c.staleCount,
		"patience", c.config.Patience,
	)

	if c.staleCount >= c.config.Patience {
		slog.Info("Restart convergence detected - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_energy", c.bestEnergy,
		)
		return true
	}
	return false
}

// BestEnergy returns the best value seen so far.
func (c *ConvergenceTracker) BestEnergy() float64 {
	return c.bestEnergy
}

// History returns a copy of the recorded values.
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current streak without improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state.
func (c *ConvergenceTracker) Reset() {
	c.history = []float64{}
	c.bestEnergy = math.Inf(1)
	c.lastSignificant = math.Inf(1)
	c.staleCount = 0
}
