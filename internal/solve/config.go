package solve

import (
	"fmt"
	"math"

	"github.com/jishnurajendran/variational-algorithms/internal/ansatz"
	"github.com/jishnurajendran/variational-algorithms/internal/sim"
)

// Algorithm names accepted by Config.
const (
	AlgorithmQAOA = "qaoa"
	AlgorithmVQE  = "vqe"
)

// Optimization method names accepted by Config.
const (
	MethodMayfly     = "mayfly"
	MethodNelderMead = "neldermead"
)

// Config describes one solve run. It is shared verbatim with the job
// server and the run store, so every field carries a JSON tag.
type Config struct {
	Numbers    []float64 `json:"numbers"`
	Algorithm  string    `json:"algorithm"`
	Layers     int       `json:"layers"`
	Shots      int       `json:"shots"`
	FinalShots int       `json:"final_shots"`
	Iters      int       `json:"iters"`
	PopSize    int       `json:"pop_size"`
	Method     string    `json:"method"`
	Restarts   int       `json:"restarts"`
	Seed       int64     `json:"seed"`
	InitMax    float64   `json:"init_max"`
	TopK       int       `json:"top_k"`
	Backend    string    `json:"backend,omitempty"`
	WarmStart  []float64 `json:"warm_start,omitempty"`
}

// DefaultConfig returns the baseline configuration. Numbers must still be
// filled in by the caller.
func DefaultConfig() Config {
	return Config{
		Algorithm:  AlgorithmQAOA,
		Layers:     1,
		Shots:      512,
		FinalShots: 4096,
		Iters:      100,
		PopSize:    20,
		Method:     MethodMayfly,
		Restarts:   1,
		Seed:       42,
		InitMax:    2 * math.Pi,
		TopK:       8,
	}
}

// ValidationError describes a config field that fails validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// Validate checks everything that can be checked before touching the
// oracle.
func (c *Config) Validate() error {
	if len(c.Numbers) < 2 {
		return &ValidationError{Field: "numbers", Reason: fmt.Sprintf("need at least 2 numbers to partition, got %d", len(c.Numbers))}
	}
	switch c.Algorithm {
	case AlgorithmQAOA, AlgorithmVQE:
	default:
		return &ValidationError{Field: "algorithm", Reason: fmt.Sprintf("must be %q or %q, got %q", AlgorithmQAOA, AlgorithmVQE, c.Algorithm)}
	}
	if c.Layers < 1 {
		return &ValidationError{Field: "layers", Reason: "must be at least 1"}
	}
	if c.Algorithm == AlgorithmQAOA && c.Shots < 1 {
		return &ValidationError{Field: "shots", Reason: "sampled estimation needs at least 1 shot per evaluation"}
	}
	if c.FinalShots < 1 {
		return &ValidationError{Field: "final_shots", Reason: "the final sampling round needs at least 1 shot"}
	}
	if c.Iters < 1 {
		return &ValidationError{Field: "iters", Reason: "must be at least 1"}
	}
	switch c.Method {
	case MethodMayfly, MethodNelderMead:
	default:
		return &ValidationError{Field: "method", Reason: fmt.Sprintf("must be %q or %q, got %q", MethodMayfly, MethodNelderMead, c.Method)}
	}
	if c.Method == MethodMayfly && c.PopSize < 1 {
		return &ValidationError{Field: "pop_size", Reason: "must be at least 1"}
	}
	if c.Restarts < 1 {
		return &ValidationError{Field: "restarts", Reason: "must be at least 1"}
	}
	if c.InitMax <= 0 {
		return &ValidationError{Field: "init_max", Reason: "parameter range must be positive"}
	}
	if _, err := sim.NormalizeBackend(c.Backend); err != nil {
		return &ValidationError{Field: "backend", Reason: err.Error()}
	}
	if len(c.WarmStart) > 0 && len(c.WarmStart) != c.NumParams() {
		return &ValidationError{Field: "warm_start", Reason: fmt.Sprintf("needs exactly %d parameters, got %d", c.NumParams(), len(c.WarmStart))}
	}
	return nil
}

// NumParams returns the parameter count the configured ansatz expects.
// Only meaningful for configs that pass Validate.
func (c *Config) NumParams() int {
	if c.Algorithm == AlgorithmVQE {
		return c.Layers * ansatz.ParamsPerLayer(len(c.Numbers))
	}
	return 2 * c.Layers
}
