package store

import (
	"fmt"
	"time"

	"github.com/jishnurajendran/variational-algorithms/internal/solve"
)

// RunRecord is a persisted solve run: the configuration that produced it
// and the full result. All fields are serialized to JSON.
//
// Resume semantics: a record stores the best parameters found, not the
// optimizer's internal state (population, simplex). Resuming feeds
// Result.BestParams back in as the warm start of a fresh optimization, so
// the best energy never regresses, but the parameter trajectory is not a
// continuation of the original run.
type RunRecord struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`

	// CreatedAt records when this run finished and was saved.
	CreatedAt time.Time `json:"created_at"`

	// ElapsedSeconds is the wall-clock duration of the solve.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// Config is the full configuration, kept for validation during
	// resume. Resumed runs must use a compatible problem and ansatz.
	Config solve.Config `json:"config"`

	// Result is the complete solve outcome, including the tuned
	// parameters a resume warm-starts from.
	Result solve.Result `json:"result"`
}

// RunInfo contains metadata about a run without the full result payload.
// Used for listing runs without loading partition tables.
type RunInfo struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Algorithm   string    `json:"algorithm"`
	Size        int       `json:"size"`
	Layers      int       `json:"layers"`
	Method      string    `json:"method"`
	BestEnergy  float64   `json:"best_energy"`
	MinCost     float64   `json:"min_cost"`
	Evaluations int       `json:"evaluations"`
}

// NewRunRecord assembles a record from a finished solve.
func NewRunRecord(id string, cfg solve.Config, result *solve.Result, elapsed time.Duration) *RunRecord {
	return &RunRecord{
		ID:             id,
		CreatedAt:      time.Now().UTC(),
		ElapsedSeconds: elapsed.Seconds(),
		Config:         cfg,
		Result:         *result,
	}
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		Algorithm:   r.Config.Algorithm,
		Size:        len(r.Config.Numbers),
		Layers:      r.Config.Layers,
		Method:      r.Config.Method,
		BestEnergy:  r.Result.BestEnergy,
		MinCost:     r.Result.MinCost,
		Evaluations: r.Result.Evaluations,
	}
}

// Validate checks that the record is complete enough to resume from.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Field: "CreatedAt", Reason: "cannot be zero"}
	}
	if r.ElapsedSeconds < 0 {
		return &ValidationError{Field: "ElapsedSeconds", Reason: "cannot be negative"}
	}
	if err := r.Config.Validate(); err != nil {
		return &ValidationError{Field: "Config", Reason: err.Error()}
	}
	if len(r.Result.BestParams) == 0 {
		return &ValidationError{Field: "Result.BestParams", Reason: "cannot be empty"}
	}
	// The stored parameters must fit the stored ansatz, otherwise the
	// warm start would be rejected on resume.
	if want := r.Config.NumParams(); len(r.Result.BestParams) != want {
		return &ValidationError{
			Field:  "Result.BestParams",
			Reason: fmt.Sprintf("length mismatch: expected %d params for this config, got %d", want, len(r.Result.BestParams)),
		}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// CompatibleWith checks whether this record can seed a run with the given
// config. The problem and the ansatz shape must match, everything else
// (budgets, shots, method, seed) may change between the runs.
func (r *RunRecord) CompatibleWith(cfg solve.Config) error {
	if len(r.Config.Numbers) != len(cfg.Numbers) {
		return &CompatibilityError{
			Field:    "Numbers",
			Expected: fmt.Sprintf("%v", r.Config.Numbers),
			Actual:   fmt.Sprintf("%v", cfg.Numbers),
		}
	}
	for i := range cfg.Numbers {
		if r.Config.Numbers[i] != cfg.Numbers[i] {
			return &CompatibilityError{
				Field:    "Numbers",
				Expected: fmt.Sprintf("%v", r.Config.Numbers),
				Actual:   fmt.Sprintf("%v", cfg.Numbers),
			}
		}
	}
	if r.Config.Algorithm != cfg.Algorithm {
		return &CompatibilityError{
			Field:    "Algorithm",
			Expected: r.Config.Algorithm,
			Actual:   cfg.Algorithm,
		}
	}
	if r.Config.Layers != cfg.Layers {
		return &CompatibilityError{
			Field:    "Layers",
			Expected: fmt.Sprintf("%d", r.Config.Layers),
			Actual:   fmt.Sprintf("%d", cfg.Layers),
		}
	}
	return nil
}

// CompatibilityError represents a resume compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
