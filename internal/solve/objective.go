package solve

import (
	"math"
	"sync"

	"github.com/jishnurajendran/variational-algorithms/internal/energy"
)

// Progress is a point-in-time snapshot of a running optimization.
type Progress struct {
	Evaluations int     `json:"evaluations"`
	BestEnergy  float64 `json:"best_energy"`
	Restart     int     `json:"restart"`
}

// progressEvery is the evaluation interval between forced progress
// callbacks; improvements always fire one.
const progressEvery = 64

// objectiveTracker adapts an Estimator to the optimizers' float-only eval
// signature. Every call works on a private copy of the parameter vector,
// bumps the evaluation counter, and keeps the best point seen. Estimator
// failures latch the first error and score +Inf, so the search moves away
// from them instead of mistaking them for free energy.
type objectiveTracker struct {
	estimator  energy.Estimator
	onProgress func(Progress)

	mu      sync.Mutex
	restart int
	evals   int
	best    []float64
	bestE   float64
	err     error
}

func newObjectiveTracker(est energy.Estimator, onProgress func(Progress)) *objectiveTracker {
	return &objectiveTracker{
		estimator:  est,
		onProgress: onProgress,
		bestE:      math.Inf(1),
	}
}

func (o *objectiveTracker) eval(x []float64) float64 {
	params := append([]float64(nil), x...)

	est, err := o.estimator.Estimate(params)

	o.mu.Lock()
	o.evals++
	if err != nil {
		if o.err == nil {
			o.err = err
		}
		o.mu.Unlock()
		return math.Inf(1)
	}
	improved := est.Value < o.bestE
	if improved {
		o.bestE = est.Value
		o.best = params
	}
	snap := Progress{Evaluations: o.evals, BestEnergy: o.bestE, Restart: o.restart}
	cb := o.onProgress
	o.mu.Unlock()

	if cb != nil && (improved || snap.Evaluations%progressEvery == 0) {
		cb(snap)
	}
	return est.Value
}

// snapshot returns the current counters for polling monitors.
func (o *objectiveTracker) snapshot() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Progress{Evaluations: o.evals, BestEnergy: o.bestE, Restart: o.restart}
}

func (o *objectiveTracker) setRestart(r int) {
	o.mu.Lock()
	o.restart = r
	o.mu.Unlock()
}

// firstError returns the first estimator failure, if any occurred.
func (o *objectiveTracker) firstError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// bestSeen returns the best parameters and energy across all evaluations.
func (o *objectiveTracker) bestSeen() ([]float64, float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.best, o.bestE
}
