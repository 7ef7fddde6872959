package solve

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/jishnurajendran/variational-algorithms/internal/ansatz"
	"github.com/jishnurajendran/variational-algorithms/internal/energy"
	"github.com/jishnurajendran/variational-algorithms/internal/ising"
	"github.com/jishnurajendran/variational-algorithms/internal/opt"
	"github.com/jishnurajendran/variational-algorithms/internal/sim"
)

// Result holds the full outcome of a solve run.
type Result struct {
	Algorithm      string                  `json:"algorithm"`
	Numbers        []float64               `json:"numbers"`
	Layers         int                     `json:"layers"`
	BestParams     []float64               `json:"best_params"`
	BestEnergy     float64                 `json:"best_energy"`
	InitialEnergy  float64                 `json:"initial_energy"`
	Evaluations    int                     `json:"evaluations"`
	Restarts       int                     `json:"restarts"`
	FinalShots     int                     `json:"final_shots"`
	MinCost        float64                 `json:"min_cost"`
	BestPartitions []ising.PartitionReport `json:"best_partitions"`
	TopPartitions  []ising.PartitionReport `json:"top_partitions"`
	Distinct       int                     `json:"distinct_outcomes"`
}

// Solver runs the variational loop for one configuration.
type Solver struct {
	cfg         Config
	oracle      sim.Oracle
	onProgress  func(Progress)
	convergence ConvergenceConfig
}

// Option customizes a Solver.
type Option func(*Solver)

// WithOracle substitutes the quantum oracle, mainly for tests.
func WithOracle(o sim.Oracle) Option {
	return func(s *Solver) { s.oracle = o }
}

// WithProgress installs a callback fired on improvements and every few
// evaluations. It runs on the optimizer's goroutine and must be cheap.
func WithProgress(fn func(Progress)) Option {
	return func(s *Solver) { s.onProgress = fn }
}

// WithConvergence overrides the restart early-stopping behavior.
func WithConvergence(cc ConvergenceConfig) Option {
	return func(s *Solver) { s.convergence = cc }
}

// New validates the configuration and assembles a solver.
func New(cfg Config, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{cfg: cfg, convergence: DefaultConvergenceConfig()}
	for _, o := range opts {
		o(s)
	}
	if s.oracle == nil {
		backend, err := sim.NormalizeBackend(cfg.Backend)
		if err != nil {
			return nil, err
		}
		oracle, err := sim.NewOracleForBackend(backend)
		if err != nil {
			return nil, err
		}
		s.oracle = oracle
	}
	return s, nil
}

// Run executes the pipeline: encode the problem, optimize the ansatz
// parameters, sample the tuned circuit, decode the outcomes.
func (s *Solver) Run() (*Result, error) {
	cfg := s.cfg

	problem, err := ising.NewProblem(cfg.Numbers)
	if err != nil {
		return nil, err
	}

	var anz ansatz.Ansatz
	switch cfg.Algorithm {
	case AlgorithmVQE:
		anz, err = ansatz.NewHardwareEfficient(problem.Size(), cfg.Layers)
	default:
		anz, err = ansatz.NewQAOA(problem, cfg.Layers)
	}
	if err != nil {
		return nil, err
	}

	// One root source, one derived stream per consumer: equal seeds then
	// reproduce equal parameter trajectories regardless of restart count.
	root := rand.New(rand.NewSource(cfg.Seed))
	evalRng := rand.New(rand.NewSource(root.Int63()))
	initRng := rand.New(rand.NewSource(root.Int63()))
	finalRng := rand.New(rand.NewSource(root.Int63()))

	// The estimation mode is tied to the algorithm: QAOA scores batches
	// of samples, VQE reads the exact statevector.
	var estimator energy.Estimator
	if cfg.Algorithm == AlgorithmVQE {
		estimator = energy.NewExact(problem.Hamiltonian(), anz, s.oracle)
	} else {
		estimator, err = energy.NewSampled(problem, anz, s.oracle, cfg.Shots, evalRng)
		if err != nil {
			return nil, err
		}
	}

	slog.Info("Starting optimization",
		"algorithm", cfg.Algorithm,
		"size", problem.Size(),
		"layers", cfg.Layers,
		"params", anz.NumParams(),
		"method", cfg.Method,
		"restarts", cfg.Restarts,
	)

	dim := anz.NumParams()
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := range upper {
		upper[i] = cfg.InitMax
	}

	initial := make([]float64, dim)
	if len(cfg.WarmStart) > 0 {
		copy(initial, cfg.WarmStart)
	} else {
		for i := range initial {
			initial[i] = initRng.Float64() * cfg.InitMax
		}
	}

	tracker := newObjectiveTracker(estimator, s.onProgress)

	// Score the starting point before any optimizer work: configuration
	// and oracle failures surface immediately, and seeding the best-seen
	// record means the final answer is never worse than the start.
	initialEnergy := tracker.eval(initial)
	if err := tracker.firstError(); err != nil {
		return nil, fmt.Errorf("initial evaluation: %w", err)
	}

	conv := NewConvergenceTracker(s.convergence)
	restartsUsed := 0
	for r := 0; r < cfg.Restarts; r++ {
		tracker.setRestart(r + 1)
		restartsUsed = r + 1

		start := initial
		if r > 0 {
			start = make([]float64, dim)
			for i := range start {
				start[i] = initRng.Float64() * cfg.InitMax
			}
		}

		optimizer := s.newOptimizer(root.Int63())
		optimizer.Run(tracker.eval, lower, upper, start)

		if err := tracker.firstError(); err != nil {
			return nil, fmt.Errorf("objective evaluation: %w", err)
		}

		_, bestE := tracker.bestSeen()
		if conv.Update(bestE) {
			break
		}
	}

	bestParams, bestEnergy := tracker.bestSeen()

	// Final sampling round at the tuned parameters.
	circuit, err := anz.Build(bestParams)
	if err != nil {
		return nil, fmt.Errorf("build final circuit: %w", err)
	}
	counts, err := s.oracle.Sample(circuit, cfg.FinalShots, finalRng)
	if err != nil {
		return nil, fmt.Errorf("final sampling: %w", err)
	}
	stats := ising.Aggregate(problem, counts)

	evaluations := tracker.snapshot().Evaluations
	slog.Info("Optimization complete",
		"initial_energy", initialEnergy,
		"best_energy", bestEnergy,
		"evaluations", evaluations,
		"restarts", restartsUsed,
		"min_cost", stats.MinCost(),
		"distinct_outcomes", stats.Distinct(),
	)

	return &Result{
		Algorithm:      cfg.Algorithm,
		Numbers:        problem.Numbers(),
		Layers:         cfg.Layers,
		BestParams:     bestParams,
		BestEnergy:     bestEnergy,
		InitialEnergy:  initialEnergy,
		Evaluations:    evaluations,
		Restarts:       restartsUsed,
		FinalShots:     cfg.FinalShots,
		MinCost:        stats.MinCost(),
		BestPartitions: stats.Minima(),
		TopPartitions:  stats.Ranked(cfg.TopK),
		Distinct:       stats.Distinct(),
	}, nil
}

func (s *Solver) newOptimizer(seed int64) opt.Optimizer {
	switch s.cfg.Method {
	case MethodNelderMead:
		return opt.NewNelderMead(s.cfg.Iters)
	default:
		return opt.NewMayfly(s.cfg.Iters, s.cfg.PopSize, seed)
	}
}
