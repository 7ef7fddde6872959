package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/jishnurajendran/variational-algorithms/internal/ansatz"
)

// DefaultMaxQubits bounds dense statevector simulation. 2^24 amplitudes is
// already 256 MiB; anything beyond that needs a different backend.
const DefaultMaxQubits = 24

// Counts tallies sampled measurement outcomes by basis-state index.
type Counts map[uint64]int

// Oracle is the boundary to the quantum side. There are exactly two
// contracts: exact final amplitudes, and Born-rule i.i.d. measurement
// samples. Implementations report failures as errors; callers never read a
// failure as zero energy.
type Oracle interface {
	State(c *ansatz.Circuit) ([]complex128, error)
	Sample(c *ansatz.Circuit, shots int, rng *rand.Rand) (Counts, error)
}

// Simulator is the dense in-process statevector oracle.
type Simulator struct {
	maxQubits int
}

// NewSimulator returns a statevector oracle with the default size cap.
func NewSimulator() *Simulator { return &Simulator{maxQubits: DefaultMaxQubits} }

// NewSimulatorWithLimit overrides the qubit cap, mainly for tests.
func NewSimulatorWithLimit(maxQubits int) *Simulator { return &Simulator{maxQubits: maxQubits} }

// State executes the circuit and returns the final amplitudes.
func (s *Simulator) State(c *ansatz.Circuit) ([]complex128, error) {
	if c.NumQubits < 1 {
		return nil, fmt.Errorf("circuit has no qubits")
	}
	if c.NumQubits > s.maxQubits {
		return nil, fmt.Errorf("%w: %d qubits exceeds the %d-qubit statevector limit",
			ErrCircuitTooLarge, c.NumQubits, s.maxQubits)
	}

	amps := newState(c.NumQubits)
	for gi, g := range c.Gates {
		if err := applyGate(amps, c.NumQubits, g); err != nil {
			return nil, fmt.Errorf("gate %d: %w", gi, err)
		}
	}
	return amps, nil
}

// Sample draws shots outcomes i.i.d. from the circuit's Born distribution.
// The caller supplies the random source, so equal seeds reproduce equal
// counts. The returned counts always sum to shots.
func (s *Simulator) Sample(c *ansatz.Circuit, shots int, rng *rand.Rand) (Counts, error) {
	if shots < 1 {
		return nil, fmt.Errorf("shots must be positive, got %d", shots)
	}
	if rng == nil {
		return nil, fmt.Errorf("sampling needs an explicit random source")
	}

	amps, err := s.State(c)
	if err != nil {
		return nil, err
	}

	cdf := make([]float64, len(amps))
	floats.CumSum(cdf, probabilities(amps))
	total := cdf[len(cdf)-1]

	counts := make(Counts)
	for k := 0; k < shots; k++ {
		r := rng.Float64() * total
		idx := sort.Search(len(cdf), func(i int) bool { return cdf[i] > r })
		if idx >= len(cdf) {
			idx = len(cdf) - 1
		}
		counts[uint64(idx)]++
	}
	return counts, nil
}

func applyGate(amps []complex128, n int, g ansatz.Gate) error {
	for _, q := range g.Qubits {
		if q < 0 || q >= n {
			return fmt.Errorf("%s gate: qubit %d out of range [0,%d)", g.Name, q, n)
		}
	}

	switch g.Name {
	case ansatz.GateH:
		if err := checkShape(g, 1, 0); err != nil {
			return err
		}
		applyH(amps, g.Qubits[0])
	case ansatz.GateX:
		if err := checkShape(g, 1, 0); err != nil {
			return err
		}
		applyX(amps, g.Qubits[0])
	case ansatz.GateRX:
		if err := checkShape(g, 1, 1); err != nil {
			return err
		}
		applyRX(amps, g.Qubits[0], g.Params[0])
	case ansatz.GateRY:
		if err := checkShape(g, 1, 1); err != nil {
			return err
		}
		applyRY(amps, g.Qubits[0], g.Params[0])
	case ansatz.GateRZ:
		if err := checkShape(g, 1, 1); err != nil {
			return err
		}
		applyRZ(amps, g.Qubits[0], g.Params[0])
	case ansatz.GateRZZ:
		if err := checkShape(g, 2, 1); err != nil {
			return err
		}
		if g.Qubits[0] == g.Qubits[1] {
			return fmt.Errorf("rzz gate needs two distinct qubits, got %d twice", g.Qubits[0])
		}
		applyRZZ(amps, g.Qubits[0], g.Qubits[1], g.Params[0])
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGate, g.Name)
	}
	return nil
}

func checkShape(g ansatz.Gate, qubits, params int) error {
	if len(g.Qubits) != qubits || len(g.Params) != params {
		return fmt.Errorf("malformed %s gate: got %d qubits and %d params, want %d and %d",
			g.Name, len(g.Qubits), len(g.Params), qubits, params)
	}
	return nil
}
