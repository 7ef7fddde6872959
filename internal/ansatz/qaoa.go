package ansatz

import (
	"fmt"

	"github.com/jishnurajendran/variational-algorithms/internal/ising"
)

// QAOA is the alternating-operator ansatz for an Ising cost Hamiltonian.
// Layer l contributes one cost angle gamma_l and one mixer angle beta_l;
// the parameter vector is [gamma_1..gamma_p, beta_1..beta_p].
type QAOA struct {
	ham    *ising.Hamiltonian
	qubits int
	layers int
}

// NewQAOA builds a p-layer ansatz over the problem's Hamiltonian.
func NewQAOA(p *ising.Problem, layers int) (*QAOA, error) {
	if layers < 1 {
		return nil, fmt.Errorf("qaoa needs at least one layer, got %d", layers)
	}
	return &QAOA{ham: p.Hamiltonian(), qubits: p.Size(), layers: layers}, nil
}

func (q *QAOA) Name() string   { return "qaoa" }
func (q *QAOA) NumQubits() int { return q.qubits }
func (q *QAOA) Layers() int    { return q.layers }
func (q *QAOA) NumParams() int { return 2 * q.layers }

// Build prepares the uniform superposition, then alternates cost and mixer
// blocks. Each cost rotation's angle is the term weight scaled by the
// layer's gamma; the mixer applies rx(2*beta) on every qubit.
func (q *QAOA) Build(params []float64) (*Circuit, error) {
	if len(params) != q.NumParams() {
		return nil, &ParamLengthError{Ansatz: q.Name(), Want: q.NumParams(), Got: len(params)}
	}
	gammas := params[:q.layers]
	betas := params[q.layers:]

	c := &Circuit{NumQubits: q.qubits}
	for i := 0; i < q.qubits; i++ {
		c.Gates = append(c.Gates, Gate{Name: GateH, Qubits: []int{i}})
	}
	for l := 0; l < q.layers; l++ {
		for _, term := range q.ham.Terms {
			c.Gates = append(c.Gates, Gate{
				Name:   GateRZZ,
				Qubits: []int{term.I, term.J},
				Params: []float64{2 * term.Weight * gammas[l]},
			})
		}
		for i := 0; i < q.qubits; i++ {
			c.Gates = append(c.Gates, Gate{
				Name:   GateRX,
				Qubits: []int{i},
				Params: []float64{2 * betas[l]},
			})
		}
	}
	return c, nil
}
