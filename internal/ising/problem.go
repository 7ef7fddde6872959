package ising

import (
	"errors"
	"fmt"
)

// ErrTooFewNumbers is returned when an instance has fewer than two elements,
// which leaves nothing to partition.
var ErrTooFewNumbers = errors.New("number partitioning needs at least two numbers")

// PairTerm is one Z_i Z_j interaction of the cost Hamiltonian.
type PairTerm struct {
	I      int     `json:"i"`
	J      int     `json:"j"`
	Weight float64 `json:"weight"`
}

// Hamiltonian is the Ising encoding of a partitioning instance:
// cost = Constant + sum over Terms of Weight * s_I * s_J.
// Terms are canonical: I < J, ordered (0,1),(0,2),...,(n-2,n-1).
// The constant carries the identity part so reported energies match the
// squared subset-sum difference directly.
type Hamiltonian struct {
	Constant float64    `json:"constant"`
	Terms    []PairTerm `json:"terms"`
}

// Problem is an immutable number-partitioning instance. The Hamiltonian is
// derived once at construction and shared read-only by all consumers.
type Problem struct {
	numbers []float64
	ham     *Hamiltonian
}

// NewProblem validates the input and derives the Ising Hamiltonian.
// Duplicate numbers are legal and keep their own element index.
func NewProblem(numbers []float64) (*Problem, error) {
	if len(numbers) < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewNumbers, len(numbers))
	}
	p := &Problem{numbers: append([]float64(nil), numbers...)}
	p.ham = encode(p.numbers)
	return p, nil
}

// encode expands (sum a_i * s_i)^2 into constant + pairwise terms.
func encode(numbers []float64) *Hamiltonian {
	n := len(numbers)
	h := &Hamiltonian{Terms: make([]PairTerm, 0, n*(n-1)/2)}
	for i := 0; i < n; i++ {
		h.Constant += numbers[i] * numbers[i]
		for j := i + 1; j < n; j++ {
			h.Terms = append(h.Terms, PairTerm{I: i, J: j, Weight: 2 * numbers[i] * numbers[j]})
		}
	}
	return h
}

// Size returns the number of elements, which is also the qubit count.
func (p *Problem) Size() int { return len(p.numbers) }

// Numbers returns a copy of the instance data.
func (p *Problem) Numbers() []float64 { return append([]float64(nil), p.numbers...) }

// Hamiltonian returns the shared Ising encoding. Callers must not modify it.
func (p *Problem) Hamiltonian() *Hamiltonian { return p.ham }
