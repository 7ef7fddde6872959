package sim

import (
	"math"
	"math/cmplx"
)

// newState allocates the |0...0> state for n qubits.
func newState(n int) []complex128 {
	amps := make([]complex128, 1<<n)
	amps[0] = 1
	return amps
}

func applyH(amps []complex128, q int) {
	bit := 1 << q
	inv := complex(1/math.Sqrt2, 0)
	for i := 0; i < len(amps); i++ {
		if i&bit == 0 {
			j := i | bit
			a, b := amps[i], amps[j]
			amps[i] = inv * (a + b)
			amps[j] = inv * (a - b)
		}
	}
}

func applyX(amps []complex128, q int) {
	bit := 1 << q
	for i := 0; i < len(amps); i++ {
		if i&bit == 0 {
			j := i | bit
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}

func applyRX(amps []complex128, q int, theta float64) {
	bit := 1 << q
	cos := complex(math.Cos(theta/2), 0)
	nsin := complex(0, -math.Sin(theta/2))
	for i := 0; i < len(amps); i++ {
		if i&bit == 0 {
			j := i | bit
			a, b := amps[i], amps[j]
			amps[i] = cos*a + nsin*b
			amps[j] = nsin*a + cos*b
		}
	}
}

func applyRY(amps []complex128, q int, theta float64) {
	bit := 1 << q
	cos := complex(math.Cos(theta/2), 0)
	sin := complex(math.Sin(theta/2), 0)
	for i := 0; i < len(amps); i++ {
		if i&bit == 0 {
			j := i | bit
			a, b := amps[i], amps[j]
			amps[i] = cos*a - sin*b
			amps[j] = sin*a + cos*b
		}
	}
}

func applyRZ(amps []complex128, q int, theta float64) {
	bit := 1 << q
	plus := cmplx.Exp(complex(0, theta/2))
	minus := cmplx.Conj(plus)
	for i := range amps {
		if i&bit == 0 {
			amps[i] *= minus
		} else {
			amps[i] *= plus
		}
	}
}

// applyRZZ rotates the pair (qa, qb) around Z⊗Z. Basis states with equal
// bits pick up e^{-i theta/2}, differing bits the conjugate.
func applyRZZ(amps []complex128, qa, qb int, theta float64) {
	bitA := 1 << qa
	bitB := 1 << qb
	minus := cmplx.Exp(complex(0, -theta/2))
	plus := cmplx.Conj(minus)
	for i := range amps {
		if (i&bitA == 0) == (i&bitB == 0) {
			amps[i] *= minus
		} else {
			amps[i] *= plus
		}
	}
}

// probabilities returns |amp|^2 per basis state.
func probabilities(amps []complex128) []float64 {
	probs := make([]float64, len(amps))
	for i, a := range amps {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}
