package ising

// Partition assigns every element to one of two subsets via spins +1/-1.
type Partition struct {
	Spins []int8 `json:"spins"`
}

// PartitionFromBasisState decodes an n-qubit computational basis index.
// Bit i clear means element i gets spin +1, bit i set means spin -1.
func PartitionFromBasisState(state uint64, n int) Partition {
	spins := make([]int8, n)
	for i := 0; i < n; i++ {
		if state&(1<<uint(i)) == 0 {
			spins[i] = 1
		} else {
			spins[i] = -1
		}
	}
	return Partition{Spins: spins}
}

// Flipped returns the partition with every spin negated. The cost is
// invariant under the global flip, so minima come in mirror pairs.
func (pt Partition) Flipped() Partition {
	spins := make([]int8, len(pt.Spins))
	for i, s := range pt.Spins {
		spins[i] = -s
	}
	return Partition{Spins: spins}
}

// Bitstring renders the partition as a measurement string, qubit 0 first.
func (pt Partition) Bitstring() string {
	b := make([]byte, len(pt.Spins))
	for i, s := range pt.Spins {
		if s > 0 {
			b[i] = '0'
		} else {
			b[i] = '1'
		}
	}
	return string(b)
}

// SumDifference returns the signed difference between the two subset sums.
func (p *Problem) SumDifference(pt Partition) float64 {
	var d float64
	for i, s := range pt.Spins {
		d += p.numbers[i] * float64(s)
	}
	return d
}

// Cost returns the squared subset-sum difference for the partition.
func (p *Problem) Cost(pt Partition) float64 {
	d := p.SumDifference(pt)
	return d * d
}

// Split returns the two subsets: elements with spin +1, then spin -1.
func (p *Problem) Split(pt Partition) (plus, minus []float64) {
	plus = make([]float64, 0, len(pt.Spins))
	minus = make([]float64, 0, len(pt.Spins))
	for i, s := range pt.Spins {
		if s > 0 {
			plus = append(plus, p.numbers[i])
		} else {
			minus = append(minus, p.numbers[i])
		}
	}
	return plus, minus
}
