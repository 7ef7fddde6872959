package ansatz

import "fmt"

// HardwareEfficient is the layered rotation-plus-entangler ansatz used by
// the VQE path. After a uniform-superposition preparation, each layer
// spends one ry angle per qubit followed by one rzz angle per qubit pair
// in canonical order (0,1),(0,2),...,(n-2,n-1).
type HardwareEfficient struct {
	qubits int
	layers int
}

// NewHardwareEfficient builds an ansatz with the given width and depth.
func NewHardwareEfficient(qubits, layers int) (*HardwareEfficient, error) {
	if qubits < 2 {
		return nil, fmt.Errorf("hardware-efficient ansatz needs at least two qubits, got %d", qubits)
	}
	if layers < 1 {
		return nil, fmt.Errorf("hardware-efficient ansatz needs at least one layer, got %d", layers)
	}
	return &HardwareEfficient{qubits: qubits, layers: layers}, nil
}

// ParamsPerLayer returns the angle count of one layer: n single-qubit
// rotations plus one entangler per pair.
func ParamsPerLayer(qubits int) int { return qubits + qubits*(qubits-1)/2 }

func (h *HardwareEfficient) Name() string   { return "hardware-efficient" }
func (h *HardwareEfficient) NumQubits() int { return h.qubits }
func (h *HardwareEfficient) Layers() int    { return h.layers }
func (h *HardwareEfficient) NumParams() int { return h.layers * ParamsPerLayer(h.qubits) }

func (h *HardwareEfficient) Build(params []float64) (*Circuit, error) {
	if len(params) != h.NumParams() {
		return nil, &ParamLengthError{Ansatz: h.Name(), Want: h.NumParams(), Got: len(params)}
	}

	c := &Circuit{NumQubits: h.qubits}
	for i := 0; i < h.qubits; i++ {
		c.Gates = append(c.Gates, Gate{Name: GateH, Qubits: []int{i}})
	}
	next := 0
	for l := 0; l < h.layers; l++ {
		for i := 0; i < h.qubits; i++ {
			c.Gates = append(c.Gates, Gate{Name: GateRY, Qubits: []int{i}, Params: []float64{params[next]}})
			next++
		}
		for i := 0; i < h.qubits; i++ {
			for j := i + 1; j < h.qubits; j++ {
				c.Gates = append(c.Gates, Gate{Name: GateRZZ, Qubits: []int{i, j}, Params: []float64{params[next]}})
				next++
			}
		}
	}
	return c, nil
}
