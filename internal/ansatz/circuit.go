package ansatz

// Gate names understood by the simulation oracle.
const (
	GateH   = "h"
	GateX   = "x"
	GateRX  = "rx"
	GateRY  = "ry"
	GateRZ  = "rz"
	GateRZZ = "rzz"
)

// Gate is one operation in a circuit description.
type Gate struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Params []float64 `json:"params,omitempty"`
}

// Circuit is a declarative gate list executed by an oracle backend.
type Circuit struct {
	NumQubits int    `json:"num_qubits"`
	Gates     []Gate `json:"gates"`
}
