package ansatz

import (
	"errors"
	"testing"
)

func TestHardwareEfficientNumParams(t *testing.T) {
	tests := []struct {
		qubits, layers, want int
	}{
		{2, 1, 3},  // 2 ry + 1 rzz
		{3, 1, 6},  // 3 ry + 3 rzz
		{3, 2, 12},
		{4, 2, 20}, // 2 * (4 + 6)
	}
	for _, tt := range tests {
		h, err := NewHardwareEfficient(tt.qubits, tt.layers)
		if err != nil {
			t.Fatalf("NewHardwareEfficient(%d,%d) failed: %v", tt.qubits, tt.layers, err)
		}
		if got := h.NumParams(); got != tt.want {
			t.Errorf("qubits=%d layers=%d: NumParams = %d, want %d", tt.qubits, tt.layers, got, tt.want)
		}
	}
}

func TestHardwareEfficientBuildStructure(t *testing.T) {
	h, err := NewHardwareEfficient(3, 1)
	if err != nil {
		t.Fatalf("NewHardwareEfficient failed: %v", err)
	}

	c, err := h.Build([]float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 3 h, 3 ry, then entanglers in canonical pair order.
	if len(c.Gates) != 9 {
		t.Fatalf("got %d gates, want 9", len(c.Gates))
	}
	for i := 0; i < 3; i++ {
		g := c.Gates[3+i]
		if g.Name != GateRY || g.Qubits[0] != i || g.Params[0] != float64(i+1) {
			t.Errorf("gate %d = %+v, want ry(%d) on qubit %d", 3+i, g, i+1, i)
		}
	}
	wantPairs := [][2]int{{0, 1}, {0, 2}, {1, 2}}
	for k, pair := range wantPairs {
		g := c.Gates[6+k]
		if g.Name != GateRZZ || g.Qubits[0] != pair[0] || g.Qubits[1] != pair[1] {
			t.Errorf("gate %d = %+v, want rzz on %v", 6+k, g, pair)
		}
		if g.Params[0] != float64(k+4) {
			t.Errorf("rzz %v angle = %v, want %d", pair, g.Params[0], k+4)
		}
	}
}

func TestHardwareEfficientRejectsPartialLayer(t *testing.T) {
	h, err := NewHardwareEfficient(3, 2)
	if err != nil {
		t.Fatalf("NewHardwareEfficient failed: %v", err)
	}

	// One layer's worth and one angle short are both rejected; there is
	// no silent truncation to complete layers.
	for _, size := range []int{0, 6, 11, 13} {
		_, err := h.Build(make([]float64, size))
		if err == nil {
			t.Errorf("Build with %d params should fail", size)
			continue
		}
		var lenErr *ParamLengthError
		if !errors.As(err, &lenErr) {
			t.Errorf("error = %v, want *ParamLengthError", err)
			continue
		}
		if lenErr.Want != 12 || lenErr.Got != size {
			t.Errorf("ParamLengthError = %+v, want Want=12 Got=%d", lenErr, size)
		}
	}
}

func TestHardwareEfficientRejectsBadShape(t *testing.T) {
	if _, err := NewHardwareEfficient(1, 1); err == nil {
		t.Error("single qubit should be rejected")
	}
	if _, err := NewHardwareEfficient(3, 0); err == nil {
		t.Error("zero layers should be rejected")
	}
}

func TestBuildDoesNotMutateParams(t *testing.T) {
	h, err := NewHardwareEfficient(2, 1)
	if err != nil {
		t.Fatalf("NewHardwareEfficient failed: %v", err)
	}

	params := []float64{0.1, 0.2, 0.3}
	c, err := h.Build(params)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Angles are copied by value; editing the circuit must not reach back.
	c.Gates[2].Params[0] = 99
	if params[0] != 0.1 || params[1] != 0.2 || params[2] != 0.3 {
		t.Errorf("params changed: %v", params)
	}
}
