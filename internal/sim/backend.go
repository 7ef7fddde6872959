package sim

import (
	"errors"
	"fmt"
	"strings"
)

// Backend selects an oracle implementation.
type Backend string

const (
	// BackendAuto picks the best oracle available in this build.
	BackendAuto Backend = "auto"
	// BackendStatevector is the dense in-process simulator.
	BackendStatevector Backend = "statevector"
)

var (
	// ErrUnknownBackend is returned for backend names this build does not know.
	ErrUnknownBackend = errors.New("unknown oracle backend")
	// ErrUnknownGate is returned when a circuit names a gate the oracle lacks.
	ErrUnknownGate = errors.New("unknown gate")
	// ErrCircuitTooLarge is returned when a circuit exceeds the oracle's qubit cap.
	ErrCircuitTooLarge = errors.New("circuit too large")
)

// NormalizeBackend canonicalizes user input like "SV" or "cpu".
func NormalizeBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "statevector", "sv", "cpu":
		return BackendStatevector, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// NewOracleForBackend builds the oracle for the requested backend.
func NewOracleForBackend(backend Backend) (Oracle, error) {
	switch backend {
	case BackendAuto, BackendStatevector:
		return NewSimulator(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
