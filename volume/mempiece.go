package volume

import "fmt"

// MemPiece is a tiny resident scalar buffer used to pass reduction results
// (alpha, beta, rho) between solver iterations without round-tripping
// through per-iteration host reads. One to four float32 slots.
type MemPiece struct {
	vals []float32
}

// NewMemPiece allocates an n-slot piece, n in [1,4].
func NewMemPiece(n int) (*MemPiece, error) {
	if n < 1 || n > 4 {
		return nil, fmt.Errorf("volume: mem piece size %d out of range", n)
	}
	return &MemPiece{vals: make([]float32, n)}, nil
}

// Load reads slot i.
func (m *MemPiece) Load(i int) float32 { return m.vals[i] }

// Store writes slot i.
func (m *MemPiece) Store(i int, v float32) { m.vals[i] = v }
