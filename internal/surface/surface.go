// Package surface implements the column-height substrate and the k-neighbour
// ballistic sticking rule.
package surface

import "fmt"

// Stream is a source of uniform deviates in [0, 1).
type Stream interface {
	Next() float64
}

// Boundary selects how neighbour indices past the substrate edges are mapped.
type Boundary int

const (
	// Bounded clamps neighbour indices to [0, L-1].
	Bounded Boundary = iota
	// Periodic wraps neighbour indices modulo L.
	Periodic
)

func (b Boundary) String() string {
	switch b {
	case Periodic:
		return "periodic"
	case Bounded:
		return "bounded"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// BoundaryOf maps the periodic flag used in configs onto a Boundary.
func BoundaryOf(periodic bool) Boundary {
	if periodic {
		return Periodic
	}
	return Bounded
}

// Surface is a one-dimensional array of column heights.
type Surface struct {
	h        []uint32
	boundary Boundary
}

// New returns a flat surface of length columns.
func New(length int, boundary Boundary) *Surface {
	return &Surface{h: make([]uint32, length), boundary: boundary}
}

func (s *Surface) Len() int           { return len(s.h) }
func (s *Surface) Boundary() Boundary { return s.boundary }

// Heights exposes the live height slice. Callers must not modify it.
func (s *Surface) Heights() []uint32 { return s.h }

// Snapshot returns a copy of the current heights.
func (s *Surface) Snapshot() []uint32 {
	c := make([]uint32, len(s.h))
	copy(c, s.h)
	return c
}

// Reset flattens the surface.
func (s *Surface) Reset() {
	for i := range s.h {
		s.h[i] = 0
	}
}

// NeighbourIndex maps a possibly out-of-range column index onto the
// substrate according to the boundary policy.
func (s *Surface) NeighbourIndex(i int) int {
	l := len(s.h)
	if s.boundary == Periodic {
		return ((i % l) + l) % l
	}
	if i < 0 {
		return 0
	}
	if i >= l {
		return l - 1
	}
	return i
}

// Column draws a landing column from rng, redrawing the j == L edge case.
func (s *Surface) Column(rng Stream) int {
	l := len(s.h)
	for {
		j := int(float64(l) * rng.Next())
		if j != l {
			return j
		}
	}
}

// Stick places one particle on column j: its height becomes one more than the
// highest column within k of j.
func (s *Surface) Stick(j, k int) {
	var top uint32
	for i := j - k; i <= j+k; i++ {
		if h := s.h[s.NeighbourIndex(i)]; h > top {
			top = h
		}
	}
	s.h[j] = top + 1
}

// Deposit drops n particles on random columns.
func (s *Surface) Deposit(n, k int, rng Stream) {
	for p := 0; p < n; p++ {
		s.Stick(s.Column(rng), k)
	}
}
