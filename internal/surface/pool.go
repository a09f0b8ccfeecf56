package surface

import "sync"

// Pool recycles surfaces of a fixed length between realizations.
type Pool struct {
	pool     sync.Pool
	length   int
	boundary Boundary
}

func NewPool(length int, boundary Boundary) *Pool {
	return &Pool{
		length:   length,
		boundary: boundary,
		pool: sync.Pool{
			New: func() interface{} {
				return New(length, boundary)
			},
		},
	}
}

// Get returns a flat surface.
func (p *Pool) Get() *Surface {
	return p.pool.Get().(*Surface)
}

func (p *Pool) Put(s *Surface) {
	if s.Len() == p.length && s.boundary == p.boundary {
		s.Reset()
		p.pool.Put(s)
	}
}
