// Package rng provides the long-period uniform generator that drives every
// stochastic decision in a deposition run.
package rng

const (
	im1  = 2147483563
	im2  = 2147483399
	am   = 1.0 / im1
	imm1 = im1 - 1
	ia1  = 40014
	ia2  = 40692
	iq1  = 53668
	iq2  = 52774
	ir1  = 12211
	ir2  = 3791
	ntab = 32
	ndiv = 1 + imm1/ntab
	eps  = 1.2e-7
	rnmx = 1.0 - eps
)

// Ran2 is L'Ecuyer's combined generator with a Bays-Durham shuffle
// (period > 2e18). It is not safe for concurrent use; give each goroutine
// its own instance.
type Ran2 struct {
	idum   int32
	idum2  int32
	iy     int32
	iv     [ntab]int32
	seeded bool
}

// New returns a generator for seed. Non-positive seeds follow the usual
// initialisation contract: the magnitude is used and zero becomes one.
func New(seed int32) *Ran2 {
	return &Ran2{idum: seed, idum2: 123456789}
}

// Seed returns the generator's current primary state.
func (r *Ran2) Seed() int32 { return r.idum }

func (r *Ran2) init() {
	switch {
	case r.idum == 0:
		r.idum = 1
	case r.idum < 0:
		r.idum = -r.idum
	}
	r.idum2 = r.idum
	for j := ntab + 7; j >= 0; j-- {
		k := r.idum / iq1
		r.idum = ia1*(r.idum-k*iq1) - k*ir1
		if r.idum < 0 {
			r.idum += im1
		}
		if j < ntab {
			r.iv[j] = r.idum
		}
	}
	r.iy = r.iv[0]
	r.seeded = true
}

// Next returns a uniform deviate in (0, 1).
func (r *Ran2) Next() float64 {
	if r.idum <= 0 || !r.seeded {
		r.init()
	}

	k := r.idum / iq1
	r.idum = ia1*(r.idum-k*iq1) - k*ir1
	if r.idum < 0 {
		r.idum += im1
	}

	k = r.idum2 / iq2
	r.idum2 = ia2*(r.idum2-k*iq2) - k*ir2
	if r.idum2 < 0 {
		r.idum2 += im2
	}

	j := r.iy / ndiv
	r.iy = r.iv[j] - r.idum2
	r.iv[j] = r.idum
	if r.iy < 1 {
		r.iy += imm1
	}

	if v := am * float64(r.iy); v <= rnmx {
		return v
	}
	return rnmx
}
