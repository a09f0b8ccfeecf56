package config

import "sort"

// Horizon is the time horizon and plotting stride used for one substrate
// length.
type Horizon struct {
	MaxTime uint32 `yaml:"max_time"`
	Skip    uint32 `yaml:"skip"`
}

// Horizons maps substrate length to its Horizon.
type Horizons map[uint32]Horizon

var DefaultHorizons = Horizons{
	8:    {MaxTime: 10_000, Skip: 5},
	16:   {MaxTime: 10_000, Skip: 10},
	32:   {MaxTime: 10_000, Skip: 20},
	64:   {MaxTime: 10_000, Skip: 40},
	128:  {MaxTime: 10_000, Skip: 80},
	256:  {MaxTime: 10_000, Skip: 160},
	512:  {MaxTime: 10_000, Skip: 320},
	1024: {MaxTime: 100_000, Skip: 6400},
	2048: {MaxTime: 100_000, Skip: 12800},
	4096: {MaxTime: 100_000, Skip: 25600},
}

func (h Horizons) Lookup(length uint32) (Horizon, bool) {
	v, ok := h[length]
	return v, ok
}

// Merge returns a copy of h with every entry of over applied on top.
func (h Horizons) Merge(over Horizons) Horizons {
	out := make(Horizons, len(h)+len(over))
	for l, v := range h {
		out[l] = v
	}
	for l, v := range over {
		out[l] = v
	}
	return out
}

// Lengths returns the table's lengths in ascending order.
func (h Horizons) Lengths() []uint32 {
	lengths := make([]uint32, 0, len(h))
	for l := range h {
		lengths = append(lengths, l)
	}
	sort.Slice(lengths, func(i, j int) bool { return lengths[i] < lengths[j] })
	return lengths
}
