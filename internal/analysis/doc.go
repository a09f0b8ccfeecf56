// Package analysis extracts surface scaling exponents from ensemble series.
//
// A growing interface roughens as W(t) ~ t^beta until it saturates at
// W_sat(L) ~ L^alpha after a crossover time t_x ~ L^z with z = alpha/beta:
//
//   - [GrowthExponent]: beta from the early part of one series
//   - [SaturationWidth]: plateau width from the late part of one series
//   - [CrossoverTime]: first time the width reaches the plateau
//   - [RoughnessExponent]: alpha from saturation widths of several lengths
//
// # Example
//
//	s := analysis.Summarize(series)
//	if s.HasBeta {
//	    fmt.Printf("beta = %.3f\n", s.Beta)
//	}
package analysis
