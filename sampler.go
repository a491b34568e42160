// FILE: sampler.go
// Package engine – Distribution samplers built on the RNG (component 2).
//
// All samplers reject non-positive shape/scale parameters with
// ErrInvalidParameter. Nothing here consults any non-deterministic
// source; every draw advances the caller-supplied *RNG.
package engine

import "math"

// SampleNormal draws one N(mean, variance) sample via Box-Muller, using
// two uniform draws from r.
func SampleNormal(r *RNG, mean, variance float64) (float64, error) {
	if variance <= 0 {
		return 0, ErrInvalidParameter
	}
	u1 := r.Float64()
	u2 := r.Float64()
	// Avoid log(0); xorshift32 can legitimately return 0.
	if u1 <= 0 {
		u1 = 1e-12
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + math.Sqrt(variance)*z, nil
}

// SampleGamma draws one Gamma(shape, scale=1) sample.
//
// For shape >= 1 it uses the Marsaglia-Tsang squeeze-and-reject method.
// For shape < 1 it draws from Gamma(shape+1) and rescales by U^(1/shape),
// per the standard boost-to-one-then-correct trick.
func SampleGamma(r *RNG, shape float64) (float64, error) {
	if shape <= 0 {
		return 0, ErrInvalidParameter
	}
	if shape < 1 {
		g, err := SampleGamma(r, shape+1)
		if err != nil {
			return 0, err
		}
		u := r.Float64()
		if u <= 0 {
			u = 1e-12
		}
		return g * math.Pow(u, 1/shape), nil
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x, err := SampleNormal(r, 0, 1)
		if err != nil {
			return 0, err
		}
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.Float64()
		if u <= 0 {
			u = 1e-12
		}
		if u < 1-0.0331*x*x*x*x {
			return d * v, nil
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v, nil
		}
	}
}

// SampleBeta draws one Beta(alpha, beta) sample as X/(X+Y) for
// independent Gamma(alpha), Gamma(beta) draws X, Y. Beta(1,1) is the
// uniform distribution and short-circuits to a single uniform draw.
func SampleBeta(r *RNG, alpha, beta float64) (float64, error) {
	if alpha <= 0 || beta <= 0 {
		return 0, ErrInvalidParameter
	}
	if alpha == 1 && beta == 1 {
		return r.Float64(), nil
	}
	x, err := SampleGamma(r, alpha)
	if err != nil {
		return 0, err
	}
	y, err := SampleGamma(r, beta)
	if err != nil {
		return 0, err
	}
	if x+y == 0 {
		return 0.5, nil
	}
	return x / (x + y), nil
}

// SampleInverseGamma draws one InverseGamma(alpha, beta) sample as
// beta / Gamma(alpha, 1).
func SampleInverseGamma(r *RNG, alpha, beta float64) (float64, error) {
	if alpha <= 0 || beta <= 0 {
		return 0, ErrInvalidParameter
	}
	g, err := SampleGamma(r, alpha)
	if err != nil {
		return 0, err
	}
	if g <= 0 {
		g = 1e-12
	}
	return beta / g, nil
}
