// FILE: posterior.go
// Package engine – Conjugate posterior updates and ARPU sampling
// (component 3).
//
// Incidence is Beta(alpha, beta); value is Normal-Inverse-Gamma on
// log(order value). Both updates are the standard conjugate
// recursions from spec §4.3; nothing here samples randomness itself
// except SampleARPU, which is the one Monte-Carlo primitive every
// higher-level estimator (policy, CVaR, EOC, lift) is built from.
package engine

import "math"

// UpdateIncidence folds newImpressions/newConversions into the Beta
// posterior. Zero impressions leaves alpha/beta unchanged; zero
// conversions still increments beta (spec §4.3 edge cases).
func UpdateIncidence(p ArmPosterior, newImpressions, newConversions int64) (ArmPosterior, error) {
	if newImpressions < 0 || newConversions < 0 {
		return p, ErrInvalidMetrics
	}
	if newConversions > newImpressions {
		return p, ErrInvalidMetrics
	}
	p.Alpha += float64(newConversions)
	p.Beta += float64(newImpressions - newConversions)
	p.TotalImpressions += newImpressions
	p.TotalConversions += newConversions
	return p, nil
}

// UpdateValue folds a batch of new order values into the
// Normal-Inverse-Gamma posterior using the standard NIG conjugate
// recursion (spec §4.3). With no new values the posterior is
// unchanged. Order values must be strictly positive.
//
// This only updates the NIG sufficient statistics and the replay
// buffer; it does not touch TotalRevenue. UpdateBayesianState is the
// sole place that increments TotalRevenue, from metrics.*Revenue, so
// a caller supplying both the aggregate revenue and the per-order
// values for the same orders doesn't double it.
func UpdateValue(p ArmPosterior, values []float64) (ArmPosterior, error) {
	if len(values) == 0 {
		return p, nil
	}
	n := float64(len(values))
	logs := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		if v <= 0 {
			return p, ErrInvalidMetrics
		}
		logs[i] = math.Log(v)
		sum += logs[i]
	}
	mean := sum / n
	var sumSq float64
	for _, l := range logs {
		d := l - mean
		sumSq += d * d
	}
	variance := sumSq / n // biased sample variance, per spec

	kappaPrime := p.Kappa + n
	muPrime := (p.Kappa*p.Mu0 + n*mean) / kappaPrime
	alphaVPrime := p.AlphaV + n/2
	betaVPrime := p.BetaV + 0.5*n*variance + 0.5*(p.Kappa*n/kappaPrime)*(mean-p.Mu0)*(mean-p.Mu0)

	p.Mu0 = muPrime
	p.Kappa = kappaPrime
	p.AlphaV = alphaVPrime
	p.BetaV = betaVPrime

	p.OrderValues = appendBounded(p.OrderValues, values, maxOrderValueHistory)
	return p, nil
}

// appendBounded appends new to existing, keeping only the most recent
// cap entries (oldest dropped first) — the "bounded ordered sequence"
// from spec §3.
func appendBounded(existing, add []float64, cap int) []float64 {
	out := append(existing, add...)
	if len(out) > cap {
		out = out[len(out)-cap:]
	}
	return out
}

// SampleARPU draws one ARPU sample for the arm per spec §4.3:
//  1. p ~ Beta(alpha, beta)
//  2. sigma^2 ~ InverseGamma(alphaV, betaV)
//  3. mu ~ Normal(mu0, sigma^2/kappa)
//  4. E[V|mu,sigma^2] = exp(mu + sigma^2/2)
//  5. return p * E[V]
func SampleARPU(r *RNG, p ArmPosterior) (float64, error) {
	prob, err := SampleBeta(r, p.Alpha, p.Beta)
	if err != nil {
		return 0, err
	}
	sigma2, err := SampleInverseGamma(r, p.AlphaV, p.BetaV)
	if err != nil {
		return 0, err
	}
	mu, err := SampleNormal(r, p.Mu0, sigma2/p.Kappa)
	if err != nil {
		return 0, err
	}
	expectedValue := math.Exp(mu + 0.5*sigma2)
	return prob * expectedValue, nil
}

// MeanARPU returns the analytical mean ARPU for display/logging (spec
// §4.3): mean_p * exp(mu0 + betaV/(2*(alphaV-1))) when alphaV > 1, else
// substituting sigma^2 = 1.
func MeanARPU(p ArmPosterior) float64 {
	meanP := p.Alpha / (p.Alpha + p.Beta)
	sigma2 := 1.0
	if p.AlphaV > 1 {
		sigma2 = p.BetaV / (p.AlphaV - 1)
	}
	return meanP * math.Exp(p.Mu0+0.5*sigma2)
}

// ProbabilityVariantWins draws n paired ARPU samples from control and
// variant using seeds derived from seed, and returns the fraction of
// pairs where the variant sample exceeds the control sample.
func ProbabilityVariantWins(control, variant ArmPosterior, seed uint64, n int) (float64, error) {
	wins := 0
	for i := 0; i < n; i++ {
		rc := NewRNG(deriveSeed(seed, 2*i))
		rv := NewRNG(deriveSeed(seed, 2*i+1))
		cs, err := SampleARPU(rc, control)
		if err != nil {
			return 0, err
		}
		vs, err := SampleARPU(rv, variant)
		if err != nil {
			return 0, err
		}
		if vs > cs {
			wins++
		}
	}
	return float64(wins) / float64(n), nil
}

// ProbabilityMeaningfulLift draws n paired ARPU samples and returns the
// fraction where (variant-control)/control*100 >= liftPercent.
func ProbabilityMeaningfulLift(control, variant ArmPosterior, seed uint64, n int, liftPercent float64) (float64, error) {
	hits := 0
	for i := 0; i < n; i++ {
		rc := NewRNG(deriveSeed(seed, 2*i))
		rv := NewRNG(deriveSeed(seed, 2*i+1))
		cs, err := SampleARPU(rc, control)
		if err != nil {
			return 0, err
		}
		vs, err := SampleARPU(rv, variant)
		if err != nil {
			return 0, err
		}
		if cs <= 0 {
			continue
		}
		lift := (vs - cs) / cs * 100
		if lift >= liftPercent {
			hits++
		}
	}
	return float64(hits) / float64(n), nil
}
