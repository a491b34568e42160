// FILE: risk.go
// Package engine – CVaR throttle, dynamic floors, EOC, safety-budget
// accounting, and the promotion gate (component 5).
//
// This is the guardrail layer: every function here is pure given its
// inputs and an explicit seed, so the orchestration in engine.go can
// derive independent sub-seeds for each Monte-Carlo call and still get
// byte-identical results across runs (spec §4.5(x), P3).
package engine

import "math"

// CVaR returns the mean of the lowest ceil(quantile*n) ARPU samples for
// one arm — the tail-risk estimator from spec §4.2/GLOSSARY.
func CVaR(r *RNG, p ArmPosterior, quantile float64, n int) (float64, error) {
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		s, err := SampleARPU(r, p)
		if err != nil {
			return 0, err
		}
		samples[i] = s
	}
	sortFloat64s(samples)
	k := int(math.Ceil(quantile * float64(n)))
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	var sum float64
	for i := 0; i < k; i++ {
		sum += samples[i]
	}
	return sum / float64(k), nil
}

func sortFloat64s(xs []float64) {
	// Insertion sort is fine here: n is at most a few thousand and this
	// runs once per tick, not in a hot inner loop.
	for i := 1; i < len(xs); i++ {
		v := xs[i]
		j := i - 1
		for j >= 0 && xs[j] > v {
			xs[j+1] = xs[j]
			j--
		}
		xs[j+1] = v
	}
}

// CVaRDecision reports both arms' CVaR and whether the emergency
// downside cap applies (variant CVaR below control CVaR).
type CVaRDecision struct {
	ControlCVaR        float64
	VariantCVaR        float64
	CapVariantFloor    bool
	CappedVariantFloor float64
}

// cvarFloorCap is the emergency variant-floor cap applied when the
// variant's downside tail is worse than control's (spec §4.5).
const cvarFloorCap = 0.02

// EvaluateCVaR draws cfg.MCSamples ARPU samples per arm at seeds
// (base, base+1) and decides whether the variant floor must be capped.
func EvaluateCVaR(control, variant ArmPosterior, cfg Config, seed uint64) (CVaRDecision, error) {
	rc := NewRNG(deriveSeed(seed, 0))
	rv := NewRNG(deriveSeed(seed, 1))
	cCVaR, err := CVaR(rc, control, cfg.CVaRQuantile, cfg.MCSamples)
	if err != nil {
		return CVaRDecision{}, err
	}
	vCVaR, err := CVaR(rv, variant, cfg.CVaRQuantile, cfg.MCSamples)
	if err != nil {
		return CVaRDecision{}, err
	}
	d := CVaRDecision{ControlCVaR: cCVaR, VariantCVaR: vCVaR}
	if vCVaR < cCVaR {
		d.CapVariantFloor = true
		d.CappedVariantFloor = cvarFloorCap
	}
	return d, nil
}

// floorThreshold is one step of the dynamic floor schedules in spec
// §4.5: met at pi >= At, value is the corresponding floor.
type floorThreshold struct {
	At    float64
	Value float64
}

// controlFloorSchedule is evaluated to a minimum over thresholds met
// (falling pi raises the floor again — regression safety).
var controlFloorSchedule = []floorThreshold{
	{At: 0.60, Value: 0.65},
	{At: 0.80, Value: 0.60},
	{At: 0.90, Value: 0.55},
	{At: 0.95, Value: 0.50},
}

// variantFloorSchedule is evaluated to a maximum over thresholds met.
var variantFloorSchedule = []floorThreshold{
	{At: 0.60, Value: 0.10},
	{At: 0.80, Value: 0.20},
	{At: 0.90, Value: 0.35},
	{At: 0.95, Value: 0.50},
}

// DynamicControlFloor resolves the control floor schedule (spec §4.5
// table), falling back to base when no threshold is met.
func DynamicControlFloor(pi, base float64) float64 {
	floor := base
	for _, t := range controlFloorSchedule {
		if pi >= t.At && t.Value < floor {
			floor = t.Value
		}
	}
	return floor
}

// VariantRampFloor resolves the variant ramp schedule (spec §4.5
// table), falling back to start when no threshold is met.
func VariantRampFloor(pi, start float64) float64 {
	floor := start
	for _, t := range variantFloorSchedule {
		if pi >= t.At && t.Value > floor {
			floor = t.Value
		}
	}
	return floor
}

// EOCPer1000 estimates the Expected Opportunity Cost per 1,000 sessions
// (spec §4.5, GLOSSARY). "Current winner" is resolved once, by
// analytical mean ARPU, before the Monte-Carlo loop — see DESIGN.md for
// why this resolves the spec's Open Question over a per-pair sampled
// argmax (which collapses to near-zero regret).
func EOCPer1000(control, variant ArmPosterior, seed uint64, n int) (float64, error) {
	winnerIsVariant := MeanARPU(variant) > MeanARPU(control)

	var totalRegret float64
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
		winnerSample := cs
		if winnerIsVariant {
			winnerSample = vs
		}
		regret := math.Max(cs, vs) - winnerSample
		totalRegret += regret
	}
	meanRegret := totalRegret / float64(n)
	return meanRegret * 1000, nil
}

// CostOfWaitingPerSession estimates the per-session regret of running
// the candidate allocation instead of always routing to the true best
// arm (spec §4.5). Unlike EOCPer1000, the comparison point is the
// candidate allocation's expected ARPU, not a single designated winner.
func CostOfWaitingPerSession(control, variant ArmPosterior, candidate Allocation, seed uint64, n int) (float64, error) {
	var totalRegret float64
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
		expectedUnderCandidate := candidate.Control*cs + candidate.Variant*vs
		regret := math.Max(cs, vs) - expectedUnderCandidate
		totalRegret += regret
	}
	return totalRegret / float64(n), nil
}

// EvaluatePromotion checks the three promotion gates from spec §4.5.
// Per the spec, the test only enters the promotion check when pi leans
// toward the variant (pi > 0.5); otherwise promotion is deferred and
// ShouldPromote is false without penalizing the other two gates.
func EvaluatePromotion(control, variant ArmPosterior, pi float64, eocPer1000 float64, cfg Config, seed uint64) (PromotionCheck, error) {
	meetsMinSamples := control.TotalImpressions >= int64(cfg.MinSamplesPerArm) &&
		variant.TotalImpressions >= int64(cfg.MinSamplesPerArm)

	probLift, err := ProbabilityMeaningfulLift(control, variant, seed, cfg.MCSamplesPromotion, cfg.MinLiftPercent)
	if err != nil {
		return PromotionCheck{}, err
	}
	meetsMinProbability := probLift >= cfg.MinProbabilityMeaningfulLift
	meetsMaxEOC := eocPer1000 <= cfg.MaxEOCPer1000Sessions

	leaningVariant := pi > 0.5
	shouldPromote := leaningVariant && meetsMinSamples && meetsMinProbability && meetsMaxEOC

	check := PromotionCheck{
		MeetsMinSamples:           meetsMinSamples,
		ProbabilityMeaningfulLift: probLift,
		MeetsMinProbabilityLift:   meetsMinProbability,
		EOCPer1000Sessions:        eocPer1000,
		MeetsMaxEOC:               meetsMaxEOC,
		ShouldPromote:             shouldPromote,
	}
	if shouldPromote {
		check.Winner = "variant"
	}
	return check, nil
}

// ChargeSafetyBudget applies spec §4.5's safety-budget accounting. The
// first tick for a test (lastTotalImpressions == 0) never charges; it
// only records the new total. Budget is allowed to go negative.
func ChargeSafetyBudget(remaining float64, costOfWaitingPerSession float64, lastTotalImpressions, currentTotalImpressions int64) (newRemaining float64, firstTick bool) {
	if lastTotalImpressions == 0 {
		return remaining, true
	}
	delta := currentTotalImpressions - lastTotalImpressions
	if delta < 0 {
		delta = 0
	}
	charge := costOfWaitingPerSession * float64(delta)
	return remaining - charge, false
}
