// FILE: engine.go
// Package engine – Top-level orchestration: computeAllocationUpdate and
// the per-optimization tick coordinator.
//
// computeAllocationUpdate is pure: same (state, metrics, seed) always
// produces the same result (P3). The Coordinator around it is the only
// stateful piece, and its job is exactly what spec §5 describes: load
// -> compute -> store must be mutually exclusive per optimization, and
// excess concurrent ticks on the same optimization coalesce onto
// whichever call is already in flight rather than queuing up.
package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Monte-Carlo sub-seed offsets. Each estimator derives its own stream of
// (seed, seed+1, seed+2, ...) sub-seeds (spec §4.5(x)); these offsets
// keep the estimators' streams from overlapping within one tick. The
// smallest gap (500,000) comfortably exceeds 2x the largest configured
// sample count.
const (
	seedOffsetPi            = 0
	seedOffsetPolicy        = 500_000
	seedOffsetCVaR          = 1_000_000
	seedOffsetEOC           = 2_000_000
	seedOffsetCostOfWaiting = 3_000_000
	seedOffsetPromotionLift = 4_000_000
)

// InitializeBayesianState creates the state for an optimization moving
// from draft to active (spec §3 Lifecycle). opts may leave any field
// zero to take the spec §6 default.
func InitializeBayesianState(opts Config) BayesianState {
	cfg := NewConfig(opts)
	return BayesianState{
		Control:               NewArmPosterior(cfg.ConversionRate, cfg.AvgOrderValue),
		Variant:               NewArmPosterior(cfg.ConversionRate, cfg.AvgOrderValue),
		RiskMode:              cfg.RiskMode,
		SafetyBudgetTotal:     cfg.SafetyBudget,
		SafetyBudgetRemaining: cfg.SafetyBudget,
		ControlFloorBase:      0.75,
		VariantFloorStart:     0.05,
		Config:                cfg,
	}
}

// UpdateBayesianState applies new aggregates and optional order values
// to both arm posteriors without touching allocation/risk state. This
// is the pure component-3 update; computeAllocationUpdate calls it as
// step (i) of its orchestration.
func UpdateBayesianState(state BayesianState, metrics Metrics, newControlOrderValues, newVariantOrderValues []float64) (BayesianState, error) {
	control, err := UpdateIncidence(state.Control, metrics.ControlImpressions, metrics.ControlConversions)
	if err != nil {
		return state, err
	}
	control.TotalRevenue += metrics.ControlRevenue
	control, err = UpdateValue(control, newControlOrderValues)
	if err != nil {
		return state, err
	}

	variant, err := UpdateIncidence(state.Variant, metrics.VariantImpressions, metrics.VariantConversions)
	if err != nil {
		return state, err
	}
	variant.TotalRevenue += metrics.VariantRevenue
	variant, err = UpdateValue(variant, newVariantOrderValues)
	if err != nil {
		return state, err
	}

	state.Control = control
	state.Variant = variant
	return state, nil
}

// ComputeAllocationUpdate is the engine entry point (spec §4.5). seed
// drives every Monte-Carlo estimator deterministically; the same
// (state, metrics, seed) always yields byte-identical output (P3).
func ComputeAllocationUpdate(state BayesianState, metrics Metrics, newControlOrderValues, newVariantOrderValues []float64, seed uint64) (AllocationUpdateResult, error) {
	cfg := state.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}

	// (i) update posteriors
	state, err := UpdateBayesianState(state, metrics, newControlOrderValues, newVariantOrderValues)
	if err != nil {
		return AllocationUpdateResult{}, err
	}

	// (ii) pi and mean ARPUs
	pi, err := ProbabilityVariantWins(state.Control, state.Variant, seed+seedOffsetPi, cfg.MCSamples)
	if err != nil {
		return AllocationUpdateResult{}, err
	}
	meanControlARPU := MeanARPU(state.Control)
	meanVariantARPU := MeanARPU(state.Variant)

	// (iii) CVaR decision
	cvarDecision, err := EvaluateCVaR(state.Control, state.Variant, cfg, seed+seedOffsetCVaR)
	if err != nil {
		return AllocationUpdateResult{}, err
	}

	// (iv) resolve floors, then apply the CVaR emergency cap
	controlFloor := DynamicControlFloor(pi, state.ControlFloorBase)
	variantFloor := VariantRampFloor(pi, state.VariantFloorStart)
	if cvarDecision.CapVariantFloor && cvarDecision.CappedVariantFloor < variantFloor {
		variantFloor = cvarDecision.CappedVariantFloor
	}

	// (v) raw TTTS allocation
	policyRNG := NewRNG(seed + seedOffsetPolicy)
	raw, err := RawTTTSAllocation(policyRNG, state.Control, state.Variant, state.RiskMode, cfg.ExplorationCap)
	if err != nil {
		return AllocationUpdateResult{}, err
	}

	// (vi) apply constraints
	allocation := ApplyConstraints(raw, controlFloor, variantFloor)

	// (vii) cost of waiting under the final allocation
	costOfWaiting, err := CostOfWaitingPerSession(state.Control, state.Variant, allocation, seed+seedOffsetCostOfWaiting, cfg.MCSamples)
	if err != nil {
		return AllocationUpdateResult{}, err
	}

	// EOC per 1,000 sessions (reported and reused by the promotion gate)
	eocPer1000, err := EOCPer1000(state.Control, state.Variant, seed+seedOffsetEOC, cfg.MCSamplesPromotion)
	if err != nil {
		return AllocationUpdateResult{}, err
	}

	// (viii) charge safety budget (skipping the bootstrap tick)
	currentTotalImpressions := state.Control.TotalImpressions + state.Variant.TotalImpressions
	newRemaining, firstTick := ChargeSafetyBudget(state.SafetyBudgetRemaining, costOfWaiting, state.LastTotalImpressions, currentTotalImpressions)
	state.SafetyBudgetRemaining = newRemaining
	state.LastTotalImpressions = currentTotalImpressions

	// (ix) promotion
	promotionCheck, err := EvaluatePromotion(state.Control, state.Variant, pi, eocPer1000, cfg, seed+seedOffsetPromotionLift)
	if err != nil {
		return AllocationUpdateResult{}, err
	}
	state.PromotionCheckCount++

	shouldStop := !firstTick && state.SafetyBudgetRemaining < 0 && !promotionCheck.ShouldPromote

	// (x) assemble result
	result := AllocationUpdateResult{
		NewState:                state,
		Allocation:              allocation,
		ProbVariantWins:         pi,
		MeanControlARPU:         meanControlARPU,
		MeanVariantARPU:         meanVariantARPU,
		EOCPer1000:              eocPer1000,
		CostOfWaitingPerSession: costOfWaiting,
		PromotionCheck:          promotionCheck,
		ShouldStop:              shouldStop,
		HumanReasoning:          buildHumanReasoning(pi, allocation, controlFloor, variantFloor, cvarDecision, promotionCheck, shouldStop),
		CVaRThrottled:           cvarDecision.CapVariantFloor,
	}
	return result, nil
}

// Coordinator serializes ticks per optimization and coalesces excess
// concurrent requests onto the in-flight call, per spec §5: "two
// concurrent ticks on the same optimization are forbidden" and "an
// excess is dropped by coalescing (the next tick sees the latest
// counters)". It wraps golang.org/x/sync/singleflight keyed by
// optimization ID, the same "collapse duplicate concurrent work" idiom
// used for MCP tool-call dedup and SQLite writer serialization
// elsewhere in the retrieval pack.
type Coordinator struct {
	group singleflight.Group
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator returns a ready-to-use Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{locks: make(map[string]*sync.Mutex)}
}

// TickFunc loads state, computes the update, and persists it; the
// Coordinator guarantees at most one TickFunc runs per optimizationID
// at a time.
type TickFunc func(ctx context.Context) (AllocationUpdateResult, error)

// Tick runs fn through the singleflight group keyed by optimizationID,
// so at most one fn runs per ID at a time; no mutex from locks is taken.
// Concurrent calls for the same ID while one is in flight all receive
// the same result instead of each re-running fn (coalescing).
func (c *Coordinator) Tick(ctx context.Context, optimizationID string, fn TickFunc) (AllocationUpdateResult, error) {
	v, err, _ := c.group.Do(optimizationID, func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return AllocationUpdateResult{}, err
	}
	return v.(AllocationUpdateResult), nil
}
