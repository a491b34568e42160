// FILE: run.go
// Package main (simulator) – Synthetic traffic generator and the tick
// loop driving engine.ComputeAllocationUpdate.
//
// Mirrors the shape of the teacher's runLive/runBacktest (live.go,
// backtest.go): a warmup, then a loop that advances one step at a time,
// logs, and updates metrics. Here a "step" is one allocation tick
// instead of one candle, and price history is replaced by a synthetic
// Bernoulli/log-normal traffic generator standing in for real Shopify
// checkout events (spec §1 Non-goals excludes the ingestion path, so
// this generator exists only to drive the simulator, never the engine
// package itself).
package main

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	engine "github.com/rtuosto/ab-allocation-engine"
)

// trafficGenerator produces one tick's worth of synthetic
// impressions/conversions/order values for both arms, split according
// to the current allocation.
type trafficGenerator struct {
	rng      *engine.RNG
	scenario Scenario
}

// genSeedOffset keeps the traffic generator's RNG stream well clear of
// every Monte-Carlo offset the engine itself uses per tick (engine.go's
// seedOffset* constants top out under 5,000,000).
const genSeedOffset = 100_000_000

func newTrafficGenerator(scenario Scenario) *trafficGenerator {
	return &trafficGenerator{
		rng:      engine.NewRNG(scenario.Seed + genSeedOffset),
		scenario: scenario,
	}
}

// tickTraffic draws one tick of synthetic events for both arms.
func (g *trafficGenerator) tickTraffic(allocation engine.Allocation) (engine.Metrics, []float64, []float64) {
	total := g.scenario.Volume
	controlSessions := int(math.Round(float64(total) * allocation.Control))
	variantSessions := total - controlSessions

	controlConv, controlRev, controlValues := g.armTraffic(controlSessions, g.scenario.ControlConversionRate, g.scenario.ControlAvgOrderValue)
	variantConv, variantRev, variantValues := g.armTraffic(variantSessions, g.scenario.VariantConversionRate, g.scenario.VariantAvgOrderValue)

	metrics := engine.Metrics{
		ControlImpressions: int64(controlSessions),
		ControlConversions: int64(controlConv),
		ControlRevenue:     controlRev,
		VariantImpressions: int64(variantSessions),
		VariantConversions: int64(variantConv),
		VariantRevenue:     variantRev,
	}
	return metrics, controlValues, variantValues
}

// armTraffic draws `sessions` independent Bernoulli(conversionRate)
// trials; each conversion's order value is log-normal around
// avgOrderValue with a fixed 0.3 log-scale shape, matching the NIG
// prior's own log-value framing (state.go's NewArmPosterior).
func (g *trafficGenerator) armTraffic(sessions int, conversionRate, avgOrderValue float64) (conversions int, revenue float64, values []float64) {
	mu := math.Log(avgOrderValue) - 0.5*0.3*0.3
	for i := 0; i < sessions; i++ {
		if g.rng.Float64() >= conversionRate {
			continue
		}
		conversions++
		normal, err := engine.SampleNormal(g.rng, mu, 0.3*0.3)
		if err != nil {
			continue
		}
		value := math.Exp(normal)
		revenue += value
		values = append(values, value)
	}
	return conversions, revenue, values
}

// runSimulation drives scenario.Ticks allocation ticks, printing
// progress through logger and feeding prometheus via engine.RecordTick.
// It stops early if a tick recommends promotion or a safety stop.
func runSimulation(ctx context.Context, logger zerolog.Logger, scenario Scenario, writer engine.SnapshotWriter) error {
	state := engine.InitializeBayesianState(scenario.Config)
	gen := newTrafficGenerator(scenario)
	allocation := engine.Allocation{Control: 0.5, Variant: 0.5}
	var lastSnapshotImpressions int64

	for tick := 0; tick < scenario.Ticks; tick++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		metrics, controlValues, variantValues := gen.tickTraffic(allocation)
		result, err := engine.ComputeAllocationUpdate(state, metrics, controlValues, variantValues, scenario.Seed+uint64(tick))
		if err != nil {
			engine.RecordTickError("invalid_metrics")
			return err
		}

		state = result.NewState
		// computeAllocationUpdate stays pure (P3): stamping the wall-clock
		// time a tick was persisted is the caller's job, not the engine's.
		state.LastAllocationUpdate = time.Now()
		allocation = result.Allocation
		engine.RecordTick(result, result.CVaRThrottled)
		engine.LogTick(logger, scenario.Name, result)

		currentImpressions := state.Control.TotalImpressions + state.Variant.TotalImpressions
		if writer != nil && engine.ShouldSnapshot(lastSnapshotImpressions, currentImpressions) {
			_ = writer.Append(engine.NewSnapshot(scenario.Name, state.Control, state.Variant, allocation, state.LastAllocationUpdate))
			lastSnapshotImpressions = currentImpressions
		}

		if result.PromotionCheck.ShouldPromote {
			logger.Info().Str("scenario", scenario.Name).Int("tick", tick).Msg("promotion criteria met, stopping early")
			break
		}
		if result.ShouldStop {
			logger.Warn().Str("scenario", scenario.Name).Int("tick", tick).Msg("safety budget exhausted, stopping early")
			break
		}
	}
	return nil
}
