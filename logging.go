// FILE: logging.go
// Package engine – Structured per-tick decision logging.
//
// The teacher logs trading decisions with bare log.Printf
// (strategy.go's "[DEBUG] MA Signalled ..." lines). Here the analogous
// decision trail is computeAllocationUpdate's humanReasoning field, and
// the pack shows a structured-logging idiom for exactly this
// (rs/zerolog, see bbak-mcs-mcp). LogTick emits one structured event
// per tick; buildHumanReasoning renders the same facts as the plain
// sentence callers embed in AllocationUpdateResult.
package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// buildHumanReasoning renders the tick's key facts as one readable
// sentence, the way strategy.go's decide() builds its Reason string.
func buildHumanReasoning(pi float64, alloc Allocation, controlFloor, variantFloor float64, cvar CVaRDecision, promo PromotionCheck, shouldStop bool) string {
	msg := fmt.Sprintf(
		"P(variant wins)=%.3f, allocation control=%.3f/variant=%.3f, controlFloor=%.2f, variantFloor=%.2f",
		pi, alloc.Control, alloc.Variant, controlFloor, variantFloor,
	)
	if cvar.CapVariantFloor {
		msg += fmt.Sprintf(", CVaR throttle active (variant CVaR %.4f < control CVaR %.4f, floor capped at %.2f)",
			cvar.VariantCVaR, cvar.ControlCVaR, cvar.CappedVariantFloor)
	}
	if promo.ShouldPromote {
		msg += ", promotion criteria met: recommend promoting variant"
	} else if shouldStop {
		msg += ", safety budget exhausted without a confirmed winner: recommend stopping"
	}
	return msg
}

// NewLogger builds the process-wide zerolog.Logger used by cmd/simulator
// and by optional tick-level tracing. pretty selects the human-readable
// console writer (dev); otherwise structured JSON goes to w.
func NewLogger(w io.Writer, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// LogTick emits one structured event describing a completed tick.
func LogTick(logger zerolog.Logger, optimizationID string, result AllocationUpdateResult) {
	logger.Info().
		Str("optimizationId", optimizationID).
		Float64("probVariantWins", result.ProbVariantWins).
		Float64("controlAllocation", result.Allocation.Control).
		Float64("variantAllocation", result.Allocation.Variant).
		Float64("eocPer1000", result.EOCPer1000).
		Float64("costOfWaitingPerSession", result.CostOfWaitingPerSession).
		Bool("shouldPromote", result.PromotionCheck.ShouldPromote).
		Bool("shouldStop", result.ShouldStop).
		Str("reasoning", result.HumanReasoning).
		Msg("allocation tick")
}
