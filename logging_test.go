package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHumanReasoningIncludesCVaRClauseWhenThrottled(t *testing.T) {
	alloc := Allocation{Control: 0.7, Variant: 0.3}
	cvar := CVaRDecision{ControlCVaR: 10, VariantCVaR: 2, CapVariantFloor: true, CappedVariantFloor: 0.02}
	promo := PromotionCheck{}
	msg := buildHumanReasoning(0.6, alloc, 0.75, 0.02, cvar, promo, false)
	assert.Contains(t, msg, "CVaR throttle active")
}

func TestBuildHumanReasoningIncludesPromotionClause(t *testing.T) {
	alloc := Allocation{Control: 0.3, Variant: 0.7}
	cvar := CVaRDecision{}
	promo := PromotionCheck{ShouldPromote: true}
	msg := buildHumanReasoning(0.97, alloc, 0.5, 0.5, cvar, promo, false)
	assert.Contains(t, msg, "promotion criteria met")
}

func TestBuildHumanReasoningIncludesStopClause(t *testing.T) {
	alloc := Allocation{Control: 0.75, Variant: 0.25}
	cvar := CVaRDecision{}
	promo := PromotionCheck{ShouldPromote: false}
	msg := buildHumanReasoning(0.4, alloc, 0.75, 0.05, cvar, promo, true)
	assert.Contains(t, msg, "recommend stopping")
}

func TestNewLoggerWritesJSONToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)
	logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestLogTickEmitsTickFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, false)
	result := AllocationUpdateResult{
		Allocation:      Allocation{Control: 0.6, Variant: 0.4},
		ProbVariantWins: 0.81,
		HumanReasoning:  "looking good",
	}
	LogTick(logger, "opt-9", result)
	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "opt-9")
	assert.Contains(t, out, "looking good")
}
