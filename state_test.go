package engine

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArmPosteriorDerivesAlphaBetaFromConversionRate(t *testing.T) {
	p := NewArmPosterior(0.2, 100)
	assert.InDelta(t, 2.0, p.Alpha, 1e-9)
	assert.InDelta(t, 8.0, p.Beta, 1e-9)
	assert.Equal(t, 1.0, p.Kappa)
	assert.Equal(t, 1.0, p.AlphaV)
	assert.Equal(t, 1.0, p.BetaV)
	assert.InDelta(t, math.Log(100)-0.25, p.Mu0, 1e-9)
}

func TestNewArmPosteriorFloorsDegenerateConversionRates(t *testing.T) {
	zero := NewArmPosterior(0, 50)
	assert.Greater(t, zero.Alpha, 0.0)
	assert.Greater(t, zero.Beta, 0.0)

	one := NewArmPosterior(1, 50)
	assert.Greater(t, one.Alpha, 0.0)
	assert.Greater(t, one.Beta, 0.0)
}

func TestLogSafeNonPositiveReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, logSafe(0))
	assert.Equal(t, 0.0, logSafe(-5))
	assert.InDelta(t, math.Log(10), logSafe(10), 1e-12)
}

func TestDecodeBayesianStateRoundTrips(t *testing.T) {
	state := InitializeBayesianState(Config{RiskMode: RiskAggressive})
	raw, err := json.Marshal(state)
	require.NoError(t, err)

	decoded, err := DecodeBayesianState(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestDecodeBayesianStateRejectsUnknownFields(t *testing.T) {
	raw := `{"control":{},"variant":{},"riskMode":"cautious","notARealField":true}`
	_, err := DecodeBayesianState(strings.NewReader(raw))
	assert.Error(t, err)
}
