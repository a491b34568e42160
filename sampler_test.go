package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleNormalRejectsNonPositiveVariance(t *testing.T) {
	r := NewRNG(1)
	_, err := SampleNormal(r, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = SampleNormal(r, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSampleNormalSampleMeanConverges(t *testing.T) {
	r := NewRNG(99)
	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		v, err := SampleNormal(r, 5, 4)
		require.NoError(t, err)
		sum += v
	}
	mean := sum / n
	assert.InDelta(t, 5.0, mean, 0.1)
}

func TestSampleGammaRejectsNonPositiveShape(t *testing.T) {
	r := NewRNG(1)
	_, err := SampleGamma(r, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = SampleGamma(r, -2)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSampleGammaMeanConverges(t *testing.T) {
	r := NewRNG(2024)
	const shape = 3.0
	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		v, err := SampleGamma(r, shape)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		sum += v
	}
	mean := sum / n
	assert.InDelta(t, shape, mean, 0.15)
}

func TestSampleGammaShapeLessThanOne(t *testing.T) {
	r := NewRNG(55)
	v, err := SampleGamma(r, 0.5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.False(t, math.IsNaN(v))
}

func TestSampleBetaUniformShortCircuit(t *testing.T) {
	r := NewRNG(3)
	v, err := SampleBeta(r, 1, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.Less(t, v, 1.0)
}

func TestSampleBetaMeanConverges(t *testing.T) {
	r := NewRNG(777)
	const alpha, beta = 2.0, 8.0
	const n = 20000
	var sum float64
	for i := 0; i < n; i++ {
		v, err := SampleBeta(r, alpha, beta)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		sum += v
	}
	mean := sum / n
	assert.InDelta(t, alpha/(alpha+beta), mean, 0.02)
}

func TestSampleBetaRejectsNonPositiveParameters(t *testing.T) {
	r := NewRNG(1)
	_, err := SampleBeta(r, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = SampleBeta(r, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSampleInverseGammaPositiveAndFinite(t *testing.T) {
	r := NewRNG(11)
	for i := 0; i < 1000; i++ {
		v, err := SampleInverseGamma(r, 3, 2)
		require.NoError(t, err)
		assert.Greater(t, v, 0.0)
		assert.False(t, math.IsInf(v, 0))
	}
}

func TestSampleInverseGammaRejectsNonPositiveParameters(t *testing.T) {
	r := NewRNG(1)
	_, err := SampleInverseGamma(r, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = SampleInverseGamma(r, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
