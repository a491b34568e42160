package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRNGZeroSeedEscapesAllZeroState(t *testing.T) {
	r := NewRNG(0)
	require.NotNil(t, r)
	assert.Equal(t, uint32(1), r.state)
}

func TestRNGFloat64InUnitInterval(t *testing.T) {
	r := NewRNG(12345)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestRNGDeterministicGivenSameSeed(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestRNGCloneDoesNotShareState(t *testing.T) {
	a := NewRNG(7)
	_ = a.Float64()
	clone := a.Clone()

	av := a.Float64()
	cv := clone.Float64()
	assert.Equal(t, av, cv, "clone starts from the same position as the original")

	// advancing the clone further must not perturb the original: its
	// next draw is still the third draw of a fresh seed-7 generator.
	_ = clone.Float64()
	nextA := a.Float64()
	ref := NewRNG(7)
	_ = ref.Float64()
	_ = ref.Float64()
	assert.Equal(t, ref.Float64(), nextA)
}

func TestDeriveSeedIsPositionalOffset(t *testing.T) {
	base := uint64(1000)
	assert.Equal(t, base, deriveSeed(base, 0))
	assert.Equal(t, base+1, deriveSeed(base, 1))
	assert.Equal(t, base+41, deriveSeed(base, 41))
}
