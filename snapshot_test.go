package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldSnapshotCrossesBoundary(t *testing.T) {
	assert.False(t, ShouldSnapshot(0, 0))
	assert.False(t, ShouldSnapshot(50, 99))
	assert.True(t, ShouldSnapshot(50, 100))
	assert.True(t, ShouldSnapshot(99, 201))
	assert.False(t, ShouldSnapshot(150, 150))
}

func TestNewSnapshotComputesRPV(t *testing.T) {
	control := NewArmPosterior(0.02, 50)
	control.TotalImpressions = 100
	control.TotalRevenue = 500

	variant := NewArmPosterior(0.03, 55)
	variant.TotalImpressions = 200
	variant.TotalRevenue = 1200

	alloc := Allocation{Control: 0.6, Variant: 0.4}
	now := time.Unix(1700000000, 0)
	snap := NewSnapshot("test-1", control, variant, alloc, now)

	assert.Equal(t, "test-1", snap.TestID)
	assert.Equal(t, int64(300), snap.Impressions)
	assert.InDelta(t, 5.0, snap.ControlRPV, 1e-9)
	assert.InDelta(t, 6.0, snap.VariantRPV, 1e-9)
	assert.Equal(t, alloc.Control, snap.ControlAllocation)
	assert.Equal(t, now, snap.Timestamp)
}

func TestNewSnapshotZeroImpressionsGivesZeroRPV(t *testing.T) {
	control := NewArmPosterior(0.02, 50)
	variant := NewArmPosterior(0.02, 50)
	snap := NewSnapshot("test-1", control, variant, Allocation{0.5, 0.5}, time.Now())
	assert.Equal(t, 0.0, snap.ControlRPV)
	assert.Equal(t, 0.0, snap.VariantRPV)
}

func TestNewRingSnapshotWriterEnforcesMinimumCapacity(t *testing.T) {
	w := NewRingSnapshotWriter(0)
	require.NoError(t, w.Append(EvolutionSnapshot{TestID: "a"}))
	require.NoError(t, w.Append(EvolutionSnapshot{TestID: "b"}))
	assert.Len(t, w.Snapshots(), 1)
	assert.Equal(t, "b", w.Snapshots()[0].TestID)
}

func TestRingSnapshotWriterDropsOldest(t *testing.T) {
	w := NewRingSnapshotWriter(2)
	require.NoError(t, w.Append(EvolutionSnapshot{TestID: "a"}))
	require.NoError(t, w.Append(EvolutionSnapshot{TestID: "b"}))
	require.NoError(t, w.Append(EvolutionSnapshot{TestID: "c"}))

	snaps := w.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, "b", snaps[0].TestID)
	assert.Equal(t, "c", snaps[1].TestID)
}

func TestRingSnapshotWriterSnapshotsReturnsACopy(t *testing.T) {
	w := NewRingSnapshotWriter(5)
	require.NoError(t, w.Append(EvolutionSnapshot{TestID: "a"}))
	snaps := w.Snapshots()
	snaps[0].TestID = "mutated"
	assert.Equal(t, "a", w.Snapshots()[0].TestID)
}
