// FILE: snapshot.go
// Package engine – Evolution snapshots (spec §5, §6): append-only
// records taken every ~100 impressions so a downstream dashboard or
// audit trail can replay a test's history without re-deriving it from
// the Bayesian state blob.
//
// Per spec §5, the snapshot writer is the one consumer allowed to read
// state without the per-optimization lock, because it only ever
// observes already-committed snapshots.
package engine

import "time"

// EvolutionSnapshot is one point-in-time record (spec §6).
type EvolutionSnapshot struct {
	TestID             string    `json:"testId"`
	Impressions        int64     `json:"impressions"`
	ControlImpressions int64     `json:"controlImpressions"`
	ControlConversions int64     `json:"controlConversions"`
	ControlRevenue     float64   `json:"controlRevenue"`
	ControlRPV         float64   `json:"controlRpv"`
	VariantImpressions int64     `json:"variantImpressions"`
	VariantConversions int64     `json:"variantConversions"`
	VariantRevenue     float64   `json:"variantRevenue"`
	VariantRPV         float64   `json:"variantRpv"`
	ControlAllocation  float64   `json:"controlAllocation"`
	VariantAllocation  float64   `json:"variantAllocation"`
	Timestamp          time.Time `json:"timestamp"`
}

// snapshotIntervalImpressions is the "~100-impression" cadence from
// spec §5/§6.
const snapshotIntervalImpressions = 100

// SnapshotWriter appends evolution snapshots. Implementations decide
// where they land (file, table, queue); the engine never calls this
// itself — it is cmd/simulator's job to call ShouldSnapshot/NewSnapshot
// after each tick and hand the result to a writer.
type SnapshotWriter interface {
	Append(snap EvolutionSnapshot) error
}

// ShouldSnapshot reports whether impressions have crossed another
// snapshotIntervalImpressions boundary since lastSnapshotImpressions.
func ShouldSnapshot(lastSnapshotImpressions, currentImpressions int64) bool {
	if currentImpressions <= lastSnapshotImpressions {
		return false
	}
	return currentImpressions/snapshotIntervalImpressions > lastSnapshotImpressions/snapshotIntervalImpressions
}

// NewSnapshot builds an EvolutionSnapshot from a test's arm posteriors
// and the allocation produced by the same tick.
func NewSnapshot(testID string, control, variant ArmPosterior, allocation Allocation, now time.Time) EvolutionSnapshot {
	return EvolutionSnapshot{
		TestID:             testID,
		Impressions:        control.TotalImpressions + variant.TotalImpressions,
		ControlImpressions: control.TotalImpressions,
		ControlConversions: control.TotalConversions,
		ControlRevenue:     control.TotalRevenue,
		ControlRPV:         rpv(control),
		VariantImpressions: variant.TotalImpressions,
		VariantConversions: variant.TotalConversions,
		VariantRevenue:     variant.TotalRevenue,
		VariantRPV:         rpv(variant),
		ControlAllocation:  allocation.Control,
		VariantAllocation:  allocation.Variant,
		Timestamp:          now,
	}
}

func rpv(p ArmPosterior) float64 {
	if p.TotalImpressions == 0 {
		return 0
	}
	return p.TotalRevenue / float64(p.TotalImpressions)
}

// RingSnapshotWriter is an in-memory bounded SnapshotWriter: the
// simplest possible implementation, useful for tests and for the
// simulator's default run. It keeps only the most recent `capacity`
// snapshots, oldest dropped first.
type RingSnapshotWriter struct {
	capacity int
	buf      []EvolutionSnapshot
}

// NewRingSnapshotWriter returns a RingSnapshotWriter holding up to
// capacity snapshots.
func NewRingSnapshotWriter(capacity int) *RingSnapshotWriter {
	if capacity <= 0 {
		capacity = 1
	}
	return &RingSnapshotWriter{capacity: capacity}
}

// Append adds snap, evicting the oldest entry if at capacity.
func (w *RingSnapshotWriter) Append(snap EvolutionSnapshot) error {
	w.buf = append(w.buf, snap)
	if len(w.buf) > w.capacity {
		w.buf = w.buf[len(w.buf)-w.capacity:]
	}
	return nil
}

// Snapshots returns the currently retained snapshots, oldest first.
func (w *RingSnapshotWriter) Snapshots() []EvolutionSnapshot {
	out := make([]EvolutionSnapshot, len(w.buf))
	copy(out, w.buf)
	return out
}
