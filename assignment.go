// FILE: assignment.go
// Package engine – Visitor assignment and counter updates (component 6).
//
// Assignment is a thin wrapper over the current allocation (spec §4.6):
// given a test and a visitor session, map to {control, variant} using
// the allocation as a threshold. The binding is sticky for
// VisitorBindingTTL so a repeat visitor always sees the same variant.
// Two modes: live (process-wide math/rand, the teacher's model.go uses
// the same package for its weight initialization) and
// deterministic/test (an explicit seed through the engine's own RNG).
//
// Counters (impressions, conversions, revenue) live entirely in the
// caller's Storage; the engine only ever reads aggregated snapshots of
// them (spec §4.6, §5) — atomic increments under concurrent events are
// the storage implementation's responsibility, not this package's.
package engine

import (
	"context"
	"math/rand"
	"time"
)

// VisitorBindingTTL is how long a visitor<->variant binding is honored
// before a fresh draw is allowed (spec §4.6: "persisted per-session for
// 90 days").
const VisitorBindingTTL = 90 * 24 * time.Hour

// TestStatus is the lifecycle status of the surrounding optimization
// (spec §3 Lifecycle); only Active accepts visitor assignment.
type TestStatus string

const (
	TestDraft     TestStatus = "draft"
	TestActive    TestStatus = "active"
	TestCompleted TestStatus = "completed"
	TestCancelled TestStatus = "cancelled"
)

// TestRef is the minimal view of a test the assignment path needs.
type TestRef struct {
	Shop       string
	TestID     string
	Status     TestStatus
	Allocation Allocation
}

// Storage is the narrow persistence contract assignment and counter
// recording need. The admin/webhook layer, database, and cache backing
// it are all out of scope for this package (spec §1).
type Storage interface {
	LoadTest(ctx context.Context, shop, testID string) (*TestRef, error)
	LoadVisitorBinding(ctx context.Context, shop, testID, sessionID string) (variant string, found bool, err error)
	SaveVisitorBinding(ctx context.Context, shop, testID, sessionID, variant string, ttl time.Duration) error
	IncrementImpression(ctx context.Context, shop, testID, variant string) error
	IncrementConversion(ctx context.Context, shop, testID, variant string, revenue float64) error
}

// VisitorAssignmentRequest is the input to AssignVisitor. Test is
// optional — pass it when the caller already has it loaded to skip a
// redundant Storage.LoadTest round trip. Seed, if set, switches to
// deterministic/test mode (spec §4.6).
type VisitorAssignmentRequest struct {
	Shop      string
	TestID    string
	SessionID string
	Test      *TestRef
	Seed      *uint64
}

// VisitorAssignmentResult is AssignVisitor's output.
type VisitorAssignmentResult struct {
	Variant   string `json:"variant"`
	SessionID string `json:"sessionId"`
	TestID    string `json:"testId"`
}

// AssignVisitor maps a visitor session to {control, variant}. A sticky
// binding, if one exists, always wins. Otherwise it draws once against
// the test's current allocation and persists the result.
func AssignVisitor(ctx context.Context, storage Storage, req VisitorAssignmentRequest) (VisitorAssignmentResult, error) {
	test := req.Test
	if test == nil {
		loaded, err := storage.LoadTest(ctx, req.Shop, req.TestID)
		if err != nil {
			return VisitorAssignmentResult{}, err
		}
		test = loaded
	}
	if test == nil || test.Status != TestActive {
		return VisitorAssignmentResult{}, ErrTestNotActive
	}

	if variant, found, err := storage.LoadVisitorBinding(ctx, req.Shop, req.TestID, req.SessionID); err != nil {
		return VisitorAssignmentResult{}, err
	} else if found {
		return VisitorAssignmentResult{Variant: variant, SessionID: req.SessionID, TestID: req.TestID}, nil
	}

	draw := uniformDraw(req.Seed)
	variant := "control"
	if draw >= test.Allocation.Control {
		variant = "variant"
	}

	if err := storage.SaveVisitorBinding(ctx, req.Shop, req.TestID, req.SessionID, variant, VisitorBindingTTL); err != nil {
		return VisitorAssignmentResult{}, err
	}
	return VisitorAssignmentResult{Variant: variant, SessionID: req.SessionID, TestID: req.TestID}, nil
}

// uniformDraw returns one draw in [0,1): seeded and reproducible when
// seed is non-nil (the simulator path and property tests), otherwise a
// live weighted-uniform draw from the process RNG.
func uniformDraw(seed *uint64) float64 {
	if seed != nil {
		return NewRNG(*seed).Float64()
	}
	return rand.Float64()
}

// RecordImpression records one impression for shop/testID/variant.
func RecordImpression(ctx context.Context, storage Storage, shop, testID, variant string) error {
	return storage.IncrementImpression(ctx, shop, testID, variant)
}

// RecordConversion records one conversion (with its revenue) for
// shop/testID/variant.
func RecordConversion(ctx context.Context, storage Storage, shop, testID, variant string, revenue float64) error {
	return storage.IncrementConversion(ctx, shop, testID, variant, revenue)
}
