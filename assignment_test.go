package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage is an in-memory Storage for tests, grounded on the same
// "fake the narrow interface" approach the teacher uses for its paper
// broker (broker_paper.go).
type memStorage struct {
	mu       sync.Mutex
	tests    map[string]*TestRef
	bindings map[string]string
	impressions map[string]int64
	conversions map[string]int64
	revenue     map[string]float64
}

func newMemStorage() *memStorage {
	return &memStorage{
		tests:       make(map[string]*TestRef),
		bindings:    make(map[string]string),
		impressions: make(map[string]int64),
		conversions: make(map[string]int64),
		revenue:     make(map[string]float64),
	}
}

func key(shop, testID string) string { return shop + "/" + testID }

func (s *memStorage) LoadTest(ctx context.Context, shop, testID string) (*TestRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tests[key(shop, testID)], nil
}

func (s *memStorage) LoadVisitorBinding(ctx context.Context, shop, testID, sessionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.bindings[key(shop, testID)+"/"+sessionID]
	return v, ok, nil
}

func (s *memStorage) SaveVisitorBinding(ctx context.Context, shop, testID, sessionID, variant string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[key(shop, testID)+"/"+sessionID] = variant
	return nil
}

func (s *memStorage) IncrementImpression(ctx context.Context, shop, testID, variant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.impressions[key(shop, testID)+"/"+variant]++
	return nil
}

func (s *memStorage) IncrementConversion(ctx context.Context, shop, testID, variant string, rev float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversions[key(shop, testID)+"/"+variant]++
	s.revenue[key(shop, testID)+"/"+variant] += rev
	return nil
}

func TestAssignVisitorRejectsInactiveTest(t *testing.T) {
	storage := newMemStorage()
	storage.tests[key("shop", "t1")] = &TestRef{Shop: "shop", TestID: "t1", Status: TestDraft}

	_, err := AssignVisitor(context.Background(), storage, VisitorAssignmentRequest{
		Shop: "shop", TestID: "t1", SessionID: "s1",
	})
	assert.ErrorIs(t, err, ErrTestNotActive)
}

func TestAssignVisitorDeterministicWithSeed(t *testing.T) {
	storage := newMemStorage()
	test := &TestRef{Shop: "shop", TestID: "t1", Status: TestActive, Allocation: Allocation{Control: 0.5, Variant: 0.5}}
	storage.tests[key("shop", "t1")] = test

	seed := uint64(123)
	r1, err := AssignVisitor(context.Background(), storage, VisitorAssignmentRequest{
		Shop: "shop", TestID: "t1", SessionID: "s1", Test: test, Seed: &seed,
	})
	require.NoError(t, err)

	// Drop the binding so the same seed replays the same draw.
	delete(storage.bindings, key("shop", "t1")+"/s1")
	r2, err := AssignVisitor(context.Background(), storage, VisitorAssignmentRequest{
		Shop: "shop", TestID: "t1", SessionID: "s1", Test: test, Seed: &seed,
	})
	require.NoError(t, err)
	assert.Equal(t, r1.Variant, r2.Variant)
}

func TestAssignVisitorStickyBindingWins(t *testing.T) {
	storage := newMemStorage()
	test := &TestRef{Shop: "shop", TestID: "t1", Status: TestActive, Allocation: Allocation{Control: 0.01, Variant: 0.99}}
	storage.tests[key("shop", "t1")] = test
	storage.bindings[key("shop", "t1")+"/s1"] = "control"

	result, err := AssignVisitor(context.Background(), storage, VisitorAssignmentRequest{
		Shop: "shop", TestID: "t1", SessionID: "s1", Test: test,
	})
	require.NoError(t, err)
	assert.Equal(t, "control", result.Variant)
}

func TestAssignVisitorLoadsTestWhenNotProvided(t *testing.T) {
	storage := newMemStorage()
	storage.tests[key("shop", "t1")] = &TestRef{Shop: "shop", TestID: "t1", Status: TestActive, Allocation: Allocation{Control: 1, Variant: 0}}

	seed := uint64(1)
	result, err := AssignVisitor(context.Background(), storage, VisitorAssignmentRequest{
		Shop: "shop", TestID: "t1", SessionID: "s1", Seed: &seed,
	})
	require.NoError(t, err)
	assert.Equal(t, "control", result.Variant)
}

func TestRecordImpressionAndConversion(t *testing.T) {
	storage := newMemStorage()
	require.NoError(t, RecordImpression(context.Background(), storage, "shop", "t1", "variant"))
	require.NoError(t, RecordConversion(context.Background(), storage, "shop", "t1", "variant", 42.0))

	assert.Equal(t, int64(1), storage.impressions[key("shop", "t1")+"/variant"])
	assert.Equal(t, int64(1), storage.conversions[key("shop", "t1")+"/variant"])
	assert.Equal(t, 42.0, storage.revenue[key("shop", "t1")+"/variant"])
}
