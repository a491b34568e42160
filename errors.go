// FILE: errors.go
// Package engine – Typed error values for the allocation engine.
//
// The engine never panics on bad input; every failure mode from the
// design is a distinct sentinel so callers can `errors.Is` against it
// and decide whether to retry, reinitialize, or surface to the user.
package engine

import "errors"

var (
	// ErrInvalidParameter is returned by a distribution sampler when a
	// shape/scale parameter is non-positive. Caller bug; not retried.
	ErrInvalidParameter = errors.New("engine: invalid distribution parameter")

	// ErrInvalidMetrics is returned when a metrics update would violate
	// monotonicity (negative delta, conversions > impressions). The tick
	// is rejected and state is left unmutated.
	ErrInvalidMetrics = errors.New("engine: invalid metrics update")

	// ErrStateMissing signals that a load returned nothing for an active
	// optimization. The caller should reinitialize with defaults and
	// proceed; this is recoverable at the boundary.
	ErrStateMissing = errors.New("engine: state missing for active optimization")

	// ErrStaleUpdate signals an optimistic-concurrency mismatch on a
	// state write. The caller must reload and recompute the whole tick.
	ErrStaleUpdate = errors.New("engine: stale state update, reload and retry")

	// ErrTestNotActive is returned by visitor assignment when the test is
	// not in active status. No side effects occur.
	ErrTestNotActive = errors.New("engine: test is not active")
)
