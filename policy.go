// FILE: policy.go
// Package engine – Top-Two Thompson Sampling allocation policy
// (component 4).
//
// TTTS draws one ARPU sample per arm, gives the better-sampled arm the
// majority share, and gives the other arm a small exploration share
// that depends on risk mode. ApplyConstraints then folds in the
// current control/variant floors (spec §4.4).
package engine

// RawTTTSAllocation draws one ARPU sample from each arm and returns the
// unconstrained (pre-floor) allocation per spec §4.4.
func RawTTTSAllocation(r *RNG, control, variant ArmPosterior, mode RiskMode, explorationCap float64) (Allocation, error) {
	cs, err := SampleARPU(r, control)
	if err != nil {
		return Allocation{}, err
	}
	vs, err := SampleARPU(r, variant)
	if err != nil {
		return Allocation{}, err
	}

	eps := explorationEpsilon(mode)
	if explorationCap > 0 && eps > explorationCap {
		eps = explorationCap
	}

	var controlShare, variantShare float64
	if vs > cs {
		// Variant is "best"; control is the challenger.
		controlShare = eps
		variantShare = 1 - eps
	} else {
		controlShare = 1 - eps
		variantShare = eps
	}

	total := controlShare + variantShare
	return Allocation{Control: controlShare / total, Variant: variantShare / total}, nil
}

// ApplyConstraints folds controlFloor/variantFloor into a raw
// allocation per spec §4.4:
//   - if floors conflict (sum > 1), control floor wins
//   - else if control share is below its floor, clamp to the floor
//   - else if variant share is below its floor, clamp to the floor
//   - else pass through, renormalized to sum to 1 within 1e-10
func ApplyConstraints(raw Allocation, controlFloor, variantFloor float64) Allocation {
	if controlFloor+variantFloor > 1 {
		return Allocation{Control: controlFloor, Variant: 1 - controlFloor}
	}
	if raw.Control < controlFloor {
		return Allocation{Control: controlFloor, Variant: 1 - controlFloor}
	}
	if raw.Variant < variantFloor {
		return Allocation{Control: 1 - variantFloor, Variant: variantFloor}
	}
	return normalizeAllocation(raw)
}

// normalizeAllocation rescales so Control+Variant == 1 within 1e-10.
func normalizeAllocation(a Allocation) Allocation {
	total := a.Control + a.Variant
	if total == 0 {
		return Allocation{Control: 0.5, Variant: 0.5}
	}
	return Allocation{Control: a.Control / total, Variant: a.Variant / total}
}
