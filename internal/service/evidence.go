package service

import "math"

// DefaultConfidenceLambda is the saturation rate for Confidence. It is a
// model parameter, not derived from data.
const DefaultConfidenceLambda = 1.0

// Evidence is one relation's contribution to aggregation: its weight and a
// map of the roles it exposes to their signed contributions. A relation that
// does not expose a role is masked out of that role's sums entirely, which
// is not the same as contributing zero.
type Evidence struct {
	Weight        float64
	Contributions map[string]float64
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ClaimScore scores one claim as polarity * intensity. Polarity is -1, 0 or
// +1 and intensity lies in [0,1], so the result lies in [-1,1]; inputs are
// clamped so out-of-range values cannot leak past that invariant.
func ClaimScore(polarity int, intensity float64) float64 {
	p := clamp(float64(polarity), -1, 1)
	return p * clamp(intensity, 0, 1)
}

// RoleContribution collapses the claim scores describing one role within a
// relation into a single signed contribution in [-1,1].
//
// Returns nil for an empty claim list (the relation simply does not expose
// the role) and 0 when claims exist but are all exactly neutral. The clamp
// absorbs floating-point drift in Σx/Σ|x|.
func RoleContribution(claims []float64) *float64 {
	if len(claims) == 0 {
		return nil
	}
	var sum, absSum float64
	for _, x := range claims {
		sum += x
		absSum += math.Abs(x)
	}
	c := 0.0
	if absSum > 0 {
		c = clamp(sum/absSum, -1, 1)
	}
	return &c
}

// AggregateEvidence combines weighted contributions for one role across
// relations:
//
//	evidence = Σ weight * contribution
//	coverage = Σ weight
//	score    = evidence / coverage
//
// Only relations exposing the role enter either sum. Score is nil when
// coverage is zero — no evidence is a distinct state from a neutral score.
func AggregateEvidence(items []Evidence, role string) (score *float64, coverage float64) {
	var evidence float64
	for _, it := range items {
		c, ok := it.Contributions[role]
		if !ok {
			continue
		}
		evidence += it.Weight * c
		coverage += it.Weight
	}
	if coverage == 0 {
		return nil, coverage
	}
	v := evidence / coverage
	return &v, coverage
}

// Confidence saturates with coverage: 1 - exp(-λ·coverage). Zero coverage
// gives zero confidence; no finite coverage reaches 1. A non-positive
// lambda falls back to the default.
func Confidence(coverage, lambda float64) float64 {
	if lambda <= 0 {
		lambda = DefaultConfidenceLambda
	}
	return 1 - math.Exp(-lambda*coverage)
}

// Disagreement measures contradiction among the weighted contributions for
// one role: 0 when everything points the same signed direction, 1 when
// equal and opposite weighted contributions cancel exactly.
func Disagreement(items []Evidence, role string) float64 {
	var signedSum, absSum float64
	for _, it := range items {
		c, ok := it.Contributions[role]
		if !ok {
			continue
		}
		signedSum += it.Weight * c
		absSum += it.Weight * math.Abs(c)
	}
	if absSum == 0 {
		return 0
	}
	return clamp(1-math.Abs(signedSum)/absSum, 0, 1)
}
