package service

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClaimScore_ExactProduct(t *testing.T) {
	polarities := []int{-1, 0, 1}
	intensities := []float64{0, 0.25, 0.5, 0.75, 1}

	for _, p := range polarities {
		for _, in := range intensities {
			got := ClaimScore(p, in)
			want := float64(p) * in
			if !almostEqual(got, want) {
				t.Errorf("ClaimScore(%d, %f) = %f, want %f", p, in, got, want)
			}
			if got < -1 || got > 1 {
				t.Errorf("ClaimScore(%d, %f) = %f out of [-1,1]", p, in, got)
			}
		}
	}
}

func TestClaimScore_ClampsAdversarialInputs(t *testing.T) {
	if got := ClaimScore(3, 0.5); !almostEqual(got, 0.5) {
		t.Errorf("polarity clamp: got %f, want 0.5", got)
	}
	if got := ClaimScore(1, 2.5); !almostEqual(got, 1) {
		t.Errorf("intensity clamp: got %f, want 1", got)
	}
	if got := ClaimScore(-1, -0.5); !almostEqual(got, 0) {
		t.Errorf("negative intensity clamp: got %f, want 0", got)
	}
}

func TestRoleContribution_EmptyIsNil(t *testing.T) {
	if got := RoleContribution(nil); got != nil {
		t.Errorf("RoleContribution(nil) = %v, want nil", *got)
	}
	if got := RoleContribution([]float64{}); got != nil {
		t.Errorf("RoleContribution(empty) = %v, want nil", *got)
	}
}

func TestRoleContribution_AllNeutralIsZero(t *testing.T) {
	got := RoleContribution([]float64{0, 0, 0})
	if got == nil || *got != 0 {
		t.Fatalf("RoleContribution(all zero) = %v, want 0", got)
	}
}

func TestRoleContribution_Normalizes(t *testing.T) {
	cases := []struct {
		claims []float64
		want   float64
	}{
		{[]float64{0.3}, 1},
		{[]float64{-0.3}, -1},
		{[]float64{0.5, -0.5}, 0},
		{[]float64{1, 1, -1}, 1.0 / 3},
		{[]float64{0.2, 0.8}, 1},
	}
	for _, tc := range cases {
		got := RoleContribution(tc.claims)
		if got == nil {
			t.Fatalf("RoleContribution(%v) = nil", tc.claims)
		}
		if !almostEqual(*got, tc.want) {
			t.Errorf("RoleContribution(%v) = %f, want %f", tc.claims, *got, tc.want)
		}
		if *got < -1 || *got > 1 {
			t.Errorf("RoleContribution(%v) = %f out of [-1,1]", tc.claims, *got)
		}
	}
}

func TestAggregateEvidence_SingleRelationWeightCancels(t *testing.T) {
	for _, w := range []float64{0.1, 0.5, 0.9, 1} {
		items := []Evidence{{Weight: w, Contributions: map[string]float64{"effect": -1}}}
		score, coverage := AggregateEvidence(items, "effect")
		if score == nil || !almostEqual(*score, -1) {
			t.Errorf("weight %f: score = %v, want -1", w, score)
		}
		if !almostEqual(coverage, w) {
			t.Errorf("weight %f: coverage = %f, want %f", w, coverage, w)
		}
	}
}

func TestAggregateEvidence_NoCoverageIsNil(t *testing.T) {
	// Items not exposing the role are masked out, not treated as zero.
	items := []Evidence{
		{Weight: 1, Contributions: map[string]float64{"other": 1}},
	}
	score, coverage := AggregateEvidence(items, "effect")
	if score != nil {
		t.Errorf("score = %v, want nil", *score)
	}
	if coverage != 0 {
		t.Errorf("coverage = %f, want 0", coverage)
	}

	// All-zero weights: coverage 0, score undefined rather than NaN.
	items = []Evidence{
		{Weight: 0, Contributions: map[string]float64{"effect": 1}},
		{Weight: 0, Contributions: map[string]float64{"effect": -1}},
	}
	score, coverage = AggregateEvidence(items, "effect")
	if score != nil {
		t.Errorf("all-zero weights: score = %v, want nil", *score)
	}
	if coverage != 0 {
		t.Errorf("all-zero weights: coverage = %f, want 0", coverage)
	}
}

func TestAggregateEvidence_ManyRelationsStayInRange(t *testing.T) {
	var items []Evidence
	for i := 0; i < 500; i++ {
		c := 1.0
		if i%3 == 0 {
			c = -1
		}
		items = append(items, Evidence{
			Weight:        0.1 + float64(i%10)*0.1,
			Contributions: map[string]float64{"effect": c},
		})
	}
	score, coverage := AggregateEvidence(items, "effect")
	if score == nil {
		t.Fatal("score = nil, want value")
	}
	if *score < -1 || *score > 1 {
		t.Errorf("score = %f out of [-1,1]", *score)
	}
	if coverage <= 0 {
		t.Errorf("coverage = %f, want > 0", coverage)
	}
}

func TestConfidence_ZeroCoverage(t *testing.T) {
	if got := Confidence(0, 1); got != 0 {
		t.Errorf("Confidence(0) = %f, want 0", got)
	}
}

func TestConfidence_StrictlyIncreasingBelowOne(t *testing.T) {
	prev := -1.0
	for _, cov := range []float64{0, 0.5, 1, 2, 5, 10, 100, 1000} {
		c := Confidence(cov, 1)
		if c <= prev {
			t.Errorf("Confidence(%f) = %f, not increasing (prev %f)", cov, c, prev)
		}
		if c >= 1 {
			t.Errorf("Confidence(%f) = %f, must stay below 1", cov, c)
		}
		prev = c
	}
}

func TestConfidence_DefaultLambda(t *testing.T) {
	if got, want := Confidence(2, 0), Confidence(2, DefaultConfidenceLambda); !almostEqual(got, want) {
		t.Errorf("Confidence with lambda 0 = %f, want default %f", got, want)
	}
}

func TestDisagreement_SameSignIsZero(t *testing.T) {
	items := []Evidence{
		{Weight: 1, Contributions: map[string]float64{"effect": 1}},
		{Weight: 0.5, Contributions: map[string]float64{"effect": 0.7}},
		{Weight: 2, Contributions: map[string]float64{"effect": 0.1}},
	}
	if got := Disagreement(items, "effect"); !almostEqual(got, 0) {
		t.Errorf("Disagreement(same sign) = %f, want 0", got)
	}
}

func TestDisagreement_EqualOppositeIsOne(t *testing.T) {
	items := []Evidence{
		{Weight: 1, Contributions: map[string]float64{"effect": 1}},
		{Weight: 1, Contributions: map[string]float64{"effect": -1}},
	}
	if got := Disagreement(items, "effect"); !almostEqual(got, 1) {
		t.Errorf("Disagreement(equal opposite) = %f, want 1", got)
	}
}

func TestDisagreement_NoEvidenceIsZero(t *testing.T) {
	if got := Disagreement(nil, "effect"); got != 0 {
		t.Errorf("Disagreement(no items) = %f, want 0", got)
	}
	items := []Evidence{{Weight: 1, Contributions: map[string]float64{"other": 1}}}
	if got := Disagreement(items, "effect"); got != 0 {
		t.Errorf("Disagreement(role absent) = %f, want 0", got)
	}
	items = []Evidence{{Weight: 0, Contributions: map[string]float64{"effect": 1}}}
	if got := Disagreement(items, "effect"); got != 0 {
		t.Errorf("Disagreement(zero weight) = %f, want 0", got)
	}
}

func TestDisagreement_StaysInRange(t *testing.T) {
	items := []Evidence{
		{Weight: 0.9, Contributions: map[string]float64{"effect": 1}},
		{Weight: 0.3, Contributions: map[string]float64{"effect": -0.5}},
		{Weight: 0.7, Contributions: map[string]float64{"effect": 0.2}},
	}
	got := Disagreement(items, "effect")
	if got < 0 || got > 1 {
		t.Errorf("Disagreement = %f out of [0,1]", got)
	}
}
