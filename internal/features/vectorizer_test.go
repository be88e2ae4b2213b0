package features

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertVector(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected length %d, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("index %d: expected %.2f, got %.2f", i, want[i], got[i])
		}
	}
}

func TestVectorize_Empty(t *testing.T) {
	v := NewVectorizer()

	assertVector(t, v.Vectorize(nil), []float64{0, 0, 0, 0, 0})
	assertVector(t, v.Vectorize([]string{}), []float64{0, 0, 0, 0, 0})
}

func TestVectorize_SinglePhrase(t *testing.T) {
	v := NewVectorizer()

	got := v.Vectorize([]string{"severe headache"})
	assertVector(t, got, []float64{0.8, 0, 0, 0, 0})
}

func TestVectorize_AllDimensions(t *testing.T) {
	v := NewVectorizer()

	got := v.Vectorize([]string{"constant pain", "mild fever", "occasional cough"})
	assertVector(t, got, []float64{0.2, 1.2, 2.0, 0, 0})
}

func TestVectorize_MultipleTermsInOnePhrase(t *testing.T) {
	v := NewVectorizer()

	// "severe" and "pain" both fire on the same phrase
	got := v.Vectorize([]string{"severe pain"})
	assertVector(t, got, []float64{0.8, 0, 0.7, 0, 0})
}

func TestVectorize_UnboundedAccumulation(t *testing.T) {
	v := NewVectorizer()

	phrases := []string{"severe a", "severe b", "severe c", "severe d", "severe e"}
	got := v.Vectorize(phrases)
	assertVector(t, got, []float64{4.0, 0, 0, 0, 0})
}

func TestVectorize_ReservedIndicesStayZero(t *testing.T) {
	v := NewVectorizer()

	got := v.Vectorize([]string{"severe constant pain", "moderate frequent fever"})
	if got[3] != 0 || got[4] != 0 {
		t.Errorf("expected reserved indices to be zero, got %v", got)
	}
}

func TestVectorize_CaseInsensitive(t *testing.T) {
	v := NewVectorizer()

	assertVector(t, v.Vectorize([]string{"SEVERE Headache"}), []float64{0.8, 0, 0, 0, 0})
}

func TestNewVectorizerWithRules_DropsOutOfRange(t *testing.T) {
	v := NewVectorizerWithRules([]Rule{
		{Index: 7, Term: "severe", Weight: 1},
		{Index: -1, Term: "severe", Weight: 1},
		{Index: 3, Term: "", Weight: 1},
		{Index: 4, Term: "itch", Weight: 0.4},
	})

	got := v.Vectorize([]string{"severe itch"})
	assertVector(t, got, []float64{0, 0, 0, 0, 0.4})
}
