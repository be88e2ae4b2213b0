package advise

import (
	"reflect"
	"testing"

	"github.com/ppiankov/medlens/internal/dictionary"
	"github.com/ppiankov/medlens/internal/model"
)

func newDefaultEngine() *Engine {
	return NewEngine(dictionary.Default().Advice)
}

func TestRecommend_Empty(t *testing.T) {
	got := newDefaultEngine().Recommend(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestRecommend_SingleFever(t *testing.T) {
	got := newDefaultEngine().Recommend([]model.SymptomMatch{
		{Symptom: "fever", Severity: 3},
	})

	want := []string{
		"Monitor your temperature regularly",
		"Stay hydrated and rest",
		"Keep track of your symptoms",
		"Consult your healthcare provider if symptoms persist",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRecommend_UrgentPrepended(t *testing.T) {
	got := newDefaultEngine().Recommend([]model.SymptomMatch{
		{Symptom: "fever", Severity: 2},
		{Symptom: "migraine", Severity: 4},
	})

	if len(got) != 7 {
		t.Fatalf("expected 7 advisories, got %d: %v", len(got), got)
	}
	if got[0] != "Please seek immediate medical attention" {
		t.Errorf("expected urgent advisory first, got %q", got[0])
	}
}

func TestRecommend_NoUrgentBelowThreshold(t *testing.T) {
	got := newDefaultEngine().Recommend([]model.SymptomMatch{{Symptom: "cough", Severity: 3}})

	for _, line := range got {
		if line == "Please seek immediate medical attention" {
			t.Error("did not expect urgent advisory for severity 3")
		}
	}
}

func TestRecommend_DuplicatesKept(t *testing.T) {
	got := newDefaultEngine().Recommend([]model.SymptomMatch{
		{Symptom: "fever", Severity: 3},
		{Symptom: "Fever", Severity: 3},
	})

	// 2 per match + 2 closing
	if len(got) != 6 {
		t.Errorf("expected duplicated advisories, got %d: %v", len(got), got)
	}
}

func TestRecommend_UnknownSymptom(t *testing.T) {
	got := newDefaultEngine().Recommend([]model.SymptomMatch{{Symptom: "fatigue", Severity: 1}})

	want := []string{
		"Keep track of your symptoms",
		"Consult your healthcare provider if symptoms persist",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected closing lines only, got %v", got)
	}
}

func TestRecommend_ScenarioOrder(t *testing.T) {
	got := newDefaultEngine().Recommend([]model.SymptomMatch{
		{Symptom: "headache", Severity: 2},
		{Symptom: "fever", Severity: 3},
		{Symptom: "fatigue", Severity: 1},
	})

	want := []string{
		"Rest in a quiet, dark room",
		"Consider over-the-counter pain relievers",
		"Monitor your temperature regularly",
		"Stay hydrated and rest",
		"Keep track of your symptoms",
		"Consult your healthcare provider if symptoms persist",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRecommend_SyntheticTable(t *testing.T) {
	e := NewEngine(dictionary.Advice{
		Urgent:   "go now",
		Closing:  []string{"bye"},
		Symptoms: map[string][]string{"itch": {"scratch less"}},
	})

	got := e.Recommend([]model.SymptomMatch{{Symptom: "ITCH", Severity: 5}})
	want := []string{"go now", "scratch less", "bye"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
