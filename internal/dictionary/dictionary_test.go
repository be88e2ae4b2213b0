package dictionary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Loads(t *testing.T) {
	d := Default()

	if len(d.Conditions) != 5 {
		t.Errorf("expected 5 conditions, got %d", len(d.Conditions))
	}
	if d.Conditions[0].Name != "migraine" {
		t.Errorf("expected migraine first (declaration order), got %s", d.Conditions[0].Name)
	}

	wantSymptoms := []string{"headache", "fever", "cough", "fatigue"}
	if len(d.Symptoms) != len(wantSymptoms) {
		t.Fatalf("expected %d symptoms, got %d", len(wantSymptoms), len(d.Symptoms))
	}
	for i, name := range wantSymptoms {
		if d.Symptoms[i].Name != name {
			t.Errorf("symptom %d: expected %s, got %s", i, name, d.Symptoms[i].Name)
		}
	}

	if d.Advice.Urgent == "" {
		t.Error("expected urgent advisory")
	}
	if len(d.Advice.Closing) != 2 {
		t.Errorf("expected 2 closing advisories, got %d", len(d.Advice.Closing))
	}
	for _, key := range []string{"fever", "headache", "cough", "migraine", "anxiety"} {
		if len(d.Advice.Symptoms[key]) != 2 {
			t.Errorf("expected 2 advisories for %s, got %d", key, len(d.Advice.Symptoms[key]))
		}
	}
}

func TestDefault_SameInstance(t *testing.T) {
	if Default() != Default() {
		t.Error("expected Default to return the same instance")
	}
}

func TestParse_NormalizesCase(t *testing.T) {
	doc := `
conditions:
  - name: test
    patterns: ["Severe Headache "]
symptoms:
  - name: cough
    keywords: [COUGH]
    conditions: [Cold]
    severity: 2
advice:
  symptoms:
    Fever: [drink water]
`
	d, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if d.Conditions[0].Patterns[0] != "severe headache" {
		t.Errorf("expected lower-cased pattern, got %q", d.Conditions[0].Patterns[0])
	}
	if d.Symptoms[0].Keywords[0] != "cough" {
		t.Errorf("expected lower-cased keyword, got %q", d.Symptoms[0].Keywords[0])
	}
	if _, ok := d.Advice.Symptoms["fever"]; !ok {
		t.Error("expected advice keys to be lower-cased")
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"no patterns":       "conditions:\n  - name: x\n    patterns: []\n",
		"duplicate":         "conditions:\n  - name: x\n    patterns: [a]\n  - name: x\n    patterns: [b]\n",
		"severity range":    "symptoms:\n  - name: s\n    keywords: [a]\n    severity: 6\n",
		"no keywords":       "symptoms:\n  - name: s\n    keywords: []\n    severity: 2\n",
		"unnamed condition": "conditions:\n  - patterns: [a]\n",
	}

	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		if !errors.Is(err, ErrInvalidDictionary) {
			t.Errorf("%s: expected ErrInvalidDictionary, got %v", name, err)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("conditions: [")); err == nil {
		t.Error("expected decode error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	if err := os.WriteFile(path, defaultYAML, 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(d.Conditions) != len(Default().Conditions) {
		t.Error("expected loaded dictionary to match the default")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConditionNames(t *testing.T) {
	names := Default().ConditionNames()

	seen := make(map[string]int)
	for _, n := range names {
		seen[n]++
	}

	for _, want := range []string{"migraine", "flu", "Tension Headache", "COVID-19", "Anemia"} {
		if seen[want] != 1 {
			t.Errorf("expected %q exactly once, got %d", want, seen[want])
		}
	}
	// "Migraine" from the fallback table collides with "migraine"
	if seen["Migraine"] != 0 {
		t.Error("expected case-insensitive deduplication")
	}
}
