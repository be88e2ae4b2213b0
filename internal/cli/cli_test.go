package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/medlens/internal/dictionary"
	"github.com/ppiankov/medlens/internal/model"
	"github.com/ppiankov/medlens/internal/worker"
	"gopkg.in/yaml.v3"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"visit note":   "visit-note",
		"a/b\\c:d*e?f": "a_b_c_d_e_f",
		"  ":           "report",
		"..":           "report",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}

	if got := sanitizeFilename(strings.Repeat("x", 150)); len(got) != 100 {
		t.Errorf("Expected names capped at 100 bytes, got %d", len(got))
	}
}

func TestReportName(t *testing.T) {
	sym := &worker.JobResult{Index: 0, Kind: model.KindSymptom, Source: "line 1"}
	if got := reportName(sym); got != "001-symptom" {
		t.Errorf("Unexpected symptom report name %q", got)
	}

	doc := &worker.JobResult{Index: 11, Kind: model.KindDocument, Source: "/scans/visit note.hocr"}
	if got := reportName(doc); got != "012-visit-note" {
		t.Errorf("Unexpected document report name %q", got)
	}
}

func TestReadDescription(t *testing.T) {
	text, source, err := readDescription([]string{"fever", "and", "chills"}, strings.NewReader(""))
	if err != nil || text != "fever and chills" || source != "arg" {
		t.Errorf("Unexpected arg description: %q %q %v", text, source, err)
	}

	text, source, err = readDescription(nil, strings.NewReader("  dry cough\n"))
	if err != nil || text != "dry cough" || source != "stdin" {
		t.Errorf("Unexpected stdin description: %q %q %v", text, source, err)
	}

	if _, _, err := readDescription(nil, strings.NewReader("   ")); err == nil {
		t.Error("Expected error for empty stdin")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".medlens")

	path, err := writeDefaultConfig(dir, true)
	if err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Expected valid YAML, got %v", err)
	}
	if cfg.Classifier.Seed != model.DefaultConfig().Classifier.Seed {
		t.Errorf("Expected default seed, got %d", cfg.Classifier.Seed)
	}
	if cfg.Dictionary.Path != filepath.Join(dir, "dictionary.yaml") {
		t.Errorf("Expected config to point at the written dictionary, got %q", cfg.Dictionary.Path)
	}

	if _, err := dictionary.Load(cfg.Dictionary.Path); err != nil {
		t.Errorf("Expected written dictionary to load, got %v", err)
	}

	if _, err := writeDefaultConfig(dir, false); err == nil {
		t.Error("Expected refusal to overwrite an existing config")
	}
}

func TestDescribe(t *testing.T) {
	r := &model.Report{Document: &model.ExtractedSummary{DoctorName: "Dr. Patel", Date: "04/05/2024"}}
	if got := describe(r); got != "Dr. Patel, 04/05/2024" {
		t.Errorf("Unexpected description %q", got)
	}
}
