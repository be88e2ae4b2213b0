package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/medlens/internal/model"
)

// Renderer writes reports as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// WriteJSON encodes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RenderJSON writes the report as JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, report) })
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	md := r.Markdown(report)
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, md)
		return err
	})
}

// RenderLLMMarkdown writes an already rendered LLM narrative to path
func (r *Renderer) RenderLLMMarkdown(md, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, md)
		return err
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Markdown renders the report. The LLM narrative is never included here;
// it goes to its own document.
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	switch report.Kind {
	case model.KindDocument:
		b.WriteString("# Document Summary\n\n")
	default:
		b.WriteString("# Symptom Analysis\n\n")
	}

	if report.Source != "" {
		fmt.Fprintf(&b, "- **Source**: %s\n", report.Source)
	}
	fmt.Fprintf(&b, "- **Analyzed**: %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	if report.Cached {
		b.WriteString("- **Cached**: yes\n")
	}
	b.WriteString("\n")

	if report.Symptom != nil {
		writeSymptomMarkdown(&b, report.Symptom)
	}
	if report.Document != nil {
		writeDocumentMarkdown(&b, report.Document)
	}

	fmt.Fprintf(&b, "> %s\n", report.Disclaimer)

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "_Generated by medlens. Report ID %s._\n", report.ID)
	}

	return b.String()
}

func writeSymptomMarkdown(b *strings.Builder, s *model.SymptomAnalysis) {
	b.WriteString("## Severity\n\n")
	fmt.Fprintf(b, "**%.2f** (urgency: **%s**)\n\n", s.Result.Severity, s.Result.UrgencyLevel)

	if len(s.Result.PredictedConditions) > 0 {
		b.WriteString("## Predicted Conditions\n\n")
		b.WriteString("| Condition | Confidence |\n|---|---|\n")
		for _, p := range s.Result.PredictedConditions {
			fmt.Fprintf(b, "| %s | %.0f%% |\n", p.Condition, p.Confidence*100)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Matches\n\n")
	if len(s.Matches) == 0 {
		b.WriteString("_No symptoms matched._\n\n")
	} else {
		if s.UsedFallback {
			b.WriteString("_Matched by keyword fallback._\n\n")
		}
		b.WriteString("| Symptom | Severity | Related conditions |\n|---|---|---|\n")
		for _, m := range s.Matches {
			fmt.Fprintf(b, "| %s | %d/5 | %s |\n", m.Symptom, m.Severity, strings.Join(m.RelatedConditions, ", "))
		}
		b.WriteString("\n")
	}

	if len(s.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}
}

func writeDocumentMarkdown(b *strings.Builder, d *model.ExtractedSummary) {
	b.WriteString("## Fields\n\n")
	fmt.Fprintf(b, "- **Doctor**: %s\n", d.DoctorName)
	if d.DateFound {
		fmt.Fprintf(b, "- **Date**: %s\n", d.Date)
	} else {
		fmt.Fprintf(b, "- **Date**: %s (not found, extraction date)\n", d.Date)
	}
	if d.Diagnosis != "" {
		fmt.Fprintf(b, "- **Diagnosis**: %s\n", d.Diagnosis)
	}
	if d.Complaints != "" {
		fmt.Fprintf(b, "- **Complaints**: %s\n", d.Complaints)
	}
	if d.Advice != "" {
		fmt.Fprintf(b, "- **Advice**: %s\n", d.Advice)
	}
	if d.FollowUp != "" {
		fmt.Fprintf(b, "- **Follow-up**: %s\n", d.FollowUp)
	}
	b.WriteString("\n")

	if len(d.Medications) > 0 {
		b.WriteString("## Medications\n\n")
		for _, m := range d.Medications {
			fmt.Fprintf(b, "- %s\n", m)
		}
		b.WriteString("\n")
	}

	if v := d.Vitals; v != nil {
		b.WriteString("## Vitals\n\n")
		for _, row := range [][2]string{
			{"Height", v.Height},
			{"Weight", v.Weight},
			{"BMI", v.BMI},
			{"Blood pressure", v.BloodPressure},
		} {
			if row[1] != "" {
				fmt.Fprintf(b, "- **%s**: %s\n", row[0], row[1])
			}
		}
		b.WriteString("\n")
	}

	if len(d.KeyFindings) > 0 {
		b.WriteString("## Key Findings\n\n")
		for _, f := range d.KeyFindings {
			fmt.Fprintf(b, "- %s\n", f)
		}
		b.WriteString("\n")
	}
}

// RenderSummary prints a short human-readable summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	switch {
	case report.Symptom != nil:
		s := report.Symptom
		fmt.Fprintf(w, "Severity: %.2f (%s)\n", s.Result.Severity, s.Result.UrgencyLevel)
		if len(s.Matches) == 0 {
			fmt.Fprintln(w, "No symptoms matched.")
		}
		for _, m := range s.Matches {
			fmt.Fprintf(w, "  - %s (%d/5): %s\n", m.Symptom, m.Severity, strings.Join(m.RelatedConditions, ", "))
		}
		if len(s.Recommendations) > 0 {
			fmt.Fprintln(w, "Recommendations:")
			for _, rec := range s.Recommendations {
				fmt.Fprintf(w, "  - %s\n", rec)
			}
		}
	case report.Document != nil:
		d := report.Document
		fmt.Fprintf(w, "Doctor: %s\nDate: %s\n", d.DoctorName, d.Date)
		if d.Diagnosis != "" {
			fmt.Fprintf(w, "Diagnosis: %s\n", d.Diagnosis)
		}
		for _, m := range d.Medications {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}
	fmt.Fprintf(w, "\n%s\n", report.Disclaimer)
}
