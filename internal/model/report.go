package model

import "time"

// Report is the envelope rendered for one symptom analysis or one document extraction
type Report struct {
	ID         string     `json:"id"`               // Random report ID (uuid)
	Kind       ReportKind `json:"kind"`             // symptom or document
	Source     string     `json:"source,omitempty"` // File name or "stdin"/"arg"
	AnalyzedAt time.Time  `json:"analyzed_at"`      // When the analysis ran
	Cached     bool       `json:"cached,omitempty"` // Symptom analysis served from cache

	Symptom  *SymptomAnalysis  `json:"symptom,omitempty"`  // Set for symptom reports
	Document *ExtractedSummary `json:"document,omitempty"` // Set for document reports

	Disclaimer string `json:"disclaimer"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM narrative (separate, never affects the analysis)
}

// ReportKind identifies which pipeline produced a report
type ReportKind string

const (
	KindSymptom  ReportKind = "symptom"
	KindDocument ReportKind = "document"
)

// Disclaimer is attached to every report
const Disclaimer = "This analysis is for informational purposes only and is not a medical diagnosis. " +
	"Always consult a qualified healthcare provider."

// LLMSummary contains an optional LLM-generated narrative.
// It never changes the computed analysis and is rendered separately.
type LLMSummary struct {
	Enabled          bool     `json:"enabled"`
	Provider         string   `json:"provider,omitempty"`   // openai, ollama
	Model            string   `json:"model,omitempty"`      // Model name
	StrictConditions bool     `json:"strict_conditions"`    // Whether condition allowlisting was enforced
	SummaryMD        string   `json:"summary_md,omitempty"` // Markdown narrative
	Warnings         []string `json:"warnings,omitempty"`   // Token usage, verification notes, failures
}

// AllowedConditions returns every condition named anywhere in a symptom
// analysis, in first-seen order. This is the allowlist for LLM narratives.
func (r *Report) AllowedConditions() []string {
	if r.Symptom == nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, p := range r.Symptom.Result.PredictedConditions {
		add(p.Condition)
	}
	for _, m := range r.Symptom.Matches {
		for _, c := range m.RelatedConditions {
			add(c)
		}
	}

	return out
}
