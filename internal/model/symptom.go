package model

// SymptomMatch is one user-facing symptom finding
type SymptomMatch struct {
	Symptom           string   `json:"symptom" yaml:"symptom"`                       // Condition name (primary path) or symptom key (fallback)
	Severity          int      `json:"severity" yaml:"severity"`                     // 1..5
	RelatedConditions []string `json:"related_conditions" yaml:"related_conditions"` // Ordered, most relevant first
}

// ConditionPrediction is a candidate condition with its pattern coverage
type ConditionPrediction struct {
	Condition  string  `json:"condition" yaml:"condition"`
	Confidence float64 `json:"confidence" yaml:"confidence"` // matched patterns / total patterns, always in (0.3, 1.0]
}

// UrgencyLevel is the coarse bucket derived from severity
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

// Severity thresholds for urgency buckets (strictly greater than)
const (
	HighUrgencyThreshold   = 0.7
	MediumUrgencyThreshold = 0.4
)

// UrgencyFromSeverity maps a severity in [0,1] to an urgency bucket
func UrgencyFromSeverity(severity float64) UrgencyLevel {
	switch {
	case severity > HighUrgencyThreshold:
		return UrgencyHigh
	case severity > MediumUrgencyThreshold:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// AnalysisResult is the output of the inference step
type AnalysisResult struct {
	PredictedConditions []ConditionPrediction `json:"predicted_conditions" yaml:"predicted_conditions"`
	Severity            float64               `json:"severity" yaml:"severity"` // [0,1]
	UrgencyLevel        UrgencyLevel          `json:"urgency_level" yaml:"urgency_level"`
}

// SymptomAnalysis is the deterministic outcome of one symptom analysis.
// Everything here depends only on the input text, the dictionaries and the
// classifier parameters, so it is safe to cache.
type SymptomAnalysis struct {
	Phrases         []string       `json:"phrases"`         // Tagged candidate phrases
	Features        []float64      `json:"features"`        // Feature vector fed to the classifier
	Result          AnalysisResult `json:"result"`          // Severity + ranked conditions
	Matches         []SymptomMatch `json:"matches"`         // Assembled matches
	Recommendations []string       `json:"recommendations"` // Advisory strings, in order
	UsedFallback    bool           `json:"used_fallback"`   // Whether the keyword fallback produced the matches
}

// MaxSeverity returns the highest severity across matches (0 if none)
func MaxSeverity(matches []SymptomMatch) int {
	max := 0
	for _, m := range matches {
		if m.Severity > max {
			max = m.Severity
		}
	}
	return max
}
