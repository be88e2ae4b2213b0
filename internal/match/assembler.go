package match

import (
	"math"

	"github.com/ppiankov/medlens/internal/model"
)

// PrimaryConfidence is the exclusive lower bound for a prediction to
// become a SymptomMatch on the primary path
const PrimaryConfidence = 0.5

// Assembler combines classifier severity and condition predictions into
// symptom matches, falling back to keyword matching when none qualify
type Assembler struct {
	fallback *FallbackMatcher
}

// NewAssembler creates an assembler with the given fallback matcher
func NewAssembler(fallback *FallbackMatcher) *Assembler {
	return &Assembler{fallback: fallback}
}

// Assemble returns the matches and whether the fallback produced them.
// The fallback runs only when no prediction passes PrimaryConfidence,
// even if lower-confidence predictions exist.
func (a *Assembler) Assemble(text string, severity float64, predictions []model.ConditionPrediction) ([]model.SymptomMatch, bool) {
	matches := []model.SymptomMatch{}
	for _, p := range predictions {
		if p.Confidence > PrimaryConfidence {
			matches = append(matches, model.SymptomMatch{
				Symptom:           p.Condition,
				Severity:          ScaleSeverity(severity),
				RelatedConditions: []string{p.Condition},
			})
		}
	}

	if len(matches) > 0 || a.fallback == nil {
		return matches, false
	}

	return a.fallback.Match(text), true
}

// ScaleSeverity maps a [0,1] severity onto the 1..5 match scale
func ScaleSeverity(severity float64) int {
	if math.IsNaN(severity) {
		return 1
	}
	scaled := int(math.Round(severity * 5))
	if scaled < 1 {
		return 1
	}
	if scaled > 5 {
		return 5
	}
	return scaled
}
