package match

import (
	"strings"

	"github.com/ppiankov/medlens/internal/dictionary"
	"github.com/ppiankov/medlens/internal/model"
)

// FallbackMatcher finds symptoms by keyword in the raw description
type FallbackMatcher struct {
	symptoms []dictionary.Symptom
}

// NewFallbackMatcher creates a keyword matcher over the given symptoms
func NewFallbackMatcher(symptoms []dictionary.Symptom) *FallbackMatcher {
	return &FallbackMatcher{symptoms: symptoms}
}

// Match emits one SymptomMatch per dictionary entry with any keyword
// present in the lower-cased text, in dictionary order
func (m *FallbackMatcher) Match(text string) []model.SymptomMatch {
	lowered := strings.ToLower(text)

	matches := []model.SymptomMatch{}
	for _, s := range m.symptoms {
		for _, keyword := range s.Keywords {
			if strings.Contains(lowered, keyword) {
				related := make([]string, len(s.Conditions))
				copy(related, s.Conditions)

				matches = append(matches, model.SymptomMatch{
					Symptom:           s.Name,
					Severity:          s.Severity,
					RelatedConditions: related,
				})
				break
			}
		}
	}

	return matches
}
