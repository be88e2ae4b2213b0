// Package advise turns symptom matches into ordered advisory strings.
package advise

import (
	"strings"

	"github.com/ppiankov/medlens/internal/dictionary"
	"github.com/ppiankov/medlens/internal/model"
)

// UrgentSeverity is the match severity at which the urgent advisory is prepended
const UrgentSeverity = 4

// Engine looks advisories up by normalized symptom key
type Engine struct {
	advice dictionary.Advice
}

// NewEngine creates an engine over an advisory table
func NewEngine(advice dictionary.Advice) *Engine {
	return &Engine{advice: advice}
}

// Recommend builds the advisory list for the matches. Lines are appended
// per match without deduplication; closing lines are added once.
func (e *Engine) Recommend(matches []model.SymptomMatch) []string {
	recommendations := []string{}
	if len(matches) == 0 {
		return recommendations
	}

	if model.MaxSeverity(matches) >= UrgentSeverity && e.advice.Urgent != "" {
		recommendations = append(recommendations, e.advice.Urgent)
	}

	for _, m := range matches {
		key := strings.ToLower(strings.TrimSpace(m.Symptom))
		recommendations = append(recommendations, e.advice.Symptoms[key]...)
	}

	recommendations = append(recommendations, e.advice.Closing...)

	return recommendations
}
