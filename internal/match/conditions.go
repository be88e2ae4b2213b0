// Package match turns tagged phrases and raw text into condition
// predictions and user-facing symptom matches.
package match

import (
	"sort"
	"strings"

	"github.com/ppiankov/medlens/internal/dictionary"
	"github.com/ppiankov/medlens/internal/model"
)

// MinConfidence is the exclusive lower bound for a condition prediction
const MinConfidence = 0.3

// ConditionMatcher scores conditions by pattern coverage over tagged phrases
type ConditionMatcher struct {
	conditions []dictionary.Condition
}

// NewConditionMatcher creates a matcher over the given conditions.
// Declaration order breaks confidence ties.
func NewConditionMatcher(conditions []dictionary.Condition) *ConditionMatcher {
	return &ConditionMatcher{conditions: conditions}
}

// Match returns the conditions whose confidence exceeds MinConfidence,
// most confident first. An empty result is a normal outcome.
func (m *ConditionMatcher) Match(phrases []string) []model.ConditionPrediction {
	if len(phrases) == 0 {
		return []model.ConditionPrediction{}
	}

	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}

	predictions := []model.ConditionPrediction{}
	for _, c := range m.conditions {
		if len(c.Patterns) == 0 {
			continue
		}

		matched := 0
		for _, pattern := range c.Patterns {
			if anyContains(lowered, pattern) {
				matched++
			}
		}

		confidence := float64(matched) / float64(len(c.Patterns))
		if confidence > MinConfidence {
			predictions = append(predictions, model.ConditionPrediction{
				Condition:  c.Name,
				Confidence: confidence,
			})
		}
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Confidence > predictions[j].Confidence
	})

	return predictions
}

func anyContains(phrases []string, pattern string) bool {
	for _, p := range phrases {
		if strings.Contains(p, pattern) {
			return true
		}
	}
	return false
}
