// Package features turns tagged symptom phrases into the classifier's
// fixed-length feature vector.
package features

import "strings"

// Dimension is the length of every feature vector
const Dimension = 5

// Vector indices
const (
	Intensity   = 0
	Duration    = 1
	SymptomType = 2
	// Indices 3 and 4 are reserved and always zero
)

// Rule adds Weight to vector[Index] for every phrase containing Term
type Rule struct {
	Index  int
	Term   string
	Weight float64
}

// DefaultRules are the built-in weighting rules
var DefaultRules = []Rule{
	{Intensity, "severe", 0.8},
	{Intensity, "moderate", 0.5},
	{Intensity, "mild", 0.2},

	{Duration, "constant", 0.9},
	{Duration, "frequent", 0.6},
	{Duration, "occasional", 0.3},

	{SymptomType, "pain", 0.7},
	{SymptomType, "fever", 0.8},
	{SymptomType, "cough", 0.5},
}

// Vectorizer maps phrases to feature vectors
type Vectorizer struct {
	rules []Rule
}

// NewVectorizer creates a vectorizer with the default rules
func NewVectorizer() *Vectorizer {
	return NewVectorizerWithRules(DefaultRules)
}

// NewVectorizerWithRules creates a vectorizer with custom rules.
// Rules pointing outside the vector are ignored.
func NewVectorizerWithRules(rules []Rule) *Vectorizer {
	kept := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Index >= 0 && r.Index < Dimension && r.Term != "" {
			kept = append(kept, r)
		}
	}
	return &Vectorizer{rules: kept}
}

// Vectorize accumulates rule weights over all phrases.
// Accumulation is deliberately unbounded: five "severe" phrases give an
// intensity of 4.0.
func (v *Vectorizer) Vectorize(phrases []string) []float64 {
	vector := make([]float64, Dimension)

	for _, phrase := range phrases {
		lower := strings.ToLower(phrase)
		for _, r := range v.rules {
			if strings.Contains(lower, r.Term) {
				vector[r.Index] += r.Weight
			}
		}
	}

	return vector
}
