// Package nlp extracts candidate symptom phrases from free text.
package nlp

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"
)

// Tagger extracts lower-cased candidate symptom phrases from text.
// Implementations never fail: unusable input yields an empty slice.
type Tagger interface {
	Tag(text string) []string
}

// TaggerFunc adapts a function to the Tagger interface
type TaggerFunc func(text string) []string

// Tag calls f(text)
func (f TaggerFunc) Tag(text string) []string {
	return f(text)
}

// ProseTagger tags text with a part-of-speech model and keeps
// adjective+noun pairs
type ProseTagger struct {
	logger *zap.Logger
}

// NewProseTagger creates a new POS-based tagger
func NewProseTagger(logger *zap.Logger) *ProseTagger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProseTagger{logger: logger}
}

// Tag returns adjective+noun phrases in document order
func (t *ProseTagger) Tag(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return []string{}
	}

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		t.logger.Warn("pos tagging failed", zap.Error(err))
		return []string{}
	}

	tokens := doc.Tokens()
	words := make([]TaggedWord, len(tokens))
	for i, tok := range tokens {
		words[i] = TaggedWord{Text: tok.Text, Tag: tok.Tag}
	}

	return AdjectiveNounPhrases(words)
}

// TaggedWord is a token with its Penn Treebank tag
type TaggedWord struct {
	Text string
	Tag  string
}

// AdjectiveNounPhrases returns non-overlapping adjective+noun pairs,
// scanning left to right
func AdjectiveNounPhrases(words []TaggedWord) []string {
	phrases := []string{}

	for i := 0; i+1 < len(words); i++ {
		if isAdjective(words[i].Tag) && isNoun(words[i+1].Tag) {
			phrases = append(phrases, strings.ToLower(words[i].Text+" "+words[i+1].Text))
			i++ // Skip the noun so matches never overlap
		}
	}

	return phrases
}

// isAdjective matches JJ, JJR, JJS
func isAdjective(tag string) bool {
	return strings.HasPrefix(tag, "JJ")
}

// isNoun matches NN, NNS, NNP, NNPS
func isNoun(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}
