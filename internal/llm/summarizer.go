package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/medlens/internal/model"
)

// Summarizer generates optional LLM narratives for finished reports
type Summarizer struct {
	provider Provider
	config   Config
	known    []string
}

// NewSummarizer creates a summarizer. An empty provider disables it.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		provider: provider,
		config:   config,
	}, nil
}

// WithKnownConditions sets the dictionary condition names a narrative is
// checked against
func (s *Summarizer) WithKnownConditions(names []string) *Summarizer {
	s.known = append([]string(nil), names...)
	return s
}

// IsEnabled returns true if LLM summarization is enabled
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the name of the configured provider
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary narrates a report. Provider failures never fail the
// analysis: they come back as warnings on the summary.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Enabled:          true,
		Provider:         s.provider.Name(),
		Model:            s.config.Model,
		StrictConditions: s.config.StrictConditions,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Enabled = false
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available", s.provider.Name()))
		return summary, nil
	}

	allowed := report.AllowedConditions()
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:            report,
		AllowedConditions: allowed,
		KnownConditions:   s.known,
		Model:             s.config.Model,
		MaxTokens:         s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary generation failed: %v", err))
		return summary, nil
	}

	summary.SummaryMD = resp.Summary
	if resp.Model != "" {
		summary.Model = resp.Model
	}

	if resp.TokensUsed > 0 {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}
	if s.config.StrictConditions {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d condition mentions against the analysis", len(resp.MentionedConditions)))
	}

	return summary, nil
}

// RenderSeparateMarkdown renders the narrative as its own document, apart
// from the analysis report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder

	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT**: this narrative was written by a language model from the analysis below. ")
	b.WriteString("It is not a diagnosis.\n\n")

	fmt.Fprintf(&b, "- **Provider**: %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Condition Mode**: %t\n\n", summary.StrictConditions)

	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString("_Severity, matches and recommendations were determined independently of this narrative._\n")

	return b.String()
}
