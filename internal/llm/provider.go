package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/medlens/internal/model"
	"go.uber.org/zap"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a plain-language narrative of a report
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the analysis to narrate
	Report model.Report

	// AllowedConditions is the strict allowlist of condition names the
	// narrative may mention: exactly those present in the report
	AllowedConditions []string

	// KnownConditions are all condition names the dictionaries know about.
	// A narrative naming one of these outside the allowlist is rejected.
	KnownConditions []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's narrative
type SummarizeResponse struct {
	// Summary is the generated narrative
	Summary string

	// MentionedConditions are the known conditions the narrative names
	MentionedConditions []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for custom endpoints (Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictConditions enforces the condition allowlist
	StrictConditions bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	// Logger receives availability diagnostics (nil = discard)
	Logger *zap.Logger
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// timeout returns the request timeout, or def when unset
func (c Config) timeout(def time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return def
	}
	return time.Duration(c.Timeout) * time.Second
}

// maxTokens resolves the token limit for a request
func (c Config) maxTokens(req SummarizeRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 600
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:         "",
		Model:            "",
		Timeout:          30,
		StrictConditions: true,
		MaxTokens:        600,
	}
}

// systemPrompt is shared by all providers
const systemPrompt = "You explain automated symptom and document analyses in plain language. " +
	"You never diagnose and never name conditions that are not in the analysis."

// maxPromptConditions caps the allowlist printed in the prompt
const maxPromptConditions = 20

// BuildPrompt constructs the default prompt for a report
func BuildPrompt(report model.Report, allowedConditions []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are summarizing a medlens analysis. medlens matches described symptoms against fixed dictionaries - it NEVER diagnoses.

CRITICAL RULES:
1. You MUST ONLY mention conditions from this allowed list:
%s

2. DO NOT suggest, infer or name any other condition or disease.
3. DO NOT add treatments, doses or advice beyond the listed recommendations.
4. If the analysis found nothing, say so plainly.
5. Never say the person "has" a condition - only describe what the analysis matched.

`, joinConditions(allowedConditions))

	switch {
	case report.Symptom != nil:
		writeSymptomFacts(&b, report.Symptom)
	case report.Document != nil:
		writeDocumentFacts(&b, report.Document)
	default:
		b.WriteString("Analysis: (empty)\n")
	}

	b.WriteString("\nProvide a 3-4 sentence plain-language summary and end by recommending a healthcare provider.")

	return b.String()
}

func writeSymptomFacts(b *strings.Builder, s *model.SymptomAnalysis) {
	fmt.Fprintf(b, "Symptom Analysis:\n- Severity: %.2f (urgency: %s)\n", s.Result.Severity, s.Result.UrgencyLevel)
	if s.UsedFallback {
		b.WriteString("- Matching: keyword fallback\n")
	} else {
		b.WriteString("- Matching: condition patterns\n")
	}

	fmt.Fprintf(b, "- Matches: %d\n", len(s.Matches))
	for _, m := range s.Matches {
		fmt.Fprintf(b, "  - %s (severity %d/5; related: %s)\n", m.Symptom, m.Severity, strings.Join(m.RelatedConditions, ", "))
	}

	if len(s.Recommendations) > 0 {
		b.WriteString("- Recommendations:\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(b, "  - %s\n", r)
		}
	}
}

func writeDocumentFacts(b *strings.Builder, d *model.ExtractedSummary) {
	b.WriteString("Document Extraction:\n")
	fmt.Fprintf(b, "- Doctor: %s\n- Date: %s\n", d.DoctorName, d.Date)
	if d.Diagnosis != "" {
		fmt.Fprintf(b, "- Diagnosis (as written): %s\n", d.Diagnosis)
	}
	for _, m := range d.Medications {
		fmt.Fprintf(b, "- Medication: %s\n", m)
	}
	if d.FollowUp != "" {
		fmt.Fprintf(b, "- Follow-up: %s\n", d.FollowUp)
	}
}

// Helper functions

func joinConditions(conditions []string) string {
	if len(conditions) == 0 {
		return "(No conditions identified)"
	}
	var b strings.Builder
	for i, c := range conditions {
		if i >= maxPromptConditions {
			fmt.Fprintf(&b, "\n... and %d more conditions", len(conditions)-maxPromptConditions)
			break
		}
		fmt.Fprintf(&b, "\n- %s", c)
	}
	return b.String()
}

// mentionedConditions returns the known conditions named in text,
// matched case-insensitively on word boundaries, in the order given
func mentionedConditions(text string, known []string) []string {
	var mentioned []string
	seen := make(map[string]bool)
	for _, name := range known {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(key) + `\b`)
		if re.MatchString(text) {
			mentioned = append(mentioned, name)
		}
	}
	return mentioned
}

// verifyConditions checks a narrative against the allowlist. It returns
// the mentioned conditions, or an error naming the first leaked one.
func verifyConditions(summary string, req SummarizeRequest, strict bool) ([]string, error) {
	known := append(append([]string{}, req.AllowedConditions...), req.KnownConditions...)
	mentioned := mentionedConditions(summary, known)

	if strict {
		for _, name := range mentioned {
			if !containsFold(req.AllowedConditions, name) {
				return nil, fmt.Errorf("CONDITION LEAK: LLM named a condition not in the analysis: %s", name)
			}
		}
	}

	return mentioned, nil
}

// containsFold checks if a slice contains a string, ignoring case
func containsFold(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(item)) {
			return true
		}
	}
	return false
}
