package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/medlens/internal/model"
	"github.com/ppiankov/medlens/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a free-text symptom description",
	Long: `Analyze runs the symptom pipeline on one description:
- Tag candidate symptom phrases
- Estimate severity and urgency
- Rank dictionary conditions by pattern coverage
- Fall back to keyword matching when nothing ranks
- Attach advisory text

The description is taken from the arguments, or from stdin when none
are given.

Example:
  medlens analyze "severe headache and some fever for two days"
  echo "dry cough and fatigue" | medlens analyze --json -
  medlens analyze "chest tightness" --md report.md --llm --llm-provider ollama --llm-model llama3.1:8b`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addOutputFlags(analyzeCmd)
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout (includes the LLM call)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the analysis cache")
	addLLMFlags(analyzeCmd)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outJSON, "json", "", "write the JSON report to this path (- for stdout)")
	cmd.Flags().StringVar(&outMD, "md", "", "write the Markdown report to this path")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM narrative generation")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

// applyFlags layers command flags over the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) error {
	if cmd.Flags().Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	if !llmEnabled {
		// The narrative is opt-in per run
		cfg.LLM.Provider = ""
		return nil
	}

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.LLM.StrictConditions = true // Always enforce

	if llmProvider == "openai" && cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, source, err := readDescription(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()

	if err := applyFlags(cmd, env.cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p, err := pipeline.NewPipeline(env.cfg, pipeline.WithLogger(env.logger), pipeline.WithMetrics(env.metrics))
	if err != nil {
		return err
	}

	report, err := p.AnalyzeSymptoms(ctx, text, source)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if report.LLM != nil && report.LLM.Enabled {
		env.logger.Info("generated LLM summary",
			zap.String("provider", report.LLM.Provider),
			zap.String("model", report.LLM.Model))
	}

	return emit(cmd.OutOrStdout(), p, report)
}

// emit renders a report. "--json -" replaces the terminal summary.
func emit(w io.Writer, p *pipeline.Pipeline, report *model.Report) error {
	if outJSON == "-" {
		if err := pipeline.NewRenderer(false).WriteJSON(w, report); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if err := p.RenderReport(report, "", outMD, nil); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		return nil
	}

	if err := p.RenderReport(report, outJSON, outMD, w); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

func readDescription(args []string, stdin io.Reader) (string, string, error) {
	if len(args) > 0 {
		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			return "", "", fmt.Errorf("empty symptom description")
		}
		return text, "arg", nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", "", fmt.Errorf("no symptom description given (pass text or pipe it on stdin)")
	}
	return text, "stdin", nil
}

// readInput reads a file, or stdin for "-"
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
