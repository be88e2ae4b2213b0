package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/medlens/internal/model"
	"github.com/ppiankov/medlens/internal/pipeline"
	"github.com/ppiankov/medlens/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noCache, noFooter, hocrInput and the LLM flags are shared with analyze/extract
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process many symptom descriptions or documents in parallel",
	Long: `Batch runs one pipeline over many inputs with a bounded worker pool:
- Read inputs from a file (one per line, # comments allowed)
- Process them in parallel with a configurable worker count
- Throttle with rate_limiting.requests_per_second from the config
- Write a JSON and Markdown report per input

Example:
  medlens batch symptoms descriptions.txt --output-dir ./reports
  medlens batch documents scans.txt --concurrency 8`,
}

var batchSymptomsCmd = &cobra.Command{
	Use:   "symptoms <file>",
	Short: "Analyze one symptom description per line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, model.KindSymptom, args[0])
	},
}

var batchDocumentsCmd = &cobra.Command{
	Use:   "documents <file>",
	Short: "Extract one document per line (each line is a file path)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, model.KindDocument, args[0])
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.AddCommand(batchSymptomsCmd, batchDocumentsCmd)

	// Concurrency flags
	batchCmd.PersistentFlags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers (0 = config concurrency.workers)")
	batchCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "./medlens-reports", "output directory for reports")
	batchCmd.PersistentFlags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.PersistentFlags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	batchSymptomsCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the analysis cache")
	addLLMFlags(batchSymptomsCmd)

	batchDocumentsCmd.Flags().BoolVar(&hocrInput, "hocr", false, "parse every document as hOCR markup")
}

func runBatch(cmd *cobra.Command, kind model.ReportKind, file string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()

	if err := applyFlags(cmd, env.cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		env.cfg.Concurrency.Workers = concurrency
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  medlens Batch Processing (%s)\n", kind)
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Workers:      %d\n", env.cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	if env.cfg.LLM.Provider != "" {
		fmt.Fprintf(stderr, "  LLM:          %s/%s\n", env.cfg.LLM.Provider, env.cfg.LLM.Model)
	}
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(env.cfg, pipeline.WithLogger(env.logger), pipeline.WithMetrics(env.metrics))
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, env.cfg.Concurrency.Workers,
		env.cfg.RateLimiting.RequestsPerSecond, env.cfg.RateLimiting.BurstSize).WithLogger(env.logger)

	results, err := processor.ProcessFile(ctx, kind, file, hocrInput)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	success, failures := writeBatchReports(stderr, env, results)

	// Summary
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", success)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	if success == 0 && failures > 0 {
		return fmt.Errorf("all %d inputs failed", failures)
	}
	return nil
}

func writeBatchReports(w io.Writer, env *runtimeEnv, results []*worker.JobResult) (success, failures int) {
	renderer := pipeline.NewRenderer(env.cfg.Output.IncludeFooter)

	for _, result := range results {
		if result.Error != nil {
			failures++
			fmt.Fprintf(w, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		name := reportName(result)
		jsonPath := filepath.Join(outputDir, name+".json")
		mdPath := filepath.Join(outputDir, name+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failures++
			fmt.Fprintf(w, "✗ %s: failed to write JSON: %v\n", result.Source, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failures++
			fmt.Fprintf(w, "✗ %s: failed to write Markdown: %v\n", result.Source, err)
			continue
		}

		success++
		env.logger.Debug("wrote batch report", zap.String("source", result.Source), zap.String("path", jsonPath))
		fmt.Fprintf(w, "✓ %s (%s)\n", result.Source, describe(result.Report))
	}
	return success, failures
}

// reportName numbers reports by input position so repeated inputs never collide
func reportName(result *worker.JobResult) string {
	base := string(result.Kind)
	if result.Kind == model.KindDocument {
		base = strings.TrimSuffix(filepath.Base(result.Source), filepath.Ext(result.Source))
	}
	return fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(base))
}

func describe(report *model.Report) string {
	switch {
	case report.Symptom != nil:
		return fmt.Sprintf("severity %.2f, %s, %d matches",
			report.Symptom.Result.Severity, report.Symptom.Result.UrgencyLevel, len(report.Symptom.Matches))
	case report.Document != nil:
		return fmt.Sprintf("%s, %s", report.Document.DoctorName, report.Document.Date)
	}
	return "empty"
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		s = "report"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
