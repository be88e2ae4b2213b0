package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/medlens/internal/model"
	"github.com/ppiankov/medlens/internal/pipeline"
	"github.com/ppiankov/medlens/internal/worker"
	"github.com/spf13/cobra"
)

var (
	hocrInput bool
	dateNow   string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract structured fields from an OCR'd clinical document",
	Long: `Extract runs every field extractor independently over the document
text. A field that cannot be read keeps its default; the rest are still
reported.

Files ending in .hocr, .html, .htm or .xhtml are read as hOCR; use --hocr
to force it (for example when reading stdin).

Example:
  medlens extract visit-note.txt
  medlens extract scan.hocr --json summary.json
  tesseract page.png - hocr | medlens extract - --hocr`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	addOutputFlags(extractCmd)
	extractCmd.Flags().BoolVar(&hocrInput, "hocr", false, "parse the input as hOCR markup")
	extractCmd.Flags().StringVar(&dateNow, "date-now", "", "pin the default date (YYYY-MM-DD) used when the document has none")
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	env, err := newRuntime()
	if err != nil {
		return err
	}
	defer env.close()

	if noFooter {
		env.cfg.Output.IncludeFooter = false
	}

	opts := []pipeline.Option{pipeline.WithLogger(env.logger), pipeline.WithMetrics(env.metrics)}
	if dateNow != "" {
		pinned, err := time.Parse(model.ISODate, dateNow)
		if err != nil {
			return fmt.Errorf("invalid --date-now %q: %w", dateNow, err)
		}
		opts = append(opts, pipeline.WithClock(func() time.Time { return pinned }))
	}

	p, err := pipeline.NewPipeline(env.cfg, opts...)
	if err != nil {
		return err
	}

	source := path
	if path == "-" {
		source = "stdin"
	}

	report, err := p.ExtractDocument(context.Background(), string(data), source, hocrInput || worker.IsHOCRPath(path))
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	return emit(cmd.OutOrStdout(), p, report)
}
