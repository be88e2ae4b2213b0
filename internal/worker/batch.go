package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/medlens/internal/model"
	"go.uber.org/zap"
)

// Analyzer runs the two pipelines for one input
type Analyzer interface {
	AnalyzeSymptoms(ctx context.Context, text, source string) (*model.Report, error)
	ExtractDocument(ctx context.Context, text, source string, hocr bool) (*model.Report, error)
}

// AnalysisJob is one symptom description or one document file
type AnalysisJob struct {
	Index    int
	Kind     model.ReportKind
	Input    string // Description text, or document path
	HOCR     bool   // Force hOCR parsing for documents
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute runs the job through the matching pipeline
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	start := time.Now()
	result := &JobResult{Index: j.Index, Kind: j.Kind, Source: j.source()}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, string(j.Kind)); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	switch j.Kind {
	case model.KindSymptom:
		result.Report, result.Error = j.Analyzer.AnalyzeSymptoms(ctx, j.Input, result.Source)
	case model.KindDocument:
		result.Report, result.Error = j.extractFile(ctx)
	default:
		result.Error = fmt.Errorf("unknown job kind %q", j.Kind)
	}

	result.Duration = time.Since(start)
	return result
}

// Fail reports a job that could not complete
func (j *AnalysisJob) Fail(err error) Result {
	return &JobResult{Index: j.Index, Kind: j.Kind, Source: j.source(), Error: err}
}

func (j *AnalysisJob) source() string {
	if j.Kind == model.KindDocument {
		return j.Input
	}
	return fmt.Sprintf("line %d", j.Index+1)
}

func (j *AnalysisJob) extractFile(ctx context.Context) (*model.Report, error) {
	data, err := os.ReadFile(j.Input)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return j.Analyzer.ExtractDocument(ctx, string(data), j.Input, j.HOCR || IsHOCRPath(j.Input))
}

// IsHOCRPath reports whether a file name looks like hOCR output
func IsHOCRPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hocr", ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

// JobResult represents the result of one batch job
type JobResult struct {
	Index    int
	Kind     model.ReportKind
	Source   string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the error from the job result
func (r *JobResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many analyses with bounded concurrency
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	logger      *zap.Logger
}

// NewBatchProcessor creates a batch processor. A non-positive rate
// disables throttling.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
		logger:      zap.NewNop(),
	}
}

// WithLogger sets the logger used for per-job progress
func (b *BatchProcessor) WithLogger(logger *zap.Logger) *BatchProcessor {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// ProcessSymptoms analyzes each description; results follow input order
func (b *BatchProcessor) ProcessSymptoms(ctx context.Context, descriptions []string) []*JobResult {
	jobs := make([]*AnalysisJob, len(descriptions))
	for i, text := range descriptions {
		jobs[i] = &AnalysisJob{Index: i, Kind: model.KindSymptom, Input: text}
	}
	return b.run(ctx, jobs)
}

// ProcessDocuments extracts each document file; results follow input order
func (b *BatchProcessor) ProcessDocuments(ctx context.Context, paths []string, hocr bool) []*JobResult {
	jobs := make([]*AnalysisJob, len(paths))
	for i, path := range paths {
		jobs[i] = &AnalysisJob{Index: i, Kind: model.KindDocument, Input: path, HOCR: hocr}
	}
	return b.run(ctx, jobs)
}

// ProcessFile reads inputs from a file (one per line) and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, kind model.ReportKind, filePath string, hocr bool) ([]*JobResult, error) {
	// Repeated descriptions are separate cases; repeated paths are not
	lines, err := ReadLinesFromFile(filePath, kind == model.KindDocument)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	switch kind {
	case model.KindSymptom:
		return b.ProcessSymptoms(ctx, lines), nil
	case model.KindDocument:
		return b.ProcessDocuments(ctx, lines, hocr), nil
	default:
		return nil, fmt.Errorf("unknown batch kind %q", kind)
	}
}

func (b *BatchProcessor) run(ctx context.Context, jobs []*AnalysisJob) []*JobResult {
	if len(jobs) == 0 {
		return []*JobResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := make([]bool, len(jobs))
	for i, job := range jobs {
		job.Analyzer = b.analyzer
		job.Limiter = b.limiter
		submitted[i] = pool.Submit(job)
	}

	results := pool.Wait()

	out := make([]*JobResult, 0, len(jobs))
	seen := make([]bool, len(jobs))
	for _, r := range results {
		jr := r.(*JobResult)
		seen[jr.Index] = true
		out = append(out, jr)

		if jr.Error != nil {
			b.logger.Warn("batch job failed",
				zap.String("kind", string(jr.Kind)),
				zap.String("source", jr.Source),
				zap.Error(jr.Error))
		} else {
			b.logger.Debug("batch job done",
				zap.String("kind", string(jr.Kind)),
				zap.String("source", jr.Source),
				zap.Duration("duration", jr.Duration))
		}
	}

	// Jobs dropped by cancellation still get a result
	for i, job := range jobs {
		if !seen[i] {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("job not run")
			}
			if !submitted[i] {
				err = fmt.Errorf("not submitted: %w", err)
			}
			out = append(out, job.Fail(err).(*JobResult))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ReadLinesFromFile reads non-empty, non-comment lines, optionally
// dropping repeats
func ReadLinesFromFile(filePath string, dedupe bool) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if dedupe {
			if seen[line] {
				continue
			}
			seen[line] = true
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
