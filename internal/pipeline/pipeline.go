package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/medlens/internal/advise"
	"github.com/ppiankov/medlens/internal/cache"
	"github.com/ppiankov/medlens/internal/classify"
	"github.com/ppiankov/medlens/internal/dictionary"
	"github.com/ppiankov/medlens/internal/extract"
	"github.com/ppiankov/medlens/internal/features"
	"github.com/ppiankov/medlens/internal/llm"
	"github.com/ppiankov/medlens/internal/match"
	"github.com/ppiankov/medlens/internal/metrics"
	"github.com/ppiankov/medlens/internal/model"
	"github.com/ppiankov/medlens/internal/nlp"
	"go.uber.org/zap"
)

// Pipeline orchestrates the symptom and document pipelines
type Pipeline struct {
	tagger     nlp.Tagger
	vectorizer *features.Vectorizer
	scorer     classify.Scorer
	conditions *match.ConditionMatcher
	assembler  *match.Assembler
	advisor    *advise.Engine
	extractor  *extract.DocumentExtractor

	cache       cache.Cache
	cacheTag    string
	fingerprint string
	substituted bool // tagger or scorer replaced by an option
	metrics     *metrics.Collector
	summarizer  *llm.Summarizer // nil if disabled
	logger      *zap.Logger
	now         func() time.Time
	config      *model.Config
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger passed to every component
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics records pipeline activity on c
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithTagger replaces the POS tagger. Caching is off unless WithCacheTag
// names the replacement.
func WithTagger(t nlp.Tagger) Option {
	return func(p *Pipeline) {
		p.tagger = t
		p.substituted = true
	}
}

// WithScorer replaces the severity classifier. Caching is off unless
// WithCacheTag names the replacement.
func WithScorer(s classify.Scorer) Option {
	return func(p *Pipeline) {
		p.scorer = s
		p.substituted = true
	}
}

// WithCacheTag adds tag to the cache fingerprint so analyses from replaced
// stages never share entries with the built-in ones
func WithCacheTag(tag string) Option {
	return func(p *Pipeline) { p.cacheTag = tag }
}

// WithClock pins the clock used for report timestamps and default
// document dates
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCache replaces the configured analysis cache (nil disables caching)
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithSummarizer replaces the configured LLM summarizer
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// NewPipeline wires every component from cfg
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		logger: zap.NewNop(),
		now:    time.Now,
		config: cfg,
		cache:  cache.New(cfg.Cache),
	}
	for _, opt := range opts {
		opt(p)
	}

	dict := dictionary.Default()
	if cfg.Dictionary.Path != "" {
		d, err := dictionary.Load(cfg.Dictionary.Path)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		dict = d
	}

	if p.tagger == nil {
		p.tagger = nlp.NewProseTagger(p.logger)
	}
	if p.scorer == nil {
		p.scorer = classify.NewLazy(classify.LoaderFromConfig(cfg.Classifier))
	}

	p.vectorizer = features.NewVectorizer()
	p.conditions = match.NewConditionMatcher(dict.Conditions)
	p.assembler = match.NewAssembler(match.NewFallbackMatcher(dict.Symptoms))
	p.advisor = advise.NewEngine(dict.Advice)
	p.extractor = extract.NewDocumentExtractor(p.logger, p.now)

	fp, err := fingerprint(dict, cfg.Classifier)
	if err != nil {
		return nil, err
	}
	if p.cacheTag != "" {
		fp += "|tag=" + p.cacheTag
	}
	p.fingerprint = fp

	if p.substituted && p.cacheTag == "" && p.cache != nil {
		p.logger.Debug("analysis cache disabled for untagged tagger or scorer")
		p.cache = nil
	}

	if p.summarizer == nil && cfg.LLM.Provider != "" {
		llmConfig := llm.ConfigFromModel(cfg.LLM)
		llmConfig.Logger = p.logger
		s, err := llm.NewSummarizer(llmConfig)
		if err != nil {
			// The narrative is optional; analyses run without it
			p.logger.Warn("failed to initialize LLM provider", zap.Error(err))
		} else {
			p.summarizer = s.WithKnownConditions(dict.ConditionNames())
		}
	}

	return p, nil
}

// fingerprint identifies everything besides the input text that an
// analysis depends on
func fingerprint(dict *dictionary.Dictionary, cfg model.ClassifierConfig) (string, error) {
	data, err := dict.Marshal()
	if err != nil {
		return "", fmt.Errorf("fingerprint dictionary: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s|seed=%d|params=%s", hex.EncodeToString(sum[:8]), cfg.Seed, cfg.ParamsPath), nil
}

// AnalyzeSymptoms runs the symptom pipeline on one free-text description
func (p *Pipeline) AnalyzeSymptoms(ctx context.Context, text, source string) (*model.Report, error) {
	start := time.Now()
	log := p.logger.With(zap.String("kind", string(model.KindSymptom)), zap.String("source", source))

	analysis, cached, err := p.analyze(ctx, text, log)
	p.metrics.ObserveAnalysis(string(model.KindSymptom), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	report := p.newReport(model.KindSymptom, source)
	report.Cached = cached
	report.Symptom = analysis

	log.Info("symptom analysis complete",
		zap.Float64("severity", analysis.Result.Severity),
		zap.String("urgency", string(analysis.Result.UrgencyLevel)),
		zap.Int("matches", len(analysis.Matches)),
		zap.Bool("fallback", analysis.UsedFallback),
		zap.Bool("cached", cached))

	// The narrative is generated after the analysis and never changes it
	p.attachSummary(ctx, report)

	return report, nil
}

func (p *Pipeline) analyze(ctx context.Context, text string, log *zap.Logger) (*model.SymptomAnalysis, bool, error) {
	key := cache.CacheKey(p.fingerprint, text)
	if analysis, ok := p.lookup(key, log); ok {
		return analysis, true, nil
	}

	phrases := p.tagger.Tag(text)
	if phrases == nil {
		phrases = []string{}
	}
	vector := p.vectorizer.Vectorize(phrases)

	severity, urgency, err := classify.Classify(ctx, p.scorer, vector)
	if err != nil {
		p.metrics.ClassifierError()
		return nil, false, fmt.Errorf("classify: %w", err)
	}

	predictions := p.conditions.Match(phrases)
	matches, usedFallback := p.assembler.Assemble(text, severity, predictions)
	if usedFallback {
		p.metrics.Fallback()
		log.Debug("primary matcher found nothing, used keyword fallback", zap.Int("matches", len(matches)))
	}

	analysis := &model.SymptomAnalysis{
		Phrases:  phrases,
		Features: vector,
		Result: model.AnalysisResult{
			PredictedConditions: predictions,
			Severity:            severity,
			UrgencyLevel:        urgency,
		},
		Matches:         matches,
		Recommendations: p.advisor.Recommend(matches),
		UsedFallback:    usedFallback,
	}

	p.store(key, analysis, log)
	return analysis, false, nil
}

// lookup returns a cached analysis. Cache failures only cost a recompute.
func (p *Pipeline) lookup(key string, log *zap.Logger) (*model.SymptomAnalysis, bool) {
	if p.cache == nil {
		return nil, false
	}

	data, found := p.cache.Get(key)
	p.metrics.CacheResult(found)
	if !found {
		return nil, false
	}

	var analysis model.SymptomAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		log.Warn("discarding unreadable cache entry", zap.Error(err))
		_ = p.cache.Delete(key)
		return nil, false
	}
	return &analysis, true
}

func (p *Pipeline) store(key string, analysis *model.SymptomAnalysis, log *zap.Logger) {
	if p.cache == nil {
		return
	}

	data, err := json.Marshal(analysis)
	if err != nil {
		log.Warn("failed to encode analysis for cache", zap.Error(err))
		return
	}
	if err := p.cache.Set(key, data, 0); err != nil {
		log.Warn("failed to cache analysis", zap.Error(err))
	}
}

func (p *Pipeline) attachSummary(ctx context.Context, report *model.Report) {
	if !p.summarizer.IsEnabled() {
		return
	}

	summary, err := p.summarizer.GenerateSummary(ctx, *report)
	if err != nil {
		p.logger.Warn("LLM summary generation failed", zap.Error(err))
		return
	}
	for _, w := range summary.Warnings {
		if strings.Contains(w, "failed") || strings.Contains(w, "not available") {
			p.logger.Warn("LLM summary degraded", zap.String("warning", w))
		}
	}
	report.LLM = summary
}

// ExtractDocument runs the document pipeline on OCR text or hOCR markup
func (p *Pipeline) ExtractDocument(ctx context.Context, text, source string, hocr bool) (*model.Report, error) {
	start := time.Now()
	log := p.logger.With(zap.String("kind", string(model.KindDocument)), zap.String("source", source))

	var (
		summary model.ExtractedSummary
		failed  []*extract.FieldError
		err     error
	)
	if hocr {
		summary, failed, err = p.extractor.ExtractHOCR(text)
	} else {
		summary, failed = p.extractor.Extract(text)
	}
	if err == nil {
		err = ctx.Err()
	}
	p.metrics.ObserveAnalysis(string(model.KindDocument), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("extract document: %w", err)
	}

	for _, f := range failed {
		p.metrics.FieldError(f.Field)
	}
	for _, field := range foundFields(summary) {
		p.metrics.FieldHit(field)
	}

	report := p.newReport(model.KindDocument, source)
	report.Document = &summary

	log.Info("document extraction complete",
		zap.String("doctor", summary.DoctorName),
		zap.Bool("date_found", summary.DateFound),
		zap.Int("medications", len(summary.Medications)),
		zap.Int("field_errors", len(failed)))

	return report, nil
}

// foundFields lists the fields a document actually supplied
func foundFields(s model.ExtractedSummary) []string {
	var fields []string
	add := func(name string, ok bool) {
		if ok {
			fields = append(fields, name)
		}
	}

	add("doctor_name", s.DoctorName != model.UnknownDoctor)
	add("date", s.DateFound)
	add("diagnosis", s.Diagnosis != "")
	add("medications", len(s.Medications) > 0)
	add("key_findings", len(s.KeyFindings) > 0)
	add("vitals", s.Vitals != nil)
	add("complaints", s.Complaints != "")
	add("advice", s.Advice != "")
	add("follow_up", s.FollowUp != "")
	return fields
}

func (p *Pipeline) newReport(kind model.ReportKind, source string) *model.Report {
	return &model.Report{
		ID:         uuid.NewString(),
		Kind:       kind,
		Source:     source,
		AnalyzedAt: p.now().UTC(),
		Disclaimer: model.Disclaimer,
	}
}

// RenderReport writes the report to the requested outputs and prints a
// summary to w
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, w io.Writer) error {
	renderer := NewRenderer(p.config.Output.IncludeFooter)

	if jsonPath != "" {
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.logger.Info("wrote JSON report", zap.String("path", jsonPath))
	}

	if mdPath != "" {
		if err := renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.logger.Info("wrote Markdown report", zap.String("path", mdPath))

		// The LLM narrative goes next to the report, never inside it
		if report.LLM != nil && report.LLM.Enabled {
			llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
			if err := renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
				p.logger.Warn("failed to write LLM summary", zap.String("path", llmPath), zap.Error(err))
			} else {
				p.logger.Info("wrote LLM summary", zap.String("path", llmPath))
			}
		}
	}

	if w != nil {
		renderer.RenderSummary(w, report)
	}
	return nil
}
