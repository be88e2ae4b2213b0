// Package extract pulls structured fields out of OCR'd clinical documents.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/medlens/internal/model"
	"go.uber.org/zap"
)

var (
	doctorPattern    = regexp.MustCompile(`(?:Dr\.|Doctor)[ \t]+[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)?`)
	datePattern      = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{4}\b`)
	diagnosisPattern = regexp.MustCompile(`(?i)\b(?:diagnosis|assessment|impression)[ \t]*:[ \t]*([^.!?\n]+)`)
	medicationRegexp = regexp.MustCompile(`(?im)\b(?:(?:medications?|drugs?)[ \t]*:|(?:prescribed|rx)\b[ \t]*:?)[ \t]*([^\s:][^\n]*?)[ \t]*(?:\.(?:[ \t]|$)|$)`)

	heightPattern    = regexp.MustCompile(`(?i)\b(?:height|ht)\b[ \t]*[:=-]?[ \t]*(\d+(?:\.\d+)?(?:[ \t]*(?:cm|m|in|ft))?)`)
	weightPattern    = regexp.MustCompile(`(?i)\b(?:weight|wt)\b[ \t]*[:=-]?[ \t]*(\d+(?:\.\d+)?(?:[ \t]*(?:kgs|kg|lbs|lb))?)`)
	bmiPattern       = regexp.MustCompile(`(?i)\bbmi\b[ \t]*[:=-]?[ \t]*(\d+(?:\.\d+)?)`)
	bpPattern        = regexp.MustCompile(`(?i)\b(?:bp|blood pressure)\b[ \t]*[:=-]?[ \t]*(\d{2,3}[ \t]*/[ \t]*\d{2,3}(?:[ \t]*mmhg)?)`)
	complaintPattern = regexp.MustCompile(`(?i)\b(?:chief complaints?|presenting complaints?|complaints?|c/o)[ \t]*:[ \t]*([^.!?\n]+)`)
	advicePattern    = regexp.MustCompile(`(?i)\b(?:advice|advised|recommendations?|instructions?)[ \t]*:[ \t]*([^.!?\n]+)`)
	followUpPattern  = regexp.MustCompile(`(?i)\bfollow[ -]?up\b[^\n\d]{0,30}?(\d{1,2}[-/]\d{1,2}[-/]\d{4}|\d+[ \t]*(?:days?|weeks?|months?))`)
)

// minFindingLength is the exclusive minimum length of a key finding
const minFindingLength = 10

// FieldError records a field extractor that failed; the field kept its default
type FieldError struct {
	Field string
	Cause interface{}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Field, e.Cause)
}

// fieldExtractor computes one field and writes it into the summary.
// It must only write after the value is fully computed.
type fieldExtractor struct {
	name  string
	apply func(text string, s *model.ExtractedSummary)
}

// DocumentExtractor extracts an ExtractedSummary from raw OCR text
type DocumentExtractor struct {
	now    func() time.Time
	logger *zap.Logger
	fields []fieldExtractor
}

// NewDocumentExtractor creates an extractor. A nil clock uses time.Now,
// a nil logger discards output.
func NewDocumentExtractor(logger *zap.Logger, now func() time.Time) *DocumentExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}

	return &DocumentExtractor{
		now:    now,
		logger: logger,
		fields: []fieldExtractor{
			{"doctor_name", extractDoctor},
			{"date", extractDate},
			{"diagnosis", extractDiagnosis},
			{"medications", extractMedications},
			{"key_findings", extractKeyFindings},
			{"vitals", extractVitals},
			{"complaints", extractComplaints},
			{"advice", extractAdvice},
			{"follow_up", extractFollowUp},
		},
	}
}

// Extract runs every field extractor independently. A failing extractor
// leaves its field at the default and is reported in the returned errors.
func (e *DocumentExtractor) Extract(text string) (model.ExtractedSummary, []*FieldError) {
	summary := model.ExtractedSummary{
		DoctorName:  model.UnknownDoctor,
		Date:        e.now().Format(model.ISODate),
		Medications: []string{},
		KeyFindings: []string{},
	}

	var errs []*FieldError
	for _, f := range e.fields {
		if err := e.run(f, text, &summary); err != nil {
			e.logger.Warn("field extraction failed",
				zap.String("field", err.Field),
				zap.Any("cause", err.Cause))
			errs = append(errs, err)
		}
	}

	return summary, errs
}

func (e *DocumentExtractor) run(f fieldExtractor, text string, s *model.ExtractedSummary) (ferr *FieldError) {
	defer func() {
		if r := recover(); r != nil {
			ferr = &FieldError{Field: f.name, Cause: r}
		}
	}()
	f.apply(text, s)
	return nil
}

func extractDoctor(text string, s *model.ExtractedSummary) {
	if m := doctorPattern.FindString(text); m != "" {
		s.DoctorName = collapseSpaces(m)
	}
}

func extractDate(text string, s *model.ExtractedSummary) {
	if m := datePattern.FindString(text); m != "" {
		s.Date = m
		s.DateFound = true
	}
}

func extractDiagnosis(text string, s *model.ExtractedSummary) {
	s.Diagnosis = firstGroup(diagnosisPattern, text)
}

func extractMedications(text string, s *model.ExtractedSummary) {
	meds := []string{}
	for _, m := range medicationRegexp.FindAllStringSubmatch(text, -1) {
		med := strings.TrimSpace(strings.TrimRight(m[1], "."))
		if med != "" {
			meds = append(meds, med)
		}
	}
	s.Medications = meds
}

func extractKeyFindings(text string, s *model.ExtractedSummary) {
	findings := []string{}
	for _, sentence := range splitSentences(text) {
		if len(findings) == model.MaxKeyFindings {
			break
		}
		line := strings.TrimSpace(strings.TrimRight(sentence, ".!?"))
		if utf8.RuneCountInString(line) <= minFindingLength {
			continue
		}
		first, _ := utf8.DecodeRuneInString(line)
		if strings.Contains(line, ":") || unicode.IsUpper(first) {
			findings = append(findings, line)
		}
	}
	s.KeyFindings = findings
}

func extractVitals(text string, s *model.ExtractedSummary) {
	v := model.Vitals{
		Height:        firstGroup(heightPattern, text),
		Weight:        firstGroup(weightPattern, text),
		BMI:           firstGroup(bmiPattern, text),
		BloodPressure: firstGroup(bpPattern, text),
	}
	if !v.IsEmpty() {
		s.Vitals = &v
	}
}

func extractComplaints(text string, s *model.ExtractedSummary) {
	s.Complaints = firstGroup(complaintPattern, text)
}

func extractAdvice(text string, s *model.ExtractedSummary) {
	s.Advice = firstGroup(advicePattern, text)
}

func extractFollowUp(text string, s *model.ExtractedSummary) {
	s.FollowUp = firstGroup(followUpPattern, text)
}

// firstGroup returns the trimmed first capture group of the first match
func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return collapseSpaces(m[1])
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitSentences splits text on newlines and on sentence terminators that
// are followed by whitespace, so decimals like "2.5mg" stay intact
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}

		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n' || text[i+1] == '\r' {
				flush()
			}
		}
	}
	flush()

	return sentences
}
