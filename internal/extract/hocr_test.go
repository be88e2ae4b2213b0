package extract

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const sampleHOCR = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
 <head>
  <title></title>
  <meta name='ocr-system' content='tesseract 5.3.0' />
 </head>
 <body>
  <div class='ocr_page' id='page_1' title='bbox 0 0 1240 1754'>
   <div class='ocr_carea' id='block_1_1'>
    <p class='ocr_par' id='par_1_1'>
     <span class='ocr_line' id='line_1_1'>
      <span class='ocrx_word' id='word_1_1'>Dr.</span>
      <span class='ocrx_word' id='word_1_2'>Patel</span>
      <span class='ocrx_word' id='word_1_3'>04/05/2024</span>
     </span>
     <span class='ocr_line' id='line_1_2'>
      <span class='ocrx_word' id='word_1_4'>Diagnosis:</span>
      <span class='ocrx_word' id='word_1_5'>Mild</span>
      <span class='ocrx_word' id='word_1_6'>viral</span>
      <span class='ocrx_word' id='word_1_7'>infection</span>
     </span>
     <span class='ocr_line' id='line_1_3'>
      <span class='ocrx_word' id='word_1_8'>Medication:</span>
      <span class='ocrx_word' id='word_1_9'>Paracetamol</span>
      <span class='ocrx_word' id='word_1_10'>500mg</span>
     </span>
    </p>
   </div>
  </div>
 </body>
</html>`

func TestHOCRText_LinePerOCRLine(t *testing.T) {
	text, err := HOCRText(sampleHOCR)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	lines := strings.Split(text, "\n")
	want := []string{
		"Dr. Patel 04/05/2024",
		"Diagnosis: Mild viral infection",
		"Medication: Paracetamol 500mg",
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected '%s', got '%s'", i, want[i], lines[i])
		}
	}
}

func TestExtractHOCR(t *testing.T) {
	summary, errs, err := newTestExtractor().ExtractHOCR(sampleHOCR)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("Expected no field errors, got %v", errs)
	}

	if summary.DoctorName != "Dr. Patel" {
		t.Errorf("Expected 'Dr. Patel', got '%s'", summary.DoctorName)
	}
	if summary.Date != "04/05/2024" {
		t.Errorf("Expected '04/05/2024', got '%s'", summary.Date)
	}
	if summary.Diagnosis != "Mild viral infection" {
		t.Errorf("Expected 'Mild viral infection', got '%s'", summary.Diagnosis)
	}
	if len(summary.Medications) != 1 || summary.Medications[0] != "Paracetamol 500mg" {
		t.Errorf("Expected one medication line, got %q", summary.Medications)
	}
}

func TestExtractVisibleText_SkipInvisibleElements(t *testing.T) {
	markup := `
	<html>
	<head>
		<title>scan.png</title>
		<script>var x = "script content";</script>
		<style>body { color: red; }</style>
	</head>
	<body>
		<p>Visible paragraph text.</p>
		<noscript>Noscript content</noscript>
		<iframe src="example.com">Iframe content</iframe>
		<p>Another<br>visible paragraph.</p>
	</body>
	</html>
	`

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}

	text := extractVisibleText(doc)

	if !strings.Contains(text, "Visible paragraph text.") {
		t.Error("Expected to extract visible paragraph text")
	}
	if !strings.Contains(text, "Another\nvisible paragraph.") {
		t.Errorf("Expected <br> to break the line, got %q", text)
	}

	for _, hidden := range []string{"scan.png", "script content", "color: red", "Noscript content", "Iframe content"} {
		if strings.Contains(text, hidden) {
			t.Errorf("Should not extract %q", hidden)
		}
	}
}

func TestHOCRText_Empty(t *testing.T) {
	text, err := HOCRText("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "" {
		t.Errorf("Expected empty text, got %q", text)
	}
}
