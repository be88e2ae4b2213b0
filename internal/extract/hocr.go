package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/medlens/internal/model"
	"golang.org/x/net/html"
)

// hOCR classes that end a line of text
var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat", "ocr_par"}

// ExtractHOCR converts Tesseract hOCR markup to plain text and extracts from it
func (e *DocumentExtractor) ExtractHOCR(markup string) (model.ExtractedSummary, []*FieldError, error) {
	text, err := HOCRText(markup)
	if err != nil {
		return model.ExtractedSummary{}, nil, err
	}
	summary, errs := e.Extract(text)
	return summary, errs, nil
}

// HOCRText returns the visible text of an hOCR document, one OCR line per
// text line
func HOCRText(markup string) (string, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse hOCR: %w", err)
	}
	return extractVisibleText(doc), nil
}

// extractVisibleText walks text nodes, skipping non-content elements, and
// breaks lines at hOCR line elements and block tags
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "head", "script", "style", "noscript", "iframe":
				return
			case "br":
				buf.WriteString("\n")
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && endsLine(n) {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return normalizeLines(buf.String())
}

func endsLine(n *html.Node) bool {
	switch n.Data {
	case "p", "div", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			for _, lc := range lineClasses {
				if class == lc {
					return true
				}
			}
		}
	}
	return false
}

// normalizeLines collapses whitespace within lines and drops blank lines
func normalizeLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = collapseSpaces(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
