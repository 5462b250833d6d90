package classifier

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// maxPDFPages bounds how many pages are read. Vision models charge per
	// image and multi-page PDFs are not natively renderable, so PDF content
	// goes to the model as text from the leading pages instead.
	maxPDFPages = 3
	// maxPDFChars bounds the extracted text sent as model context.
	maxPDFChars = 15000
)

// ExtractPDFText extracts plain text from at most the first maxPDFPages pages
// of a PDF, truncated to maxPDFChars characters.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	pages := reader.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		if sb.Len() >= maxPDFChars {
			break
		}
	}

	out := sb.String()
	if len(out) > maxPDFChars {
		out = out[:maxPDFChars]
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("no extractable text in first %d pages", pages)
	}
	return out, nil
}
