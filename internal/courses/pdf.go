package courses

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"rsc.io/pdf"
)

// PageCount returns the number of pages of a PDF, or 0 if it cannot be parsed.
func PageCount(data []byte) (n int) {
	defer func() {
		// rsc.io/pdf panics on some malformed inputs.
		if recover() != nil {
			n = 0
		}
	}()
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return doc.NumPage()
}

// FirstPageText extracts the text runs of page 1.
func FirstPageText(r io.ReaderAt, size int64) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("read pdf: %v", rec)
		}
	}()
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	if doc.NumPage() == 0 {
		return "", nil
	}
	p := doc.Page(1)
	if p.V.IsNull() {
		return "", fmt.Errorf("pdf page 1 is null")
	}
	content := p.Content()
	parts := make([]string, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		parts = append(parts, t.S)
	}
	return strings.Join(parts, " "), nil
}
