// Package extractor converts PDF files into plain text for the ingestion
// pipeline. Extraction is page-oriented: a page that cannot be parsed
// contributes an empty string rather than failing the whole document.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnreadable marks a file that could not be opened or parsed as a PDF at
// all (corrupt input, wrong format, unreadable path). Callers use errors.Is
// to distinguish bad input from downstream failures.
var ErrUnreadable = errors.New("extractor: unreadable PDF")

// Text extracts the plain text of every page of the PDF at path, in page
// order, joined by newlines. Pages whose content stream cannot be decoded
// contribute an empty string; only a file-level parse failure is an error.
func Text(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", ErrUnreadable, path, err)
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, pageText(r, i))
	}

	return strings.Join(pages, "\n"), nil
}

// pageText extracts the text of a single page, swallowing both errors and
// panics. The pdf library panics on some malformed content streams, and a
// single bad page must not abort the document.
func pageText(r *pdf.Reader, num int) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
