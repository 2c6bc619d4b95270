package pdfextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// MinPageChars is the shortest trimmed page text that is kept. Shorter pages
// are usually page numbers or scanning noise.
const MinPageChars = 10

// ExtractText reads a PDF from r and returns the text of its meaningful pages
// joined by a blank line. An empty result with a nil error means the PDF has
// no extractable text.
func ExtractText(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read pdf failed: %w", err)
	}
	if len(b) == 0 {
		return "", nil
	}
	pages, err := extractPages(b)
	if err != nil {
		return "", err
	}
	return JoinPages(pages), nil
}

// JoinPages trims every page, drops the ones under MinPageChars characters
// and joins the rest with "\n\n".
func JoinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, page := range pages {
		page = strings.TrimSpace(page)
		if utf8.RuneCountInString(page) < MinPageChars {
			continue
		}
		kept = append(kept, page)
	}
	return strings.Join(kept, "\n\n")
}

func extractPages(b []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse pdf failed: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text of page %d failed: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
