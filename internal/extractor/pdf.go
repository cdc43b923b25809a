package extractor

import (
	"fmt"
	"log"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// extractPDF pulls text page by page up to the page cap. Pages beyond the cap
// are dropped, not an error.
func extractPDF(path string, maxPages int) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open PDF: %v", ErrExtractionFailed, err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages > maxPages {
		log.Printf("PDF has %d pages, processing first %d only", pages, maxPages)
		pages = maxPages
	}

	var parts []string
	var lastErr error
	for n := 0; n < pages; n++ {
		pageText, err := doc.Text(n)
		if err != nil {
			lastErr = fmt.Errorf("page %d: %w", n+1, err)
			log.Println(lastErr)
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText != "" {
			parts = append(parts, fmt.Sprintf("Page %d:\n%s", n+1, pageText))
		}
	}

	result := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if result == "" {
		if lastErr != nil {
			return "", fmt.Errorf("%w: %v", ErrExtractionFailed, lastErr)
		}
		return "", fmt.Errorf("%w: no text in PDF (empty or image-only pages)", ErrExtractionFailed)
	}

	return result, nil
}
