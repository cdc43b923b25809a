package extractor

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

func extractDOCX(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse DOCX: %v", ErrExtractionFailed, err)
	}

	var parts []string
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			if text := strings.TrimSpace(block.String()); text != "" {
				parts = append(parts, text)
			}
		case *docx.Table:
			if text := strings.TrimSpace(block.String()); text != "" {
				parts = append(parts, text)
			}
		}
	}

	result := strings.TrimSpace(strings.Join(parts, "\n"))
	if result == "" {
		return "", fmt.Errorf("%w: no text in DOCX", ErrExtractionFailed)
	}
	return result, nil
}
