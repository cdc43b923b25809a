package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pendo-cea/rag-pipeline/internal/config"
	"golang.org/x/net/html/charset"
)

// Input identifies what to extract. Exactly one of Path or URL is set.
type Input struct {
	Path string
	URL  string
}

// Extractor turns uploads and URLs into plain text under the configured
// size, page and timeout constraints. It writes no persistent state.
type Extractor struct {
	cfg *config.PipelineConfig
	web *websiteFetcher
}

func New(cfg *config.PipelineConfig) *Extractor {
	return &Extractor{
		cfg: cfg,
		web: newWebsiteFetcher(cfg.WebsiteTimeout, cfg.WebsiteMaxLength),
	}
}

// Extract dispatches on the input type. Files are size-checked before any
// parsing begins.
func (e *Extractor) Extract(ctx context.Context, in Input) (string, error) {
	if in.URL != "" {
		return e.web.fetch(ctx, in.URL)
	}

	info, err := os.Stat(in.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if info.Size() > e.cfg.MaxFileSizeBytes() {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), e.cfg.MaxFileSizeBytes())
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(in.Path)), ".")
	if !e.cfg.IsAllowedType(ext) {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}

	switch ext {
	case "pdf":
		return extractPDF(in.Path, e.cfg.MaxPDFPages)
	case "docx":
		return extractDOCX(in.Path)
	case "txt", "md":
		return extractPlainText(in.Path)
	default:
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
}

// ValidateUpload is the cheap submission-time check: size first, then type.
// It lets obviously-invalid uploads fail synchronously without a job record.
func (e *Extractor) ValidateUpload(fileName string, size int64) error {
	if size > e.cfg.MaxFileSizeBytes() {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, size, e.cfg.MaxFileSizeBytes())
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if !e.cfg.IsAllowedType(ext) {
		return fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
	return nil
}

func extractPlainText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if utf8.Valid(raw) {
		return strings.TrimSpace(string(raw)), nil
	}

	// Not UTF-8: sniff the encoding and transcode.
	enc, name, _ := charset.DetermineEncoding(raw, "text/plain")
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil || !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: detected %s", ErrUnsupportedEncoding, name)
	}
	decoded = bytes.TrimPrefix(decoded, []byte("\ufeff"))
	return strings.TrimSpace(string(decoded)), nil
}
