package extractor

import "errors"

var (
	// ErrUnsupportedType means the input type is not in the configured allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge means the input exceeds the configured byte limit. Checked
	// before any parsing happens.
	ErrTooLarge = errors.New("file exceeds maximum size")

	// ErrExtractionFailed means the content was corrupt or the fetch failed.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrUnsupportedEncoding means the text could not be decoded or transcoded
	// to UTF-8.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")

	// ErrFetchTimeout means a website fetch exceeded its wall-clock budget.
	ErrFetchTimeout = errors.New("website fetch timed out")
)
