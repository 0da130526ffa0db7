package loader

import "errors"

var (
	// ErrUnsupportedFileType is returned when a file extension has no extractor.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrNoTextExtracted is returned when a source parses but yields no text.
	ErrNoTextExtracted = errors.New("no text extracted")
)
