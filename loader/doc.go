// Package loader extracts normalized text from document sources.
//
// Supported sources are plain text and markdown files, PDF files, Word
// (DOCX) documents, and web pages. Extracted text is cleaned before being
// returned: whitespace runs are collapsed, non-printable characters are
// stripped, and very short junk lines are dropped.
//
// When scanning a directory, a file that fails to parse is logged and
// skipped rather than aborting the scan.
package loader
