// Package ingest provides pipeline orchestration for turning documents
// into embedded, searchable chunks.
//
// The Pipeline type manages the full ingestion workflow:
//   - Loading documents from files, directories, or URLs
//   - Splitting them into quality-checked chunks
//   - Generating embeddings in concurrent batches
//   - Storing embedded chunks in the repository
//
// Embedding is performed concurrently using a worker pool. A batch that
// fails to embed is logged and counted in the report but does not fail
// the rest of the ingestion.
package ingest
