// Package chunk splits normalized document text into overlapping chunks
// sized for an embedding model's input limit.
//
// Four interchangeable strategies are provided: recursive separator-based
// splitting (the default), paragraph/sentence-aware splitting, fixed-size
// windows with overlap, and markdown header sections. Chunks failing the
// quality rules in package core are filtered out during processing.
package chunk
