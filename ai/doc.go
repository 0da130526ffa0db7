// Package ai defines the embedding service abstraction used by the
// ingestion pipeline and searcher.
//
// Concrete implementations live in subpackages:
//
//   - ai/huggingface: HuggingFace Inference API client with warm-up and
//     rate-limit aware retry
//   - ai/openai: OpenAI-compatible embedding services (Ollama, LocalAI, vLLM)
//   - ai/mock: deterministic test doubles
//
// Constructors in the subpackages return the interfaces defined here to
// keep callers decoupled from any particular service.
package ai
