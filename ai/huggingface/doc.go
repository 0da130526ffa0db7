// Package huggingface implements the ai interfaces against the HuggingFace
// Inference API feature-extraction endpoint.
//
// The free tier of the API loads models on demand and rate-limits
// aggressively, so the client retries transient failures with fixed delays:
// 20 seconds after a 503 (model warm-up), 60 seconds after a 429 (rate
// limit), and 5 seconds after a network error. Other failures are treated
// as permanent. Batch requests are paced one second apart.
package huggingface
