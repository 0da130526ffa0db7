// Package openai implements the ai interfaces on top of OpenAI-compatible
// embedding APIs via langchaingo. It works with any server exposing the
// /v1/embeddings endpoint, including Ollama, LocalAI and vLLM.
package openai
