package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/docqa/ai"
)

// Fixed retry delays matching the documented behavior of the free
// Inference API tier. 503 means the model is still loading on the server,
// 429 means the account is rate limited.
const (
	warmupDelay    = 20 * time.Second
	rateLimitDelay = 60 * time.Second
	networkDelay   = 5 * time.Second

	// pacingDelay spaces out consecutive batch requests so a large
	// ingestion does not trip the rate limiter in the first place.
	pacingDelay = 1 * time.Second
)

// Client implements ai.Embedder against the HuggingFace Inference API
// feature-extraction endpoint.
type Client struct {
	config     *ai.Config
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger

	// retry delays, overridable in tests
	warmupDelay    time.Duration
	rateLimitDelay time.Duration
	networkDelay   time.Duration
	pacingDelay    time.Duration
}

var (
	_ ai.Embedder = (*Client)(nil)
	_ ai.Pinger   = (*Client)(nil)
)

// newClient is an internal constructor that returns the concrete type.
func newClient(config *ai.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config:         config,
		endpoint:       config.Host + "/models/" + config.Model,
		httpClient:     &http.Client{Timeout: config.RequestTimeout},
		logger:         slog.Default().With("component", "huggingface-embedder"),
		warmupDelay:    warmupDelay,
		rateLimitDelay: rateLimitDelay,
		networkDelay:   networkDelay,
		pacingDelay:    pacingDelay,
	}, nil
}

// NewClient creates an embedding client for the HuggingFace Inference API.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewClient(config *ai.Config) (ai.Embedder, error) {
	return newClient(config)
}

// EmbedText generates a vector embedding for a single text string.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		c.logger.Warn("service returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// Texts are sent in batches of the configured size with a fixed pacing
// delay between requests.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	c.logger.Debug("generating embeddings for texts", "count", len(texts))

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.config.BatchSize {
		end := min(start+c.config.BatchSize, len(texts))

		vectors, err := c.embed(ctx, texts[start:end])
		if err != nil {
			c.logger.Error("failed to generate embeddings", "batch", start/c.config.BatchSize, "err", err)
			return nil, err
		}
		out = append(out, vectors...)

		if end < len(texts) {
			if err := sleepCtx(ctx, c.pacingDelay); err != nil {
				return nil, err
			}
		}
	}

	if len(out) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(out))
	}
	return out, nil
}

// Ping probes the service by embedding a trivial input.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.embed(ctx, []string{"ping"})
	return err
}

// embed performs one embedding request with the retry policy:
// 503 (model warm-up) and 429 (rate limit) wait their fixed delays and
// retry, network errors wait a short delay and retry, any other non-2xx
// status fails immediately.
func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		vectors, delay, err := c.doRequest(ctx, payload)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if delay == 0 {
			// Permanent failure, retrying won't help.
			return nil, err
		}

		c.logger.Warn("embedding request failed, will retry",
			"attempt", attempt, "maxRetries", c.config.MaxRetries, "delay", delay, "err", err)

		if attempt == c.config.MaxRetries {
			break
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", c.config.MaxRetries, lastErr)
}

// doRequest performs a single HTTP round trip. On retryable failures it
// returns the delay to wait before the next attempt; a zero delay marks
// the error as permanent.
func (c *Client) doRequest(ctx context.Context, payload []byte) ([][]float32, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, c.networkDelay, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// parsed below
	case resp.StatusCode == http.StatusServiceUnavailable:
		io.Copy(io.Discard, resp.Body)
		return nil, c.warmupDelay, fmt.Errorf("model is loading (status %d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, c.rateLimitDelay, fmt.Errorf("rate limited (status %d)", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("embedding request failed: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.networkDelay, err
	}

	vectors, err := parseVectors(body)
	if err != nil {
		return nil, 0, err
	}
	return vectors, 0, nil
}

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// parseVectors decodes the feature-extraction response. The endpoint
// returns [][]float32 for a list input but bare []float32 for some models
// when given a single input.
func parseVectors(body []byte) ([][]float32, error) {
	var batch [][]float32
	if err := json.Unmarshal(body, &batch); err == nil {
		return batch, nil
	}

	var single []float32
	if err := json.Unmarshal(body, &single); err == nil {
		return [][]float32{single}, nil
	}

	return nil, fmt.Errorf("unexpected embedding response: %s", truncate(body, 128))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// sleepCtx sleeps for the given duration or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
