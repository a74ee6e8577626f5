package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"MarketNewsForecaster/internal/ports"
)

// Client talks to the external embedding and sequence-model services.
type Client struct {
	embeddingURL string
	modelURL     string
	apiKey       string
	http         *http.Client
}

var _ ports.Embedder = (*Client)(nil)
var _ ports.Model = (*Client)(nil)

// NewClient creates a reusable HTTP client for both services.
func NewClient(embeddingURL, modelURL, apiKey string) *Client {
	return &Client{
		embeddingURL: strings.TrimSuffix(embeddingURL, "/"),
		modelURL:     strings.TrimSuffix(modelURL, "/"),
		apiKey:       apiKey,
		http:         &http.Client{Timeout: 60 * time.Second},
	}
}

// Embed requests one vector per text in a single batched call.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]any{"texts": texts}
	var resp struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := c.post(ctx, c.embeddingURL+"/embed", payload, &resp); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Predict sends the scaled price and event tensors and returns the scaled prediction.
func (c *Client) Predict(ctx context.Context, price, events [][]float64) (float64, error) {
	payload := map[string]any{
		"price":  price,
		"events": events,
	}
	var resp struct {
		Prediction *float64 `json:"prediction"`
	}
	if err := c.post(ctx, c.modelURL+"/predict", payload, &resp); err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if resp.Prediction == nil {
		return 0, fmt.Errorf("predict: response has no prediction")
	}
	return *resp.Prediction, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
