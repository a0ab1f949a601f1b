package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteGenerator calls an external insight service over HTTP
type RemoteGenerator struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteGenerator creates a generator backed by an external insight API
func NewRemoteGenerator(baseURL, apiKey string) *RemoteGenerator {
	return &RemoteGenerator{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Generate posts the snapshot to the insight service and decodes the response
func (g *RemoteGenerator) Generate(ctx context.Context, snapshot ClientSnapshot) (*Insight, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	url := g.baseURL + "/v1/insights"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insight service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("insight service error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var insight Insight
	if err := json.NewDecoder(resp.Body).Decode(&insight); err != nil {
		return nil, fmt.Errorf("failed to decode insight: %w", err)
	}
	insight.Source = "remote"
	if insight.GeneratedAt.IsZero() {
		insight.GeneratedAt = time.Now().UTC()
	}

	return &insight, nil
}
