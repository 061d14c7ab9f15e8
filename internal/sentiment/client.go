package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const maxResponseBytes = 4 << 10

// HTTPClient calls an HTTP sentiment-analysis service. Requests go through
// a circuit breaker so a dead collaborator fails fast instead of burning the
// annotation timeout on every message.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Sentiment string `json:"sentiment"`
}

func NewHTTPClient(endpoint, apiKey string) *HTTPClient {
	settings := gobreaker.Settings{
		Name:    "sentiment-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Sentiment circuit breaker state change", "from", from.String(), "to", to.String())
		},
	}

	return &HTTPClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{},
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

// Analyze sends text to the collaborator and returns its raw label.
func (c *HTTPClient) Analyze(ctx context.Context, text string) (string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.analyze(ctx, text)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *HTTPClient) analyze(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("analyze request returned status %d", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode analyze response: %w", err)
	}
	if parsed.Sentiment == "" {
		return "", fmt.Errorf("analyze response missing sentiment label")
	}

	return parsed.Sentiment, nil
}
