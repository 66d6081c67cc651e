package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

// ErrUnavailable means the scoring service failed or timed out. The caller
// may retry; this client never retries on its own.
var ErrUnavailable = errors.New("prediction service unavailable")

// Contribution is one entry of the attribution vector the scoring service
// returns alongside the probability.
type Contribution struct {
	Feature      string  `json:"feature"`
	Contribution float64 `json:"contribution"`
}

// Result is the scored outcome for one feature vector. Probability is the
// approval probability in [0,1]; Attribution keeps the service's ordering.
type Result struct {
	Probability float64        `json:"probability"`
	Attribution []Contribution `json:"attribution"`
}

// Client calls the loan scoring service. The service wraps the trained model
// and its explainer; this side only transports feature vectors and persists
// what comes back.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a scoring-service client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type predictRequest struct {
	Features map[string]interface{} `json:"features"`
}

// Predict scores one feature vector.
func (c *Client) Predict(ctx context.Context, features map[string]interface{}) (*Result, error) {
	payload, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[predictor] request error: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[predictor] non-200 status=%d duration=%dms", resp.StatusCode, time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("[predictor] decode error: %v", err)
		return nil, fmt.Errorf("%w: bad response body", ErrUnavailable)
	}
	if result.Probability < 0 || result.Probability > 1 {
		return nil, fmt.Errorf("%w: probability %f out of range", ErrUnavailable, result.Probability)
	}

	log.Printf("[predictor] scored in %dms probability=%.4f features=%d",
		time.Since(start).Milliseconds(), result.Probability, len(result.Attribution))
	return &result, nil
}
