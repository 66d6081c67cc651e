package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable means the hosted LLM failed or timed out. Retryable by the
// caller; the chat turn it belonged to is not persisted.
var ErrUnavailable = errors.New("advisory service unavailable")

// Message is one prior turn of the conversation passed along as context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to Groq's OpenAI-compatible chat-completions endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an advisory chat client.
func NewClient(apiKey, model, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends the system prompt, prior context and the new prompt, and
// returns the assistant's reply text.
func (c *Client) Complete(ctx context.Context, systemPrompt string, history []Message, prompt string) (string, error) {
	messages := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: prompt})

	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   750,
		Temperature: 0.6,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[advisor] upstream error: %v", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	slurp, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		log.Printf("[advisor] non-2xx status=%d duration=%dms", resp.StatusCode, time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(slurp, &parsed); err != nil {
		log.Printf("[advisor] decode error: %v", err)
		return "", fmt.Errorf("%w: bad response body", ErrUnavailable)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrUnavailable)
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)
	log.Printf("[advisor] completion in %dms chars=%d", time.Since(start).Milliseconds(), len(reply))
	return reply, nil
}
