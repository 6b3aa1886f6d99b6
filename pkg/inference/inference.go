// Package inference is the client for the text-inference collaborator.
// The engine sends a prompt plus a context string and gets back a plain
// answer; everything else about the model is the collaborator's business.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is an OpenAI-compatible chat completions endpoint. A local
// runner works out of the box; override via config for hosted models.
const DefaultURL = "http://localhost:11434/v1/chat/completions"

const defaultModel = "llama3.2"

// Client issues a single inference request. Implementations must treat
// a missing response like a slow one: honor ctx and return an error.
type Client interface {
	Request(ctx context.Context, prompt, contextText string) (string, error)
}

// HTTPClient talks to an OpenAI-compatible chat completions API.
type HTTPClient struct {
	URL    string
	Model  string
	APIKey string
	Client *http.Client
}

// NewHTTPClient builds a client; empty url or model fall back to the
// package defaults.
func NewHTTPClient(url, model, apiKey string) *HTTPClient {
	if url == "" {
		url = DefaultURL
	}
	if model == "" {
		model = defaultModel
	}
	return &HTTPClient{
		URL:    url,
		Model:  model,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Request sends one chat completion call. The context string is
// appended to the prompt as a separate paragraph.
func (c *HTTPClient) Request(ctx context.Context, prompt, contextText string) (string, error) {
	content := prompt
	if contextText != "" {
		content = prompt + "\n\n" + contextText
	}

	body, err := json.Marshal(chatRequest{
		Model:    c.Model,
		Messages: []chatMessage{{Role: "user", Content: content}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("inference request failed with status %d: %s", resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("inference error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("inference returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
