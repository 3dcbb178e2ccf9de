// Package groq is a minimal chat-completions client for the Groq API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.groq.com/openai/v1/chat/completions"

var (
	ErrMissingAPIKey = errors.New("groq: api key not configured")
	ErrTimeout       = errors.New("groq: request timed out")
	ErrEmptyResponse = errors.New("groq: empty completion")
)

// Client calls the chat completions endpoint with a bounded timeout per
// request.
type Client struct {
	apiKey  string
	model   string
	timeout time.Duration
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	if model == "" {
		model = "llama3-8b-8192"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		baseURL: defaultBaseURL,
		http:    &http.Client{},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one system/user exchange and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			return "", fmt.Errorf("groq: api error: %s", out.Error.Message)
		}
		return "", fmt.Errorf("groq: unexpected status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
