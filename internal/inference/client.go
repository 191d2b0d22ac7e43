package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mfigueiredo/ledgerhawk/internal/report"
	"github.com/mfigueiredo/ledgerhawk/internal/transaction"
)

// Assessor classifies a batch of transactions. Satisfied by Client and by
// the retry decorator wrapping it.
type Assessor interface {
	Assess(ctx context.Context, txs []*transaction.Transaction) ([]report.Assessment, error)
}

// Client talks to an OpenAI-compatible chat-completions endpoint. It issues
// one synchronous request per batch and never retries internally; backoff
// policy belongs to the caller.
type Client struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
	policy  LevelPolicy
}

type Option func(*Client)

// WithLevelPolicy overrides the default out-of-range risk-level handling.
func WithLevelPolicy(p LevelPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithHTTPClient swaps the transport, mainly for bounded-latency callers
// that need their own timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func NewClient(baseURL, model, apiKey string, opts ...Option) *Client {
	c := &Client{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		policy:  CoerceUnknownToMedium,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Assess sends the batch to the provider and returns the validated
// assessments. A missing credential fails before any network I/O.
func (c *Client) Assess(ctx context.Context, txs []*transaction.Transaction) ([]report.Assessment, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(txs)},
		},
		Temperature: 0.1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &ProviderError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, &MalformedResponseError{Raw: string(respBody), cause: err}
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	return Parse(completion.Choices[0].Message.Content, c.policy)
}
