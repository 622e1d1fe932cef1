package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"mailflow/config"
)

// ErrReplyGeneration means the drafting call failed. Unlike summaries, a
// draft is the entire value of the operation, so the failure is surfaced.
var ErrReplyGeneration = errors.New("reply generation failed")

const excerptLen = 100

// ReplyPrompt carries the message metadata the drafting prompt is built from.
type ReplyPrompt struct {
	Sender  string
	Subject string
	Body    string
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	log        *logrus.Entry
}

// NewClient builds a client from configuration.
func NewClient(cfg config.AIConfig, log *logrus.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.WithField("component", "ai"),
	}
}

// Summarize asks the model for a 1-2 line summary of the email body. Any
// failure degrades to a truncated excerpt instead of propagating: a summary
// is enrichment, and ingestion must not fail because of it.
func (c *Client) Summarize(ctx context.Context, body string) string {
	prompt := fmt.Sprintf("Summarize this email in 1-2 concise lines:\n\n%s\n\nSummary:", body)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.log.WithError(err).Warn("summarization failed, falling back to excerpt")
		return excerpt(body)
	}
	return strings.TrimSpace(text)
}

// DraftReply asks the model for a professional reply body.
func (c *Client) DraftReply(ctx context.Context, p ReplyPrompt) (string, error) {
	prompt := fmt.Sprintf(`You are a professional email assistant. Generate a polite and professional reply to this email.

From: %s
Subject: %s

Email Body:
%s

Generate a professional reply (just the body text, no subject line or greeting duplicates):`,
		p.Sender, p.Subject, p.Body)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReplyGeneration, err)
	}
	return strings.TrimSpace(text), nil
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
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("ai client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat completion %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contains no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// excerpt is the degraded summary: the first 100 runes of the body plus an
// ellipsis marker.
func excerpt(body string) string {
	runes := []rune(body)
	if len(runes) > excerptLen {
		runes = runes[:excerptLen]
	}
	return string(runes) + "..."
}
