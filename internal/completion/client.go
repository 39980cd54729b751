// Package completion holds the chat-completion client. It is the one
// transport shared by the engagement, topic/action and search-relevance
// analyses; callers treat any returned error as "use the fallback".
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"lead-insights-go/internal/config"
	"lead-insights-go/internal/logger"
)

const systemPersona = "You are a helpful assistant."

// Completer is what downstream analyzers depend on; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Client struct {
	url   string
	key   string
	model string
	http  *http.Client
	log   *logrus.Entry
}

func New(cfg config.Config, log *logger.Logger) *Client {
	return &Client{
		url:   cfg.CompletionURL,
		key:   cfg.CompletionKey,
		model: cfg.CompletionModel,
		http:  &http.Client{Timeout: 25 * time.Second},
		log:   log.WithComponent("completion"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt with the fixed system persona and model and
// returns the raw completion text. Transport errors and 5xx responses get a
// bounded retry; 4xx are permanent. Errors are returned to the caller,
// which substitutes its signal-specific fallback.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.0,
	})

	var content string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.key)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)

		if resp.StatusCode >= 500 {
			return fmt.Errorf("completion server error: status=%d body=%s", resp.StatusCode, raw)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("completion client error: status=%d body=%s", resp.StatusCode, raw))
		}

		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("completion decode error: %w", err))
		}
		if len(parsed.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("completion returned no choices"))
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		c.log.WithError(err).Warn("completion call failed")
		return "", err
	}
	return content, nil
}
