// Package sentiment wraps the emotion-analysis capability. Failures degrade
// to the neutral Unknown/0.5 result, never to an error.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"lead-insights-go/internal/config"
	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/types"
)

// maxInput is the provider's input-size limit.
const maxInput = 2000

type Client struct {
	url  string
	key  string
	http *http.Client
	log  *logrus.Entry
}

func New(cfg config.Config, log *logger.Logger) *Client {
	return &Client{
		url:  cfg.SentimentURL,
		key:  cfg.SentimentKey,
		http: &http.Client{Timeout: 20 * time.Second},
		log:  log.WithComponent("sentiment"),
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Success         bool    `json:"success"`
	Emotion         string  `json:"emotion"`
	SentimentType   string  `json:"sentiment_type"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Analyze returns the emotion label and confidence for a transcript,
// truncated to the provider's input limit. Any provider failure yields the
// fallback result and a log line, never an error.
func (c *Client) Analyze(ctx context.Context, transcript string) types.SentimentResult {
	if len(transcript) > maxInput {
		// back off to a rune boundary so the payload stays valid UTF-8
		cut := maxInput
		for cut > 0 && !utf8.RuneStart(transcript[cut]) {
			cut--
		}
		transcript = transcript[:cut]
	}
	body, _ := json.Marshal(analyzeRequest{Text: transcript})

	var parsed analyzeResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.key != "" {
			req.Header.Set("Authorization", "Bearer "+c.key)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("sentiment server error: status=%d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("sentiment client error: status=%d body=%s", resp.StatusCode, raw))
		}
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("sentiment decode error: %w", err))
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		c.log.WithError(err).Warn("sentiment analysis degraded to fallback")
		return types.FallbackSentiment()
	}
	if !parsed.Success {
		c.log.Warn("sentiment provider reported failure, using fallback")
		return types.FallbackSentiment()
	}
	return types.SentimentResult{
		Emotion:         parsed.Emotion,
		SentimentType:   parsed.SentimentType,
		ConfidenceScore: clamp01(parsed.ConfidenceScore),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
