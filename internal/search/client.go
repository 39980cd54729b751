// Package search derives company-relevance signals from a web-search
// capability. The call is raced against a timeout; on timeout or any
// provider failure the pipeline gets a safe degraded result, so a lead
// scoring request never fails because search was unavailable.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"lead-insights-go/internal/completion"
	"lead-insights-go/internal/config"
	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/metrics"
	"lead-insights-go/internal/parse"
	"lead-insights-go/internal/prompts"
	"lead-insights-go/internal/types"
)

const maxSnippets = 5

type Client struct {
	url       string
	key       string
	timeout   time.Duration
	http      *http.Client
	completer completion.Completer
	log       *logrus.Entry
}

func New(cfg config.Config, completer completion.Completer, log *logger.Logger) *Client {
	timeout := cfg.SearchTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:       cfg.SearchURL,
		key:       cfg.SearchKey,
		timeout:   timeout,
		http:      &http.Client{Timeout: timeout + 5*time.Second},
		completer: completer,
		log:       log.WithComponent("search"),
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	AIOverview bool   `json:"ai_overview"`
	SafeSearch bool   `json:"safe_search"`
	SpellCheck bool   `json:"spell_check"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"results"`
	AIOverview     string   `json:"ai_overview"`
	RelevanceScore *float64 `json:"relevance_score"`
	IsSafe         *bool    `json:"is_safe"`
}

// Search runs one web-search for the query, raced against the configured
// timeout. If the timeout wins the in-flight call is abandoned (not
// transport-cancelled) and the degraded result is returned.
func (c *Client) Search(ctx context.Context, query string) types.SearchRelevance {
	type result struct {
		rel types.SearchRelevance
		err error
	}
	ch := make(chan result, 1)
	go func() {
		rel, err := c.doSearch(ctx, query)
		ch <- result{rel, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			c.log.WithError(r.err).Warn("search degraded to safe result")
			metrics.ProviderFailures.WithLabelValues("search").Inc()
			metrics.DegradedSignals.WithLabelValues("search").Inc()
			return types.DegradedSearch()
		}
		return r.rel
	case <-time.After(c.timeout):
		c.log.WithField("timeout", c.timeout.String()).Warn("search timed out, using safe result")
		metrics.DegradedSignals.WithLabelValues("search").Inc()
		return types.DegradedSearch()
	case <-ctx.Done():
		metrics.DegradedSignals.WithLabelValues("search").Inc()
		return types.DegradedSearch()
	}
}

func (c *Client) doSearch(ctx context.Context, query string) (types.SearchRelevance, error) {
	if c.url == "" {
		return types.SearchRelevance{}, fmt.Errorf("SEARCH_API_URL not configured")
	}
	body, _ := json.Marshal(searchRequest{
		Query:      query,
		AIOverview: true,
		SafeSearch: true,
		SpellCheck: true,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return types.SearchRelevance{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return types.SearchRelevance{}, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return types.SearchRelevance{}, fmt.Errorf("search error: status=%d body=%s", resp.StatusCode, raw)
	}
	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return types.SearchRelevance{}, fmt.Errorf("search decode error: %w", err)
	}
	if len(parsed.Results) == 0 && parsed.AIOverview == "" {
		return types.SearchRelevance{}, fmt.Errorf("search returned no results")
	}

	snippets := make([]string, 0, maxSnippets)
	for _, r := range parsed.Results {
		if r.Snippet == "" {
			continue
		}
		snippets = append(snippets, r.Snippet)
		if len(snippets) == maxSnippets {
			break
		}
	}
	joined := strings.Join(snippets, "\n")

	out := types.SearchRelevance{
		Overview: parsed.AIOverview,
		IsSafe:   true,
	}
	if parsed.IsSafe != nil {
		out.IsSafe = *parsed.IsSafe
	}
	if out.Overview == "" {
		out.Overview = joined
	}
	if len(parsed.Results) > 0 {
		out.CompanyWebsite = parsed.Results[0].URL
	}
	out.RelevanceScore = c.relevance(ctx, parsed.RelevanceScore, joined)
	return out, nil
}

// relevance prefers the provider's score; otherwise a secondary completion
// call scores the snippets, parsed with the JSON-then-decimal fallback chain.
func (c *Client) relevance(ctx context.Context, provider *float64, snippets string) float64 {
	if provider != nil && *provider >= 0 && *provider <= 1 {
		return *provider
	}
	if snippets == "" {
		return 0.5
	}
	raw, err := c.completer.Complete(ctx, prompts.Relevance(snippets))
	if err != nil {
		c.log.WithError(err).Warn("relevance completion failed, using neutral score")
		return 0.5
	}
	return parse.RelevanceScore(raw)
}
