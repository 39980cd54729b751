package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/pipeline"
	"lead-insights-go/internal/scoring"
	"lead-insights-go/internal/store"
	"lead-insights-go/internal/types"
)

type okTranscriber struct{}

func (okTranscriber) Transcribe(context.Context, []byte) (types.Transcript, string, error) {
	return types.Transcript{}, "0 - 3s: Hello\n3 - 6s: Hi there", nil
}

type okSentiment struct{}

func (okSentiment) Analyze(context.Context, string) types.SentimentResult {
	return types.SentimentResult{Emotion: "Joy", SentimentType: "Positive", ConfidenceScore: 0.9}
}

type okEngagement struct{}

func (okEngagement) Analyze(context.Context, string) types.EngagementMetrics {
	return types.EngagementMetrics{TalkToListenRatio: 1, TurnTakingFrequency: 1, SpeechPace: 1}
}

type okInsights struct{}

func (okInsights) Topics(context.Context, string) []string  { return []string{"pricing"} }
func (okInsights) Actions(context.Context, string) []string { return []string{"Send a proposal"} }

type okSearcher struct{}

func (okSearcher) Search(context.Context, string) types.SearchRelevance {
	return types.SearchRelevance{Overview: "Acme.", RelevanceScore: 0.8, CompanyWebsite: "https://acme.example", IsSafe: true}
}

func newTestServer(t *testing.T) (*httptest.Server, store.LeadStore) {
	t.Helper()
	log := logger.New()
	leads := store.NewMemory()
	settings := scoring.NewSettings(types.DefaultScoringConfig())
	pipe := pipeline.New(okTranscriber{}, okSentiment{}, okEngagement{}, okInsights{},
		okSearcher{}, settings, leads, log)
	srv := httptest.NewServer(New(pipe, leads, settings, log).Routes())
	t.Cleanup(srv.Close)
	return srv, leads
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndGetLead(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/leads", "application/json",
		strings.NewReader(`{"id":"l1","name":"Acme","company":"Acme Inc","industry":"manufacturing"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/leads/l1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/leads/ghost")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestCreateLeadRequiresName(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/leads", "application/json", strings.NewReader(`{"id":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv, leads := newTestServer(t)
	require.NoError(t, leads.CreateLead(context.Background(), types.LeadData{ID: "l1", Name: "Acme"}))

	resp, err := http.Post(srv.URL+"/leads/l1/analyze", "application/octet-stream",
		strings.NewReader("fake-audio-bytes"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lead, err := leads.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.Len(t, lead.Audios, 1)
}

func TestAnalyzeEndpointRejectsEmptyBody(t *testing.T) {
	srv, leads := newTestServer(t)
	require.NoError(t, leads.CreateLead(context.Background(), types.LeadData{ID: "l1", Name: "Acme"}))

	resp, err := http.Post(srv.URL+"/leads/l1/analyze", "application/octet-stream", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchRefreshEndpoint(t *testing.T) {
	srv, leads := newTestServer(t)
	require.NoError(t, leads.CreateLead(context.Background(), types.LeadData{ID: "l1", Name: "Acme"}))

	resp, err := http.Post(srv.URL+"/leads/l1/search", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	lead, err := leads.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.True(t, lead.OSI.Searched)
	assert.Equal(t, "https://acme.example", lead.OSI.CompanyWebsite)
}

func TestRescoreEndpoint(t *testing.T) {
	srv, leads := newTestServer(t)
	require.NoError(t, leads.CreateLead(context.Background(), types.LeadData{ID: "l1", Name: "Acme"}))

	resp, err := http.Post(srv.URL+"/leads/l1/rescore", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/leads/ghost/rescore", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScoringSettingsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/settings/scoring",
		strings.NewReader(`{"weights":{"sentiment":5,"presence":2,"relevance":3},"time_decay":0.5}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// out-of-range decay is rejected
	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/settings/scoring",
		strings.NewReader(`{"weights":{"sentiment":5,"presence":2,"relevance":3},"time_decay":0.99}`))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
