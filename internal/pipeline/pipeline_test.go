package pipeline

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/scoring"
	"lead-insights-go/internal/store"
	"lead-insights-go/internal/types"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(context.Context, []byte) (types.Transcript, string, error) {
	return types.Transcript{}, s.text, s.err
}

type stubSentiment struct{ result types.SentimentResult }

func (s *stubSentiment) Analyze(context.Context, string) types.SentimentResult { return s.result }

type stubEngagement struct{ result types.EngagementMetrics }

func (s *stubEngagement) Analyze(context.Context, string) types.EngagementMetrics { return s.result }

type stubInsights struct {
	topics  []string
	actions []string
}

func (s *stubInsights) Topics(context.Context, string) []string  { return s.topics }
func (s *stubInsights) Actions(context.Context, string) []string { return s.actions }

type stubSearcher struct {
	result types.SearchRelevance
	query  string
}

func (s *stubSearcher) Search(_ context.Context, query string) types.SearchRelevance {
	s.query = query
	return s.result
}

// failingStore wraps the memory store but drops every analysis write.
type failingStore struct {
	*store.Memory
}

func (f *failingStore) AppendAudio(context.Context, string, types.AudioAnalysisResult, *float64) error {
	return errors.New("connection reset")
}

func newPipeline(t *testing.T, leads store.LeadStore, tr Transcriber, sr Searcher) *Pipeline {
	t.Helper()
	return New(
		tr,
		&stubSentiment{result: types.SentimentResult{Emotion: "Joy", SentimentType: "Positive", ConfidenceScore: 0.9}},
		&stubEngagement{result: types.EngagementMetrics{TalkToListenRatio: 1.2, TurnTakingFrequency: 8, Interruptions: 2, SpeechPace: 3}},
		&stubInsights{topics: []string{"pricing"}, actions: []string{"Send a proposal"}},
		sr,
		scoring.NewSettings(types.DefaultScoringConfig()),
		leads,
		logger.New(),
	)
}

func seedLead(t *testing.T, leads store.LeadStore) {
	t.Helper()
	require.NoError(t, leads.CreateLead(context.Background(), types.LeadData{ID: "l1", Name: "Acme", Company: "Acme Inc"}))
}

var hex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestAnalyzeAudioAssemblesAndPersists(t *testing.T) {
	leads := store.NewMemory()
	seedLead(t, leads)
	p := newPipeline(t, leads, &stubTranscriber{text: "0 - 3s: Hello"}, &stubSearcher{})

	result, err := p.AnalyzeAudio(context.Background(), "l1", []byte("audio"))
	require.NoError(t, err)

	assert.Regexp(t, hex32, result.AudioID)
	assert.False(t, result.Date.IsZero())
	assert.Equal(t, "Positive", result.Sentiment.SentimentType)
	assert.Equal(t, 2, result.Engagement.Interruptions)
	assert.Equal(t, []string{"pricing"}, result.Topics)
	assert.Equal(t, []string{"Send a proposal"}, result.ActionableItems)

	lead, err := leads.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, lead.Audios, 1)
	assert.Equal(t, result.AudioID, lead.Audios[0].AudioID)
	require.NotNil(t, lead.OverallScore)
	// sentiment is the only active signal: positive 0.9
	assert.InDelta(t, 0.9, *lead.OverallScore, 1e-9)
}

func TestAnalyzeAudioTranscriptionFailureIsFatal(t *testing.T) {
	leads := store.NewMemory()
	seedLead(t, leads)
	p := newPipeline(t, leads, &stubTranscriber{err: errors.New("stt unavailable")}, &stubSearcher{})

	_, err := p.AnalyzeAudio(context.Background(), "l1", []byte("audio"))
	require.Error(t, err)

	lead, err := leads.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.Empty(t, lead.Audios)
}

func TestAnalyzeAudioUnknownLead(t *testing.T) {
	p := newPipeline(t, store.NewMemory(), &stubTranscriber{text: "0 - 3s: Hello"}, &stubSearcher{})
	_, err := p.AnalyzeAudio(context.Background(), "ghost", []byte("audio"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAnalyzeAudioPersistFailureStillReturnsResult(t *testing.T) {
	leads := store.NewMemory()
	seedLead(t, leads)
	p := newPipeline(t, &failingStore{leads}, &stubTranscriber{text: "0 - 3s: Hello"}, &stubSearcher{})

	result, err := p.AnalyzeAudio(context.Background(), "l1", []byte("audio"))
	require.NoError(t, err, "persistence is best effort; the result must still be served")
	assert.Regexp(t, hex32, result.AudioID)
}

func TestRefreshSearchOverwritesOSI(t *testing.T) {
	leads := store.NewMemory()
	seedLead(t, leads)
	searcher := &stubSearcher{result: types.SearchRelevance{
		Overview:       "Acme builds widgets.",
		RelevanceScore: 0.8,
		CompanyWebsite: "https://acme.example",
		IsSafe:         true,
	}}
	p := newPipeline(t, leads, &stubTranscriber{text: "x"}, searcher)

	rel, err := p.RefreshSearch(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 0.8, rel.RelevanceScore)
	assert.Equal(t, "Acme Acme Inc", searcher.query)

	lead, err := leads.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.True(t, lead.OSI.Searched)
	assert.Equal(t, "https://acme.example", lead.OSI.CompanyWebsite)
	require.NotNil(t, lead.OverallScore)
	// presence 1.0 (w3) + relevance 0.8 (w3), no recordings yet
	assert.InDelta(t, (3*1.0+3*0.8)/6, *lead.OverallScore, 1e-9)
}

func TestRescorePersistsScoreUnderNewWeights(t *testing.T) {
	leads := store.NewMemory()
	seedLead(t, leads)
	settings := scoring.NewSettings(types.DefaultScoringConfig())
	p := New(
		&stubTranscriber{text: "0 - 3s: Hello"},
		&stubSentiment{result: types.SentimentResult{Emotion: "Joy", SentimentType: "Positive", ConfidenceScore: 0.9}},
		&stubEngagement{},
		&stubInsights{},
		&stubSearcher{result: types.SearchRelevance{Overview: "Acme.", RelevanceScore: 0.1, IsSafe: true}},
		settings,
		leads,
		logger.New(),
	)

	_, err := p.AnalyzeAudio(context.Background(), "l1", []byte("audio"))
	require.NoError(t, err)
	_, err = p.RefreshSearch(context.Background(), "l1")
	require.NoError(t, err)

	require.NoError(t, settings.Update(types.ScoringConfig{
		Weights:   types.ScoringWeights{Relevance: 10},
		TimeDecay: 0.7,
	}))

	rescored, err := p.Rescore(context.Background(), "l1")
	require.NoError(t, err)
	require.NotNil(t, rescored.OverallScore)
	// relevance is the only weighted signal left
	assert.InDelta(t, 0.1, *rescored.OverallScore, 1e-9)

	stored, err := leads.GetLead(context.Background(), "l1")
	require.NoError(t, err)
	require.NotNil(t, stored.OverallScore)
	assert.Equal(t, *rescored.OverallScore, *stored.OverallScore)
}

func TestRescoreIsIdempotent(t *testing.T) {
	leads := store.NewMemory()
	seedLead(t, leads)
	p := newPipeline(t, leads, &stubTranscriber{text: "0 - 3s: Hello"}, &stubSearcher{
		result: types.DegradedSearch(),
	})

	_, err := p.AnalyzeAudio(context.Background(), "l1", []byte("audio"))
	require.NoError(t, err)
	_, err = p.RefreshSearch(context.Background(), "l1")
	require.NoError(t, err)

	first, err := p.Rescore(context.Background(), "l1")
	require.NoError(t, err)
	second, err := p.Rescore(context.Background(), "l1")
	require.NoError(t, err)

	require.NotNil(t, first.OverallScore)
	require.NotNil(t, second.OverallScore)
	assert.Equal(t, *first.OverallScore, *second.OverallScore)
}
