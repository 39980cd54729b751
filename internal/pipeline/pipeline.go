// Package pipeline orchestrates one lead-scoring request end to end:
// transcribe (fatal on failure), fan out the transcript analyses, assemble
// the AudioAnalysisResult, fold it into the lead's composite score and
// persist best-effort.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/metrics"
	"lead-insights-go/internal/scoring"
	"lead-insights-go/internal/store"
	"lead-insights-go/internal/types"
)

// The provider-facing dependencies, narrowed so tests can stub them.

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (types.Transcript, string, error)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, transcript string) types.SentimentResult
}

type EngagementAnalyzer interface {
	Analyze(ctx context.Context, transcript string) types.EngagementMetrics
}

type InsightExtractor interface {
	Topics(ctx context.Context, transcript string) []string
	Actions(ctx context.Context, transcript string) []string
}

type Searcher interface {
	Search(ctx context.Context, query string) types.SearchRelevance
}

type Pipeline struct {
	transcriber Transcriber
	sentiment   SentimentAnalyzer
	engagement  EngagementAnalyzer
	insights    InsightExtractor
	searcher    Searcher
	settings    *scoring.Settings
	leads       store.LeadStore
	log         *logrus.Entry
	now         func() time.Time
}

func New(t Transcriber, s SentimentAnalyzer, e EngagementAnalyzer, i InsightExtractor,
	sr Searcher, settings *scoring.Settings, leads store.LeadStore, log *logger.Logger) *Pipeline {
	return &Pipeline{
		transcriber: t,
		sentiment:   s,
		engagement:  e,
		insights:    i,
		searcher:    sr,
		settings:    settings,
		leads:       leads,
		log:         log.WithComponent("pipeline"),
		now:         time.Now,
	}
}

// AnalyzeAudio runs the full pipeline for one recording. Transcription
// failure is fatal to the request; every downstream signal self-heals to its
// fallback. The analysis is returned even if the store write fails, since
// that write is best effort by policy.
func (p *Pipeline) AnalyzeAudio(ctx context.Context, leadID string, audio []byte) (types.AudioAnalysisResult, error) {
	lead, err := p.leads.GetLead(ctx, leadID)
	if err != nil {
		return types.AudioAnalysisResult{}, err
	}

	_, text, err := p.transcriber.Transcribe(ctx, audio)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("transcription_error").Inc()
		metrics.ProviderFailures.WithLabelValues("transcription").Inc()
		return types.AudioAnalysisResult{}, err
	}

	result := types.AudioAnalysisResult{
		AudioID: strings.ReplaceAll(uuid.New().String(), "-", ""),
		Date:    p.now().UTC(),
	}

	// Transcript-derived signals run as one concurrent batch; each branch
	// already degrades internally, so the join never fails.
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		result.Sentiment = p.sentiment.Analyze(ctx, text)
	}()
	go func() {
		defer wg.Done()
		result.Engagement = p.engagement.Analyze(ctx, text)
	}()
	go func() {
		defer wg.Done()
		result.Topics = p.insights.Topics(ctx, text)
	}()
	go func() {
		defer wg.Done()
		result.ActionableItems = p.insights.Actions(ctx, text)
	}()
	wg.Wait()

	cfg := p.settings.Snapshot()
	merged := scoring.Merge(lead, &result, nil, cfg)

	if err := p.leads.AppendAudio(ctx, leadID, result, merged.OverallScore); err != nil {
		// Best effort: the computed result is still served.
		p.log.WithError(err).WithField("lead_id", leadID).Warn("analysis persistence failed")
		metrics.PersistFailures.Inc()
	}
	metrics.AnalysesTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// RefreshSearch recomputes the lead's OSI block from a fresh web search and
// folds it into the score. Search itself never fails (degraded result at
// worst), so the only error surface is an unknown lead.
func (p *Pipeline) RefreshSearch(ctx context.Context, leadID string) (types.SearchRelevance, error) {
	lead, err := p.leads.GetLead(ctx, leadID)
	if err != nil {
		return types.SearchRelevance{}, err
	}

	rel := p.searcher.Search(ctx, searchQuery(lead))

	cfg := p.settings.Snapshot()
	merged := scoring.Merge(lead, nil, &rel, cfg)

	if err := p.leads.UpdateOSI(ctx, leadID, merged.OSI, merged.OverallScore); err != nil {
		p.log.WithError(err).WithField("lead_id", leadID).Warn("osi persistence failed")
		metrics.PersistFailures.Inc()
	}
	return rel, nil
}

// Rescore recomputes the composite score with the current settings and no
// new signals, then writes it back so the stored score reflects a weight
// change. Idempotent by construction.
func (p *Pipeline) Rescore(ctx context.Context, leadID string) (types.LeadData, error) {
	lead, err := p.leads.GetLead(ctx, leadID)
	if err != nil {
		return types.LeadData{}, err
	}
	merged := scoring.Merge(lead, nil, nil, p.settings.Snapshot())
	if err := p.leads.UpdateScore(ctx, leadID, merged.OverallScore); err != nil {
		p.log.WithError(err).WithField("lead_id", leadID).Warn("score persistence failed")
		metrics.PersistFailures.Inc()
	}
	return merged, nil
}

func searchQuery(lead types.LeadData) string {
	parts := []string{lead.Name}
	if lead.Company != "" {
		parts = append(parts, lead.Company)
	}
	if lead.OSI.Industry != "" {
		parts = append(parts, lead.OSI.Industry)
	}
	return strings.Join(parts, " ")
}
