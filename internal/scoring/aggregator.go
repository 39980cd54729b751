// Package scoring folds every derived and external signal on a lead into
// one weighted, time-decayed composite score. All functions here are pure:
// scoring the same lead twice with no new signals reproduces the same value
// bit for bit.
package scoring

import (
	"math"
	"strings"

	"lead-insights-go/internal/types"
)

// Merge appends a new audio analysis (if any), overwrites the OSI block with
// a new search relevance (if any), then recomputes the overall score under
// the given configuration snapshot. The input lead is not mutated.
func Merge(lead types.LeadData, newAudio *types.AudioAnalysisResult, newSearch *types.SearchRelevance, cfg types.ScoringConfig) types.LeadData {
	out := lead
	out.Audios = make([]types.AudioAnalysisResult, len(lead.Audios), len(lead.Audios)+1)
	copy(out.Audios, lead.Audios)
	if newAudio != nil {
		out.Audios = append(out.Audios, *newAudio)
	}
	if newSearch != nil {
		out.OSI.SearchRelevance = *newSearch
		out.OSI.Searched = true
	}
	out.OverallScore = Overall(out, cfg)
	return out
}

// Overall computes the weighted combination of the active signals. A weight
// of 0 excludes its signal entirely; a signal with no value yet (no
// recordings, no search run) is likewise excluded. Nil when nothing is
// active. The result always lies in [0,1].
func Overall(lead types.LeadData, cfg types.ScoringConfig) *float64 {
	type term struct {
		weight int
		value  float64
		ok     bool
	}

	sent, sentOK := sentimentSignal(lead.Audios, cfg.TimeDecay)
	pres, presOK := presenceSignal(lead.OSI)
	rel, relOK := relevanceSignal(lead.OSI)

	terms := []term{
		{cfg.Weights.Sentiment, sent, sentOK},
		{cfg.Weights.Presence, pres, presOK},
		{cfg.Weights.Relevance, rel, relOK},
	}

	var num, den float64
	for _, t := range terms {
		if t.weight <= 0 || !t.ok {
			continue
		}
		num += float64(t.weight) * t.value
		den += float64(t.weight)
	}
	if den == 0 {
		return nil
	}
	score := num / den
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return &score
}

// sentimentSignal is the decay-weighted mean of the per-recording sentiment
// scores. Audios are ordered oldest first; the most recent recording has
// exponent 0 and is undiscounted.
func sentimentSignal(audios []types.AudioAnalysisResult, decay float64) (float64, bool) {
	if len(audios) == 0 {
		return 0, false
	}
	if decay <= 0 {
		decay = 1
	}
	var num, den float64
	for i := range audios {
		// i-th most recent recording counts from the end
		exp := float64(len(audios) - 1 - i)
		w := math.Pow(decay, exp)
		num += w * SentimentScore(audios[i].Sentiment)
		den += w
	}
	return num / den, true
}

// SentimentScore maps a sentiment result onto [0,1]: positive sentiment
// contributes its confidence, negative the complement, anything else
// (neutral, the Unknown fallback) the exact neutral 0.5.
func SentimentScore(s types.SentimentResult) float64 {
	switch strings.ToLower(s.SentimentType) {
	case "positive":
		return clamp01(s.ConfidenceScore)
	case "negative":
		return clamp01(1 - s.ConfidenceScore)
	default:
		return 0.5
	}
}

// presenceSignal reflects the lead's web presence: 1 when a company website
// was found, 0.3 when search succeeded without one. Absent until the first
// search refresh.
func presenceSignal(osi types.OSI) (float64, bool) {
	if !osi.Searched {
		return 0, false
	}
	if osi.CompanyWebsite != "" {
		return 1, true
	}
	return 0.3, true
}

func relevanceSignal(osi types.OSI) (float64, bool) {
	if !osi.Searched {
		return 0, false
	}
	return clamp01(osi.RelevanceScore), true
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
