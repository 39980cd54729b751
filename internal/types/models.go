package types

import "time"

// Utterance is one timestamped, speaker-labeled chunk of a call.
type Utterance struct {
	SpeakerID string  `json:"speaker_id"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
	Text      string  `json:"text"`
}

// Transcript is the ordered utterance sequence derived from one recording.
// Never persisted verbatim; only derived metrics are stored.
type Transcript struct {
	Utterances []Utterance `json:"utterances"`
}

type SentimentResult struct {
	Emotion         string  `json:"emotion"`
	SentimentType   string  `json:"sentiment_type"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// FallbackSentiment is the neutral-but-valid result substituted when the
// sentiment provider reports failure.
func FallbackSentiment() SentimentResult {
	return SentimentResult{Emotion: "Unknown", SentimentType: "Unknown", ConfidenceScore: 0.5}
}

type EngagementMetrics struct {
	TalkToListenRatio   float64 `json:"talk_to_listen_ratio"`
	TurnTakingFrequency int     `json:"turn_taking_frequency"`
	Interruptions       int     `json:"interruptions"`
	SpeechPace          int     `json:"speech_pace"` // 1..5
}

// AudioAnalysisResult is the full derived output for one analyzed recording.
// Immutable after creation; owned by the lead it is attached to.
type AudioAnalysisResult struct {
	AudioID         string            `json:"audio_id"` // 32 hex chars
	Date            time.Time         `json:"date"`
	Sentiment       SentimentResult   `json:"sentiment"`
	Engagement      EngagementMetrics `json:"engagement"`
	Topics          []string          `json:"topics"`
	ActionableItems []string          `json:"actionable_items"`
}

// SearchRelevance holds externally sourced company-relevance signals.
// Recomputed on demand; each refresh overwrites the previous value.
type SearchRelevance struct {
	Overview       string  `json:"overview"`
	RelevanceScore float64 `json:"relevance_score"` // [0,1]
	CompanyWebsite string  `json:"company_website,omitempty"`
	IsSafe         bool    `json:"is_safe"`
}

// DegradedSearch is the safe result used when search fails or times out.
func DegradedSearch() SearchRelevance {
	return SearchRelevance{
		Overview:       "Search failed to return results.",
		RelevanceScore: 0.5,
		IsSafe:         true,
	}
}

// OSI is the open-source-intelligence block on a lead.
type OSI struct {
	Industry string `json:"industry,omitempty"`
	SearchRelevance
	Searched bool `json:"searched"` // false until the first search refresh
}

type ScoringWeights struct {
	Sentiment int `json:"sentiment"` // 0..10
	Presence  int `json:"presence"`  // 0..10
	Relevance int `json:"relevance"` // 0..10
}

// ScoringConfig is the process-wide scoring configuration.
type ScoringConfig struct {
	Weights   ScoringWeights `json:"weights"`
	TimeDecay float64        `json:"time_decay"` // [0.1,0.9]
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:   ScoringWeights{Sentiment: 4, Presence: 3, Relevance: 3},
		TimeDecay: 0.7,
	}
}

// LeadData is the aggregate root. Audios is append-only, ordered by creation
// time (oldest first). OverallScore is nil until some weighted signal exists.
type LeadData struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Company      string                `json:"company,omitempty"`
	OSI          OSI                   `json:"osi"`
	Audios       []AudioAnalysisResult `json:"audios"`
	OverallScore *float64              `json:"overall_score,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

// LatestAudio returns the most recent analysis, or nil when none exist.
func (l *LeadData) LatestAudio() *AudioAnalysisResult {
	if len(l.Audios) == 0 {
		return nil
	}
	return &l.Audios[len(l.Audios)-1]
}

// ActionVocabulary is the closed set of actionable items a model response may
// produce. Anything else fails validation at the parse boundary.
var ActionVocabulary = []string{
	"Qualify the lead",
	"Research the company",
	"Initiate a call/email",
	"Follow up consistently",
	"Send a proposal",
}
