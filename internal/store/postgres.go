package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lead-insights-go/internal/types"
)

// Postgres is the production LeadStore.
type Postgres struct {
	pool *pgxpool.Pool
}

func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

func (p *Postgres) CreateLead(ctx context.Context, lead types.LeadData) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO leads (id, name, company, industry, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, lead.ID, lead.Name, lead.Company, lead.OSI.Industry, lead.CreatedAt)
	return err
}

func (p *Postgres) GetLead(ctx context.Context, id string) (types.LeadData, error) {
	var lead types.LeadData
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, company, industry, osi_overview, osi_relevance,
		       osi_website, osi_is_safe, osi_searched, overall_score, created_at
		FROM leads WHERE id = $1
	`, id).Scan(&lead.ID, &lead.Name, &lead.Company, &lead.OSI.Industry,
		&lead.OSI.Overview, &lead.OSI.RelevanceScore, &lead.OSI.CompanyWebsite,
		&lead.OSI.IsSafe, &lead.OSI.Searched, &lead.OverallScore, &lead.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.LeadData{}, ErrNotFound
	}
	if err != nil {
		return types.LeadData{}, err
	}
	lead.Audios, err = p.audiosFor(ctx, id)
	return lead, err
}

func (p *Postgres) ListLeads(ctx context.Context) ([]types.LeadData, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, company, industry, osi_overview, osi_relevance,
		       osi_website, osi_is_safe, osi_searched, overall_score, created_at
		FROM leads ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.LeadData
	for rows.Next() {
		var lead types.LeadData
		if err := rows.Scan(&lead.ID, &lead.Name, &lead.Company, &lead.OSI.Industry,
			&lead.OSI.Overview, &lead.OSI.RelevanceScore, &lead.OSI.CompanyWebsite,
			&lead.OSI.IsSafe, &lead.OSI.Searched, &lead.OverallScore, &lead.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Audios, err = p.audiosFor(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Postgres) audiosFor(ctx context.Context, leadID string) ([]types.AudioAnalysisResult, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT audio_id, created_at, emotion, sentiment_type, confidence_score,
		       talk_to_listen_ratio, turn_taking_frequency, interruptions,
		       speech_pace, topics, actionable_items
		FROM lead_audios WHERE lead_id = $1 ORDER BY created_at
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []types.AudioAnalysisResult
	for rows.Next() {
		var a types.AudioAnalysisResult
		var topics, actions []byte
		if err := rows.Scan(&a.AudioID, &a.Date, &a.Sentiment.Emotion,
			&a.Sentiment.SentimentType, &a.Sentiment.ConfidenceScore,
			&a.Engagement.TalkToListenRatio, &a.Engagement.TurnTakingFrequency,
			&a.Engagement.Interruptions, &a.Engagement.SpeechPace,
			&topics, &actions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(topics, &a.Topics); err != nil {
			a.Topics = []string{}
		}
		if err := json.Unmarshal(actions, &a.ActionableItems); err != nil {
			a.ActionableItems = []string{}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) AppendAudio(ctx context.Context, leadID string, audio types.AudioAnalysisResult, overall *float64) error {
	topics, _ := json.Marshal(audio.Topics)
	actions, _ := json.Marshal(audio.ActionableItems)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO lead_audios (audio_id, lead_id, created_at, emotion,
			sentiment_type, confidence_score, talk_to_listen_ratio,
			turn_taking_frequency, interruptions, speech_pace, topics,
			actionable_items)
		SELECT $1, id, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		FROM leads WHERE id = $2
	`, audio.AudioID, leadID, audio.Date, audio.Sentiment.Emotion,
		audio.Sentiment.SentimentType, audio.Sentiment.ConfidenceScore,
		audio.Engagement.TalkToListenRatio, audio.Engagement.TurnTakingFrequency,
		audio.Engagement.Interruptions, audio.Engagement.SpeechPace,
		topics, actions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `UPDATE leads SET overall_score = $2 WHERE id = $1`, leadID, overall); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) UpdateOSI(ctx context.Context, leadID string, osi types.OSI, overall *float64) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE leads SET industry = $2, osi_overview = $3, osi_relevance = $4,
			osi_website = $5, osi_is_safe = $6, osi_searched = $7,
			overall_score = $8
		WHERE id = $1
	`, leadID, osi.Industry, osi.Overview, osi.RelevanceScore,
		osi.CompanyWebsite, osi.IsSafe, osi.Searched, overall)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateScore(ctx context.Context, leadID string, overall *float64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE leads SET overall_score = $2 WHERE id = $1`, leadID, overall)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetScoringConfig(ctx context.Context) (types.ScoringConfig, error) {
	var cfg types.ScoringConfig
	err := p.pool.QueryRow(ctx, `
		SELECT sentiment_weight, presence_weight, relevance_weight, time_decay
		FROM scoring_settings WHERE id = 1
	`).Scan(&cfg.Weights.Sentiment, &cfg.Weights.Presence, &cfg.Weights.Relevance, &cfg.TimeDecay)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.DefaultScoringConfig(), nil
	}
	return cfg, err
}

func (p *Postgres) SaveScoringConfig(ctx context.Context, cfg types.ScoringConfig) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO scoring_settings (id, sentiment_weight, presence_weight, relevance_weight, time_decay)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET sentiment_weight = $1,
			presence_weight = $2, relevance_weight = $3, time_decay = $4
	`, cfg.Weights.Sentiment, cfg.Weights.Presence, cfg.Weights.Relevance, cfg.TimeDecay)
	return err
}
