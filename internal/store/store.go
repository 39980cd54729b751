// Package store persists leads, their derived audio analyses and the
// scoring settings. The pipeline treats analysis writes as best effort: the
// caller logs a returned error and still serves the computed result.
package store

import (
	"context"
	"errors"

	"lead-insights-go/internal/types"
)

var ErrNotFound = errors.New("lead not found")

// LeadStore is the persistence port. Postgres backs it in production; the
// memory adapter serves local runs and tests.
type LeadStore interface {
	CreateLead(ctx context.Context, lead types.LeadData) error
	GetLead(ctx context.Context, id string) (types.LeadData, error)
	ListLeads(ctx context.Context) ([]types.LeadData, error)

	// AppendAudio adds one analysis row to the lead and updates its score.
	AppendAudio(ctx context.Context, leadID string, audio types.AudioAnalysisResult, overall *float64) error
	// UpdateOSI overwrites the lead's osi_* fields and updates its score.
	UpdateOSI(ctx context.Context, leadID string, osi types.OSI, overall *float64) error
	// UpdateScore overwrites only the composite score, leaving every signal
	// untouched. Used when a weight change triggers a rescore.
	UpdateScore(ctx context.Context, leadID string, overall *float64) error

	GetScoringConfig(ctx context.Context) (types.ScoringConfig, error)
	SaveScoringConfig(ctx context.Context, cfg types.ScoringConfig) error

	Close()
}
