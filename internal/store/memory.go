package store

import (
	"context"
	"sort"
	"sync"

	"lead-insights-go/internal/types"
)

// Memory is the in-process LeadStore used when no DATABASE_URL is set and
// throughout the tests.
type Memory struct {
	mu    sync.RWMutex
	leads map[string]types.LeadData
	cfg   types.ScoringConfig
}

func NewMemory() *Memory {
	return &Memory{
		leads: map[string]types.LeadData{},
		cfg:   types.DefaultScoringConfig(),
	}
}

// CreateLead inserts the lead. A duplicate id leaves the existing record
// untouched, same as the SQL adapter's conflict handling.
func (m *Memory) CreateLead(_ context.Context, lead types.LeadData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.leads[lead.ID]; ok {
		return nil
	}
	m.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (m *Memory) GetLead(_ context.Context, id string) (types.LeadData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lead, ok := m.leads[id]
	if !ok {
		return types.LeadData{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (m *Memory) ListLeads(_ context.Context) ([]types.LeadData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.LeadData, 0, len(m.leads))
	for _, l := range m.leads {
		out = append(out, cloneLead(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) AppendAudio(_ context.Context, leadID string, audio types.AudioAnalysisResult, overall *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[leadID]
	if !ok {
		return ErrNotFound
	}
	lead.Audios = append(lead.Audios, audio)
	lead.OverallScore = cloneScore(overall)
	m.leads[leadID] = lead
	return nil
}

func (m *Memory) UpdateOSI(_ context.Context, leadID string, osi types.OSI, overall *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[leadID]
	if !ok {
		return ErrNotFound
	}
	lead.OSI = osi
	lead.OverallScore = cloneScore(overall)
	m.leads[leadID] = lead
	return nil
}

func (m *Memory) UpdateScore(_ context.Context, leadID string, overall *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[leadID]
	if !ok {
		return ErrNotFound
	}
	lead.OverallScore = cloneScore(overall)
	m.leads[leadID] = lead
	return nil
}

func (m *Memory) GetScoringConfig(_ context.Context) (types.ScoringConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg, nil
}

func (m *Memory) SaveScoringConfig(_ context.Context, cfg types.ScoringConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	return nil
}

func (m *Memory) Close() {}

func cloneLead(l types.LeadData) types.LeadData {
	out := l
	out.Audios = append([]types.AudioAnalysisResult(nil), l.Audios...)
	out.OverallScore = cloneScore(l.OverallScore)
	return out
}

func cloneScore(s *float64) *float64 {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
