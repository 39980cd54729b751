// Package api exposes the pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-insights-go/internal/logger"
	"lead-insights-go/internal/pipeline"
	"lead-insights-go/internal/scoring"
	"lead-insights-go/internal/store"
	"lead-insights-go/internal/types"
)

// maxAudioBytes caps the analyze request body (25 MB).
const maxAudioBytes = 25 << 20

type Server struct {
	pipe     *pipeline.Pipeline
	leads    store.LeadStore
	settings *scoring.Settings
	log      *logger.Logger
}

func New(pipe *pipeline.Pipeline, leads store.LeadStore, settings *scoring.Settings, log *logger.Logger) *Server {
	return &Server{pipe: pipe, leads: leads, settings: settings, log: log}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/leads", func(r chi.Router) {
		r.Post("/", s.createLead)
		r.Get("/", s.listLeads)
		r.Get("/{id}", s.getLead)
		r.Post("/{id}/analyze", s.analyze)
		r.Post("/{id}/search", s.refreshSearch)
		r.Post("/{id}/rescore", s.rescore)
	})

	r.Get("/settings/scoring", s.getScoring)
	r.Put("/settings/scoring", s.putScoring)

	return r
}

type createLeadRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Company  string `json:"company"`
	Industry string `json:"industry"`
}

func (s *Server) createLead(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r)
	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	lead := types.LeadData{
		ID:        req.ID,
		Name:      req.Name,
		Company:   req.Company,
		CreatedAt: time.Now().UTC(),
	}
	lead.OSI.Industry = req.Industry
	if lead.ID == "" {
		lead.ID = strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	if err := s.leads.CreateLead(r.Context(), lead); err != nil {
		reqLog.WithError(err).Error("lead create failed")
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	reqLog.WithField("lead_id", lead.ID).Info("lead created")
	writeJSON(w, http.StatusCreated, lead)
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.leads.ListLeads(r.Context())
	if err != nil {
		s.log.WithRequest(r).WithError(err).Error("lead list failed")
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) getLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.leads.GetLead(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.WithRequest(r).WithError(err).Error("lead read failed")
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// analyze accepts one raw audio file per call and returns the derived
// AudioAnalysisResult. Transcription failure is the one fatal path.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "analyze")
	leadID := chi.URLParam(r, "id")

	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBytes))
	if err != nil {
		http.Error(w, "could not read audio body", http.StatusBadRequest)
		return
	}
	if len(audio) == 0 {
		http.Error(w, "empty audio body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := s.pipe.AnalyzeAudio(r.Context(), leadID, audio)
	reqLog = reqLog.WithField("duration_ms", time.Since(start).Milliseconds())
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		reqLog.WithError(err).Warn("analysis failed")
		http.Error(w, "analysis failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	reqLog.WithField("audio_id", result.AudioID).Info("analysis complete")
	writeJSON(w, http.StatusOK, result)
}

type searchRefreshResponse struct {
	Overview       string  `json:"overview"`
	RelevanceScore float64 `json:"relevanceScore"`
	WebsiteURL     string  `json:"websiteURL,omitempty"`
}

func (s *Server) refreshSearch(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "search")
	leadID := chi.URLParam(r, "id")

	rel, err := s.pipe.RefreshSearch(r.Context(), leadID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		reqLog.WithError(err).Error("search refresh failed")
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	reqLog.WithField("relevance", rel.RelevanceScore).Info("search refreshed")
	writeJSON(w, http.StatusOK, searchRefreshResponse{
		Overview:       rel.Overview,
		RelevanceScore: rel.RelevanceScore,
		WebsiteURL:     rel.CompanyWebsite,
	})
}

// rescore recomputes the composite score under the current weights without
// adding signals. Useful after a settings change.
func (s *Server) rescore(w http.ResponseWriter, r *http.Request) {
	lead, err := s.pipe.Rescore(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.WithRequest(r).WithError(err).Error("rescore failed")
		http.Error(w, "store error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (s *Server) getScoring(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Snapshot())
}

func (s *Server) putScoring(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "scoring-settings")
	var cfg types.ScoringConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := s.settings.Update(cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.leads.SaveScoringConfig(r.Context(), cfg); err != nil {
		// Settings still apply in-process; persistence is best effort.
		reqLog.WithError(err).Warn("scoring settings persistence failed")
	}
	reqLog.Info("scoring settings updated")
	writeJSON(w, http.StatusOK, cfg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
