// Package handlers exposes the weekly stock price API over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gamestock/internal/fallback"
	"gamestock/internal/registry"
	"gamestock/internal/weekly"
)

// Handler handles weekly stock price HTTP requests.
type Handler struct {
	collector    *weekly.Collector
	orchestrator *weekly.Orchestrator
	facts        *weekly.Repository
	jobs         *weekly.JobRepository
	registry     *registry.Registry
	fallback     *fallback.Reader
	log          zerolog.Logger
}

// NewHandler creates a new stock price handler.
func NewHandler(
	collector *weekly.Collector,
	orchestrator *weekly.Orchestrator,
	facts *weekly.Repository,
	jobs *weekly.JobRepository,
	reg *registry.Registry,
	fb *fallback.Reader,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		collector:    collector,
		orchestrator: orchestrator,
		facts:        facts,
		jobs:         jobs,
		registry:     reg,
		fallback:     fb,
		log:          log.With().Str("handler", "stockprice").Logger(),
	}
}

// Routes mounts all stock price routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/stockprice", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Post("/collect-all", h.HandleCollectAll)
		r.Get("/top", h.HandleGetTop)
		r.Get("/stats", h.HandleGetStats)
		r.Get("/{symbol}", h.HandleGetOne)
		r.Post("/{symbol}/collect", h.HandleCollectOne)
	})
	r.Route("/batch", func(r chi.Router) {
		r.Post("/stockprice", h.HandleRunBatch)
		r.Get("/jobs", h.HandleGetJobs)
	})
	r.Get("/companies", h.HandleGetCompanies)
}

// HandleCollectOne handles POST /stockprice/{symbol}/collect - recompute and
// overwrite the weekly fact for one company. The identifier may be a stock
// code or a company name.
func (h *Handler) HandleCollectOne(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	fact, err := h.collector.CollectOne(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, weekly.ErrNotFound) {
			http.Error(w, "Unknown company", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to collect weekly data")
		http.Error(w, "Failed to collect weekly data", http.StatusInternalServerError)
		return
	}

	stored, err := h.facts.UpsertBySymbol(fact)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to store weekly fact")
		http.Error(w, "Failed to store weekly fact", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, stored)
}

// HandleCollectAll handles POST /stockprice/collect-all - recompute every
// registered company and overwrite existing facts. Unlike the batch endpoint
// this path does not touch the job ledger.
func (h *Handler) HandleCollectAll(w http.ResponseWriter, r *http.Request) {
	facts := h.collector.CollectAll(r.Context())

	// Every fact lands in exactly one bucket: a store failure counts it under
	// errors even when the fact itself was already a failed one.
	updated := 0
	errored := 0
	for _, fact := range facts {
		if _, err := h.facts.UpsertBySymbol(fact); err != nil {
			h.log.Error().Err(err).Str("symbol", fact.Symbol).Msg("Failed to store weekly fact")
			errored++
			continue
		}
		if fact.Failed() {
			errored++
		} else {
			updated++
		}
	}

	h.respondJSON(w, map[string]interface{}{
		"total":   len(facts),
		"updated": updated,
		"errors":  errored,
	})
}

// HandleRunBatch handles POST /batch/stockprice?week= - run the full batch
// pipeline with dedup write semantics and a job ledger entry. An omitted week
// targets the current one; an explicit week backfills.
func (h *Handler) HandleRunBatch(w http.ResponseWriter, r *http.Request) {
	week := r.URL.Query().Get("week")

	result, err := h.orchestrator.RunBatch(r.Context(), weekly.CategoryStockPrice, week)
	if err != nil {
		h.log.Error().Err(err).Str("week", week).Msg("Batch run failed")
		http.Error(w, "Batch run failed", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, result)
}

// HandleGetOne handles GET /stockprice/{symbol} - latest fact for one symbol.
// Falls back to the static snapshot when the fact store is unreachable.
func (h *Handler) HandleGetOne(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	fact, err := h.facts.LatestBySymbol(symbol)
	if err == nil {
		h.respondJSON(w, fact)
		return
	}
	if errors.Is(err, weekly.ErrNotFound) {
		http.Error(w, "No weekly data for symbol", http.StatusNotFound)
		return
	}

	h.log.Warn().Err(err).Str("symbol", symbol).Msg("Fact store read failed, trying fallback")
	if h.fallback.Available() {
		snapshot, fbErr := h.fallback.BySymbol(symbol)
		if fbErr == nil {
			h.respondJSON(w, map[string]interface{}{
				"source": "fallback",
				"data":   snapshot,
			})
			return
		}
		if errors.Is(fbErr, weekly.ErrNotFound) {
			http.Error(w, "No weekly data for symbol", http.StatusNotFound)
			return
		}
		h.log.Error().Err(fbErr).Msg("Fallback read failed")
	}

	http.Error(w, "Weekly data unavailable", http.StatusServiceUnavailable)
}

// HandleGetAll handles GET /stockprice - latest fact per symbol. Falls back
// to the static snapshot when the fact store is unreachable.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	facts, err := h.facts.AllLatest()
	if err == nil {
		if facts == nil {
			facts = []*weekly.WeeklyFact{}
		}
		h.respondJSON(w, facts)
		return
	}

	h.log.Warn().Err(err).Msg("Fact store read failed, trying fallback")
	if h.fallback.Available() {
		snapshots, fbErr := h.fallback.All()
		if fbErr == nil {
			h.respondJSON(w, map[string]interface{}{
				"source": "fallback",
				"data":   snapshots,
			})
			return
		}
		h.log.Error().Err(fbErr).Msg("Fallback read failed")
	}

	http.Error(w, "Weekly data unavailable", http.StatusServiceUnavailable)
}

// HandleGetTop handles GET /stockprice/top?direction=gainers|losers&limit=N.
func (h *Handler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = weekly.DirectionGainers
	}
	if direction != weekly.DirectionGainers && direction != weekly.DirectionLosers {
		http.Error(w, "Invalid direction. Use gainers or losers", http.StatusBadRequest)
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 100 {
			http.Error(w, "Invalid limit. Must be 1-100", http.StatusBadRequest)
			return
		}
		limit = l
	}

	facts, err := h.facts.TopByChangeRate(direction, limit)
	if err != nil {
		h.log.Error().Err(err).Str("direction", direction).Msg("Failed to rank facts")
		http.Error(w, "Failed to retrieve ranking", http.StatusInternalServerError)
		return
	}
	if facts == nil {
		facts = []*weekly.WeeklyFact{}
	}

	h.respondJSON(w, map[string]interface{}{
		"direction": direction,
		"limit":     limit,
		"items":     facts,
	})
}

// HandleGetStats handles GET /stockprice/stats - market-wide aggregates over
// the latest fact per company.
func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.facts.MarketStatistics()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute market statistics")
		http.Error(w, "Failed to retrieve statistics", http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, stats)
}

// HandleGetJobs handles GET /batch/jobs?job_type=&limit= - recent ledger rows.
func (h *Handler) HandleGetJobs(w http.ResponseWriter, r *http.Request) {
	jobType := r.URL.Query().Get("job_type")

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > 1000 {
			http.Error(w, "Invalid limit. Must be 1-1000", http.StatusBadRequest)
			return
		}
		limit = l
	}

	jobs, err := h.jobs.Recent(jobType, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query batch jobs")
		http.Error(w, "Failed to retrieve batch jobs", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []*weekly.BatchJob{}
	}

	h.respondJSON(w, jobs)
}

// HandleGetCompanies handles GET /companies - the tracked company registry.
func (h *Handler) HandleGetCompanies(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, h.registry.Companies())
}

func (h *Handler) respondJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
